package quickapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/domain/lifecycle"
	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/infrastructure/monitoring"
	"github.com/lumenshell/platform/internal/infrastructure/persist"
	"github.com/lumenshell/platform/internal/shared/id"
	"github.com/lumenshell/platform/internal/shared/types"
)

const installRecord = "quickapps"

// Registry owns quick-app installations. Installation state and the
// lifecycle table move in lockstep: an app is present in both or in
// neither, and install runs fully before either is touched.
type Registry struct {
	mu         sync.RWMutex
	installs   map[string]*types.QuickAppInstallation
	components map[string]*Component

	lifecycle *lifecycle.Manager
	compiler  *Compiler
	runtime   *Runtime
	store     *persist.Store
	http      *resty.Client
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// NewRegistry creates the registry and restores persisted
// installations from the store. Restored apps are re-registered with
// the lifecycle manager so the dock and registry agree after restart.
func NewRegistry(lc *lifecycle.Manager, compiler *Compiler, runtime *Runtime, store *persist.Store, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Registry{
		installs:   make(map[string]*types.QuickAppInstallation),
		components: make(map[string]*Component),
		lifecycle:  lc,
		compiler:   compiler,
		runtime:    runtime,
		store:      store,
		http:       resty.New().SetTimeout(30 * time.Second),
		logger:     logger,
	}
	r.restore()
	return r
}

// WithMetrics attaches install and compile counters.
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

func (r *Registry) restore() {
	if r.store == nil {
		return
	}
	var saved map[string]*types.QuickAppInstallation
	if err := r.store.Load(installRecord, &saved); err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			r.logger.Warn("failed to restore quick apps", zap.Error(err))
		}
		return
	}
	r.installs = saved
	if r.installs == nil {
		r.installs = make(map[string]*types.QuickAppInstallation)
	}
	r.logger.Info("restored quick apps", zap.Int("count", len(r.installs)))
}

// ReloadAll re-registers every persisted installation with the
// lifecycle manager. Called once after a cold start, before the server
// accepts traffic.
func (r *Registry) ReloadAll() {
	r.mu.RLock()
	installs := make([]*types.QuickAppInstallation, 0, len(r.installs))
	for _, inst := range r.installs {
		installs = append(installs, inst)
	}
	r.mu.RUnlock()

	for _, inst := range installs {
		r.lifecycle.Install(inst.Compiled.Manifest, types.SourceLocal)
	}
}

// InstallFromMarkdown parses, compiles, and installs one quick-app
// document. Reinstalling an existing id replaces the stored
// installation and evicts any live component so the next open sees the
// new code. Nothing is persisted or registered when compilation
// produces fatal diagnostics.
func (r *Registry) InstallFromMarkdown(ctx context.Context, document string, origin types.InstallOrigin, location string) (*types.QuickAppInstallation, error) {
	parsed, err := Parse(document)
	if err != nil {
		r.recordInstall(origin, "parse_error")
		return nil, err
	}

	for _, warning := range Validate(parsed) {
		r.logger.Warn("quick app validation",
			zap.String("app_id", parsed.ID),
			zap.String("warning", warning),
		)
	}

	compiled, err := r.compiler.Compile(ctx, parsed)
	if err != nil {
		r.recordInstall(origin, "compile_error")
		return nil, err
	}
	if compiled.HasErrors() {
		r.recordInstall(origin, "compile_error")
		return nil, &CompileError{AppID: parsed.ID, Diagnostics: compiled.Errors}
	}

	now := time.Now()
	install := &types.QuickAppInstallation{
		Compiled:    *compiled,
		InstalledAt: now,
		UpdatedAt:   now,
		Origin:      origin,
		Location:    location,
	}

	r.mu.Lock()
	if prior, ok := r.installs[parsed.ID]; ok {
		install.InstalledAt = prior.InstalledAt
	}
	r.installs[parsed.ID] = install
	delete(r.components, parsed.ID)
	r.persistLocked()
	r.mu.Unlock()

	r.lifecycle.Install(compiled.Manifest, types.SourceLocal)
	r.recordInstall(origin, "success")
	r.logger.Info("quick app installed",
		zap.String("app_id", parsed.ID),
		zap.String("install_id", id.NewInstallID().String()),
		zap.String("origin", string(origin)),
	)
	return install, nil
}

// InstallFromURL fetches a document over HTTP and installs it.
func (r *Registry) InstallFromURL(ctx context.Context, url string) (*types.QuickAppInstallation, error) {
	resp, err := r.http.R().SetContext(ctx).Get(url)
	if err != nil {
		r.recordInstall(types.OriginURL, "fetch_error")
		return nil, fmt.Errorf("fetch quick app document: %w", err)
	}
	if resp.IsError() {
		r.recordInstall(types.OriginURL, "fetch_error")
		return nil, fmt.Errorf("fetch quick app document: status %d", resp.StatusCode())
	}
	return r.InstallFromMarkdown(ctx, string(resp.Body()), types.OriginURL, url)
}

// Uninstall removes an installation, its live component, and its
// lifecycle entry. Unknown ids are a no-op.
func (r *Registry) Uninstall(id string) bool {
	r.mu.Lock()
	_, ok := r.installs[id]
	if ok {
		delete(r.installs, id)
		delete(r.components, id)
		r.persistLocked()
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.lifecycle.Uninstall(id)
	r.logger.Info("quick app uninstalled", zap.String("app_id", id))
	return true
}

// Get returns the stored installation for an id.
func (r *Registry) Get(id string) (*types.QuickAppInstallation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.installs[id]
	return inst, ok
}

// List returns all installations.
func (r *Registry) List() []*types.QuickAppInstallation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.QuickAppInstallation, 0, len(r.installs))
	for _, inst := range r.installs {
		out = append(out, inst)
	}
	return out
}

// GetComponent returns the live component for an installed quick app,
// instantiating it from the stored artifact on first use. The
// component is cached until the app is reinstalled or uninstalled.
func (r *Registry) GetComponent(id string) (*Component, bool) {
	r.mu.RLock()
	if c, ok := r.components[id]; ok {
		r.mu.RUnlock()
		return c, true
	}
	inst, ok := r.installs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	component := r.runtime.Instantiate(&inst.Compiled)

	r.mu.Lock()
	// Another caller may have raced us here; keep whichever landed.
	if existing, ok := r.components[id]; ok {
		component = existing
	} else {
		r.components[id] = component
	}
	r.mu.Unlock()
	return component, true
}

// Component resolves an app id to its live component. Satisfies the
// resolver provider contract.
func (r *Registry) Component(id string) (types.Component, bool) {
	c, ok := r.GetComponent(id)
	if !ok {
		return nil, false
	}
	return c, true
}

func (r *Registry) persistLocked() {
	if r.store == nil {
		return
	}
	if err := r.store.Save(installRecord, r.installs); err != nil {
		r.logger.Error("failed to persist quick apps", zap.Error(err))
	}
}

func (r *Registry) recordInstall(origin types.InstallOrigin, result string) {
	if r.metrics != nil {
		r.metrics.RecordInstall(string(origin), result)
	}
}
