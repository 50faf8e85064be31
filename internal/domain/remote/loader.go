package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/domain/capability"
	"github.com/lumenshell/platform/internal/domain/lifecycle"
	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/infrastructure/monitoring"
	"github.com/lumenshell/platform/internal/shared/types"
	"github.com/lumenshell/platform/internal/shared/utils"
)

// IsolationMode selects how a verified bundle may be loaded.
type IsolationMode string

const (
	// Sandboxed bundles never get direct host API access; they can only
	// be mounted inside an isolated execution context with the narrow
	// pre-approved bridge below.
	Sandboxed IsolationMode = "sandboxed"
	// Trusted bundles are registered for direct dynamic loading into
	// the host component tree.
	Trusted IsolationMode = "trusted"
)

// sandboxBridge is the only host surface exposed to sandboxed bundles.
var sandboxBridge = []string{
	"storage.get",
	"storage.set",
	"notifications.toast",
	"theme.get",
}

// Bundle is a verified, registered remote bundle. It is the remote
// provider's live component.
type Bundle struct {
	ID     string
	Mode   IsolationMode
	Code   []byte
	Bridge []string // non-nil only for sandboxed bundles
}

// AppID implements types.Component.
func (b *Bundle) AppID() string { return b.ID }

// Kind implements types.Component.
func (b *Bundle) Kind() types.ComponentKind { return types.KindRemote }

// UpdateInfo reports a version mismatch found by CheckForUpdates.
type UpdateInfo struct {
	AppID     string `json:"app_id"`
	Installed string `json:"installed"`
	Latest    string `json:"latest"`
}

// Loader downloads, verifies, and registers remote app bundles.
type Loader struct {
	mu      sync.RWMutex
	bundles map[string]*Bundle // protected by mu

	http      *resty.Client
	lifecycle *lifecycle.Manager
	ledger    *capability.Ledger
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// NewLoader creates a remote bundle loader. Fetches time out but are
// never retried; failures surface as installation errors.
func NewLoader(lc *lifecycle.Manager, ledger *capability.Ledger, logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loader{
		bundles: make(map[string]*Bundle),
		http: resty.New().
			SetTimeout(60 * time.Second).
			SetHeader("User-Agent", "platform-loader/1.0"),
		lifecycle: lc,
		ledger:    ledger,
		logger:    logger,
	}
}

// WithMetrics adds metrics tracking to the loader.
func (l *Loader) WithMetrics(m *monitoring.Metrics) *Loader {
	l.metrics = m
	return l
}

// Install downloads the bundle declared by the manifest, verifies its
// integrity, registers it under the declared isolation mode, grants the
// universally-safe declared capabilities, and marks the app installed.
func (l *Loader) Install(ctx context.Context, manifest types.AppManifest) error {
	if manifest.Remote == nil {
		return fmt.Errorf("manifest %q has no remote descriptor", manifest.ID)
	}

	l.lifecycle.BeginInstall(manifest, types.SourceRemote)

	data, err := l.fetchBundle(ctx, manifest.Remote.SourceURL)
	if err != nil {
		wrapped := fmt.Errorf("failed to download bundle for %q: %w", manifest.ID, err)
		l.failInstall(manifest.ID, wrapped.Error())
		return wrapped
	}

	if manifest.Remote.Integrity != "" {
		ok, actual, err := utils.VerifyChecksum(data, manifest.Remote.Integrity)
		if err != nil {
			l.failInstall(manifest.ID, err.Error())
			return fmt.Errorf("bad integrity declaration for %q: %w", manifest.ID, err)
		}
		if !ok {
			ierr := &IntegrityError{
				AppID:    manifest.ID,
				Declared: manifest.Remote.Integrity,
				Actual:   actual,
			}
			if l.metrics != nil {
				l.metrics.IntegrityFailures.Inc()
			}
			l.failInstall(manifest.ID, ierr.Error())
			return ierr
		}
	}

	bundle := &Bundle{ID: manifest.ID, Mode: Trusted, Code: data}
	if manifest.Remote.Sandbox {
		bundle.Mode = Sandboxed
		bundle.Bridge = append([]string(nil), sandboxBridge...)
	}

	l.mu.Lock()
	l.bundles[manifest.ID] = bundle
	l.mu.Unlock()

	// Only universally-safe capabilities are granted without consent;
	// everything else goes through explicit user approval elsewhere.
	for _, c := range manifest.Capabilities {
		if capability.RiskOf(c) == capability.RiskLow {
			l.ledger.Grant(manifest.ID, c)
		}
	}

	l.lifecycle.Install(manifest, types.SourceRemote)

	l.logger.Info("remote app installed",
		zap.String("app_id", manifest.ID),
		zap.String("mode", string(bundle.Mode)),
		zap.Int("bundle_bytes", len(data)),
	)
	if l.metrics != nil {
		l.metrics.RecordInstall("remote", "ok")
	}
	return nil
}

// Uninstall releases the app's permission ledger and its registered
// bundle, then removes it from the lifecycle manager.
func (l *Loader) Uninstall(id string) {
	l.ledger.ClearApp(id)

	l.mu.Lock()
	delete(l.bundles, id)
	l.mu.Unlock()

	l.lifecycle.Uninstall(id)
}

// CheckForUpdates polls each remote app's declared source for its
// latest manifest and reports version mismatches without installing
// anything.
func (l *Loader) CheckForUpdates(ctx context.Context) []UpdateInfo {
	var updates []UpdateInfo
	for _, app := range l.lifecycle.List() {
		if app.Source != types.SourceRemote || app.Manifest.Remote == nil {
			continue
		}
		latest, err := l.fetchManifest(ctx, app.Manifest.Remote.SourceURL)
		if err != nil {
			l.logger.Warn("update check failed",
				zap.String("app_id", app.Manifest.ID),
				zap.Error(err),
			)
			continue
		}
		if latest.Version != app.Version {
			updates = append(updates, UpdateInfo{
				AppID:     app.Manifest.ID,
				Installed: app.Version,
				Latest:    latest.Version,
			})
		}
	}
	return updates
}

// Component returns the registered bundle for an app id. It is the
// remote provider behind the component resolver.
func (l *Loader) Component(id string) (types.Component, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	b, ok := l.bundles[id]
	if !ok {
		return nil, false
	}
	return b, true
}

// fetchBundle downloads raw bundle bytes, transparently decoding
// gzip-compressed payloads.
func (l *Loader) fetchBundle(ctx context.Context, sourceURL string) ([]byte, error) {
	start := time.Now()
	resp, err := l.http.R().SetContext(ctx).Get(sourceURL + "/bundle")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("bundle fetch returned %s", resp.Status())
	}
	if l.metrics != nil {
		l.metrics.BundleFetchSeconds.Observe(time.Since(start).Seconds())
	}

	data := resp.Body()
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("bundle gzip header invalid: %w", err)
		}
		defer zr.Close()
		decoded, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("bundle gzip decode failed: %w", err)
		}
		data = decoded
	}
	return data, nil
}

// fetchManifest reads the latest manifest at the app's source.
func (l *Loader) fetchManifest(ctx context.Context, sourceURL string) (*types.AppManifest, error) {
	resp, err := l.http.R().SetContext(ctx).Get(sourceURL + "/manifest")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("manifest fetch returned %s", resp.Status())
	}
	var m types.AppManifest
	if err := sonic.Unmarshal(resp.Body(), &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// failInstall records an installation failure on the app entry.
func (l *Loader) failInstall(id, message string) {
	if err := l.lifecycle.SetStatus(id, types.StatusError, message); err != nil {
		l.logger.Warn("failed to record install error", zap.String("app_id", id), zap.Error(err))
	}
	if l.metrics != nil {
		l.metrics.RecordInstall("remote", "error")
	}
}
