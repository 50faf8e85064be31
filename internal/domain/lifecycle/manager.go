// Package lifecycle owns the registry of installed apps, the dock
// ordering, and the single active app. All mutation goes through the
// manager; no other component writes these structures.
package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/infrastructure/monitoring"
	"github.com/lumenshell/platform/internal/infrastructure/persist"
	"github.com/lumenshell/platform/internal/shared/types"
)

const stateRecord = "apps"

// persistedState is the single durable record for registry + dock.
type persistedState struct {
	Apps map[string]*types.InstalledApp `json:"apps"`
	Dock []string                       `json:"dock"`
}

// Manager orchestrates the app lifecycle state machine.
type Manager struct {
	mu       sync.RWMutex
	apps     map[string]*types.InstalledApp // protected by mu
	dock     []string                       // protected by mu; ids only, every id installed
	activeID string                         // protected by mu; "" means none
	snapshot types.Snapshot                 // restoration snapshot for the active app

	store   *persist.Store
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a manager, restoring any persisted registry state.
func NewManager(store *persist.Store, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		apps:   make(map[string]*types.InstalledApp),
		store:  store,
		logger: logger,
	}
	if store != nil {
		var st persistedState
		if err := store.Load(stateRecord, &st); err == nil {
			if st.Apps != nil {
				m.apps = st.Apps
			}
			m.dock = st.Dock
			m.repairDockLocked()
		} else if err != persist.ErrNotFound {
			logger.Warn("failed to restore app registry", zap.Error(err))
		}
	}
	return m
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Install creates or overwrites the registry entry for the manifest.
// Dock placement only happens when the manifest requests it.
func (m *Manager) Install(manifest types.AppManifest, source types.Provenance) *types.InstalledApp {
	now := time.Now()

	m.mu.Lock()
	app := &types.InstalledApp{
		Manifest:    manifest,
		Status:      types.StatusInstalled,
		InstalledAt: now,
		UpdatedAt:   now,
		Version:     manifest.Version,
		Source:      source,
	}
	if prior, exists := m.apps[manifest.ID]; exists {
		app.InstalledAt = prior.InstalledAt
	}
	m.apps[manifest.ID] = app

	if manifest.Integrations.Dock.Enabled {
		m.placeInDockLocked(manifest.ID, manifest.Integrations.Dock.Position)
	}
	app.DockOrder = m.dockIndexLocked(manifest.ID)
	m.persistLocked()
	appCopy := *app
	m.mu.Unlock()

	m.logger.Info("app installed",
		zap.String("app_id", manifest.ID),
		zap.String("source", string(source)),
	)
	m.updateGauges()
	return &appCopy
}

// BeginInstall creates (or resets) a registry entry in the installing
// state so that a later failure has somewhere to record its error.
// Callers finish with Install on success or SetStatus on failure.
func (m *Manager) BeginInstall(manifest types.AppManifest, source types.Provenance) {
	now := time.Now()

	m.mu.Lock()
	app := &types.InstalledApp{
		Manifest:    manifest,
		Status:      types.StatusInstalling,
		InstalledAt: now,
		UpdatedAt:   now,
		Version:     manifest.Version,
		Source:      source,
	}
	if prior, exists := m.apps[manifest.ID]; exists {
		app.InstalledAt = prior.InstalledAt
	}
	m.apps[manifest.ID] = app
	m.persistLocked()
	m.mu.Unlock()
}

// Uninstall closes the app if active, then removes it from the
// registry and the dock in the same transaction. Unknown ids no-op.
func (m *Manager) Uninstall(id string) bool {
	m.mu.Lock()
	if _, ok := m.apps[id]; !ok {
		m.mu.Unlock()
		return false
	}
	if m.activeID == id {
		m.activeID = ""
		m.snapshot = types.Snapshot{}
	}
	delete(m.apps, id)
	m.removeFromDockLocked(id)
	m.persistLocked()
	m.mu.Unlock()

	m.logger.Info("app uninstalled", zap.String("app_id", id))
	m.updateGauges()
	return true
}

// Update replaces manifest, version, and timestamp on an existing
// entry. It never creates: unknown ids are a no-op.
func (m *Manager) Update(id string, manifest types.AppManifest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return false
	}
	app.Manifest = manifest
	app.Version = manifest.Version
	app.UpdatedAt = time.Now()
	app.Status = types.StatusInstalled
	m.persistLocked()
	return true
}

// Open records the caller's restoration snapshot and sets the app
// active. Opening while another app is active replaces it directly;
// at most one app is ever active.
func (m *Manager) Open(id string, current types.Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return false
	}
	if m.activeID != "" && m.activeID != id {
		if prior, exists := m.apps[m.activeID]; exists && prior.Status == types.StatusActive {
			prior.Status = types.StatusInstalled
		}
	}
	m.snapshot = current
	m.activeID = id
	app.Status = types.StatusActive
	return true
}

// Close clears the active app and returns the snapshot recorded when
// it was opened, for the shell to restore.
func (m *Manager) Close() (types.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID == "" {
		return types.Snapshot{}, false
	}
	if app, ok := m.apps[m.activeID]; ok && app.Status == types.StatusActive {
		app.Status = types.StatusInstalled
	}
	snap := m.snapshot
	m.activeID = ""
	m.snapshot = types.Snapshot{}
	return snap, true
}

// SetStatus transitions an app through the lifecycle state machine.
// The error state is recoverable: a later successful transition to
// installed clears the recorded error.
func (m *Manager) SetStatus(id string, status types.AppStatus, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return fmt.Errorf("unknown app %q", id)
	}
	if !validTransition(app.Status, status) {
		return fmt.Errorf("invalid transition %s -> %s for app %q", app.Status, status, id)
	}
	app.Status = status
	app.UpdatedAt = time.Now()
	if status == types.StatusError {
		app.LastError = lastError
	} else {
		app.LastError = ""
	}
	if status != types.StatusActive && m.activeID == id {
		m.activeID = ""
	}
	m.persistLocked()
	return nil
}

// validTransition encodes:
// not-installed -> installing -> installed <-> active <-> suspended,
// updating -> installed, any non-terminal -> error, error -> installed.
func validTransition(from, to types.AppStatus) bool {
	if to == types.StatusError {
		return true
	}
	switch from {
	case types.StatusNotInstalled:
		return to == types.StatusInstalling
	case types.StatusInstalling:
		return to == types.StatusInstalled
	case types.StatusInstalled:
		return to == types.StatusActive || to == types.StatusSuspended || to == types.StatusUpdating
	case types.StatusActive:
		return to == types.StatusInstalled || to == types.StatusSuspended
	case types.StatusSuspended:
		return to == types.StatusActive || to == types.StatusInstalled
	case types.StatusUpdating:
		return to == types.StatusInstalled
	case types.StatusError:
		return to == types.StatusInstalled
	}
	return false
}

// Get retrieves an installed app by id, returning a copy.
func (m *Manager) Get(id string) (*types.InstalledApp, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.apps[id]
	if !ok {
		return nil, false
	}
	appCopy := *app
	return &appCopy, true
}

// List returns copies of all installed apps.
func (m *Manager) List() []*types.InstalledApp {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apps := make([]*types.InstalledApp, 0, len(m.apps))
	for _, app := range m.apps {
		appCopy := *app
		apps = append(apps, &appCopy)
	}
	return apps
}

// Active returns the id of the open app, if any.
func (m *Manager) Active() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID, m.activeID != ""
}

// Stats returns manager statistics.
func (m *Manager) Stats() types.LifecycleStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := types.LifecycleStats{
		TotalApps:  len(m.apps),
		DockedApps: len(m.dock),
	}
	if m.activeID != "" {
		active := m.activeID
		st.ActiveAppID = &active
	}
	return st
}
