package capability

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/infrastructure/persist"
	"github.com/lumenshell/platform/internal/shared/types"
)

const ledgerRecord = "permissions"

// Ledger owns the per-app permission grants. It persists independently
// of app installation so revocations survive reinstalls unless the
// app's slice is explicitly cleared.
type Ledger struct {
	mu     sync.RWMutex
	grants map[string][]types.PermissionGrant // appID -> grants
	store  *persist.Store
	logger *logging.Logger
}

// NewLedger creates a ledger, loading any persisted grants.
func NewLedger(store *persist.Store, logger *logging.Logger) *Ledger {
	if logger == nil {
		logger = logging.NewNop()
	}
	l := &Ledger{
		grants: make(map[string][]types.PermissionGrant),
		store:  store,
		logger: logger,
	}
	if store != nil {
		if err := store.Load(ledgerRecord, &l.grants); err != nil && err != persist.ErrNotFound {
			logger.Warn("failed to load permission ledger", zap.Error(err))
		}
		if l.grants == nil {
			l.grants = make(map[string][]types.PermissionGrant)
		}
	}
	return l
}

// Has reports whether the app currently holds the capability. The fixed
// always-granted subset short-circuits true regardless of ledger state.
func (l *Ledger) Has(appID string, c types.Capability) bool {
	if IsAlwaysGranted(c) {
		return true
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, g := range l.grants[appID] {
		if g.Capability == c {
			return g.Granted
		}
	}
	return false
}

// Grant upserts a granted record for (appID, c).
func (l *Ledger) Grant(appID string, c types.Capability) {
	l.mu.Lock()
	l.upsert(appID, c, true)
	l.persistLocked()
	l.mu.Unlock()

	l.logger.Info("capability granted",
		zap.String("app_id", appID),
		zap.String("capability", string(c)),
	)
}

// Revoke upserts a revoked record for (appID, c). Revoking something
// never granted still records the denial.
func (l *Ledger) Revoke(appID string, c types.Capability) {
	l.mu.Lock()
	l.upsert(appID, c, false)
	l.persistLocked()
	l.mu.Unlock()

	l.logger.Info("capability revoked",
		zap.String("app_id", appID),
		zap.String("capability", string(c)),
	)
}

// GrantAll grants every capability in the list. Each grant is
// independently idempotent so no rollback is needed.
func (l *Ledger) GrantAll(appID string, caps []types.Capability) {
	l.mu.Lock()
	for _, c := range caps {
		l.upsert(appID, c, true)
	}
	l.persistLocked()
	l.mu.Unlock()
}

// Required returns the subset of caps the app does not yet hold, in
// input order. Installers use it to decide what consent UI to show.
func (l *Ledger) Required(appID string, caps []types.Capability) []types.Capability {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var missing []types.Capability
	for _, c := range caps {
		if IsAlwaysGranted(c) {
			continue
		}
		held := false
		for _, g := range l.grants[appID] {
			if g.Capability == c && g.Granted {
				held = true
				break
			}
		}
		if !held {
			missing = append(missing, c)
		}
	}
	return missing
}

// ForApp returns a copy of the app's ledger slice.
func (l *Ledger) ForApp(appID string) []types.PermissionGrant {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.PermissionGrant, len(l.grants[appID]))
	copy(out, l.grants[appID])
	return out
}

// ClearApp removes the app's entire ledger slice. Other apps' grants
// are untouched. Used on uninstall.
func (l *Ledger) ClearApp(appID string) {
	l.mu.Lock()
	delete(l.grants, appID)
	l.persistLocked()
	l.mu.Unlock()
}

// upsert updates the matching record in place or appends. Must hold mu.
func (l *Ledger) upsert(appID string, c types.Capability, granted bool) {
	now := time.Now()
	slice := l.grants[appID]
	for i := range slice {
		if slice[i].Capability == c {
			slice[i].Granted = granted
			if granted {
				slice[i].GrantedAt = now
				slice[i].RevokedAt = nil
			} else {
				slice[i].RevokedAt = &now
			}
			return
		}
	}
	g := types.PermissionGrant{AppID: appID, Capability: c, Granted: granted, GrantedAt: now}
	if !granted {
		g.RevokedAt = &now
	}
	l.grants[appID] = append(slice, g)
}

// persistLocked writes the ledger map. Must hold mu.
func (l *Ledger) persistLocked() {
	if l.store == nil {
		return
	}
	if err := l.store.Save(ledgerRecord, l.grants); err != nil {
		l.logger.Error("failed to persist permission ledger", zap.Error(err))
	}
}
