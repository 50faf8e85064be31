// Package resolver maps app ids to live components across every
// component source the platform knows about.
package resolver

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/shared/types"
)

// Provider answers component lookups for one source of apps.
type Provider interface {
	Component(id string) (types.Component, bool)
}

// LocalApp is a built-in component shipped with the platform itself.
type LocalApp struct {
	ID    string
	Entry string
}

// AppID implements types.Component.
func (a *LocalApp) AppID() string { return a.ID }

// Kind implements types.Component.
func (a *LocalApp) Kind() types.ComponentKind { return types.KindLocal }

// LocalTable is the discovery table for built-in apps. Registration
// happens once at startup; lookups are concurrent.
type LocalTable struct {
	mu   sync.RWMutex
	apps map[string]*LocalApp
}

// NewLocalTable creates an empty discovery table.
func NewLocalTable() *LocalTable {
	return &LocalTable{apps: make(map[string]*LocalApp)}
}

// Register adds a built-in app. Later registrations win.
func (t *LocalTable) Register(id, entry string) {
	t.mu.Lock()
	t.apps[id] = &LocalApp{ID: id, Entry: entry}
	t.mu.Unlock()
}

// Component implements Provider.
func (t *LocalTable) Component(id string) (types.Component, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	app, ok := t.apps[id]
	if !ok {
		return nil, false
	}
	return app, true
}

// Resolver fans one lookup across providers in registration order.
// Order matters: the first provider claiming an id wins, so built-in
// apps cannot be shadowed by installed ones when registered first.
type Resolver struct {
	providers []Provider
	logger    *logging.Logger
}

// New creates a resolver over an ordered provider list.
func New(logger *logging.Logger, providers ...Provider) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{providers: providers, logger: logger}
}

// Resolve returns the live component for an id, or false when no
// provider knows it.
func (r *Resolver) Resolve(id string) (types.Component, bool) {
	for _, p := range r.providers {
		if c, ok := p.Component(id); ok {
			return c, true
		}
	}
	r.logger.Debug("component not resolved", zap.String("app_id", id))
	return nil, false
}
