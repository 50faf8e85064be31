package resolver

import (
	"testing"

	"github.com/lumenshell/platform/internal/shared/types"
)

type stubProvider struct {
	kind types.ComponentKind
	ids  map[string]bool
}

type stubComponent struct {
	id   string
	kind types.ComponentKind
}

func (c *stubComponent) AppID() string             { return c.id }
func (c *stubComponent) Kind() types.ComponentKind { return c.kind }

func (p *stubProvider) Component(id string) (types.Component, bool) {
	if !p.ids[id] {
		return nil, false
	}
	return &stubComponent{id: id, kind: p.kind}, true
}

func TestResolveAcrossProviders(t *testing.T) {
	local := NewLocalTable()
	local.Register("files", "apps/files.js")
	remote := &stubProvider{kind: types.KindRemote, ids: map[string]bool{"weather": true}}
	quick := &stubProvider{kind: types.KindQuickApp, ids: map[string]bool{"pomodoro-timer": true}}

	r := New(nil, local, remote, quick)

	cases := map[string]types.ComponentKind{
		"files":          types.KindLocal,
		"weather":        types.KindRemote,
		"pomodoro-timer": types.KindQuickApp,
	}
	for id, kind := range cases {
		c, ok := r.Resolve(id)
		if !ok {
			t.Fatalf("Resolve(%q) failed", id)
		}
		if c.Kind() != kind || c.AppID() != id {
			t.Errorf("Resolve(%q) = %q %q", id, c.AppID(), c.Kind())
		}
	}

	if _, ok := r.Resolve("missing"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestResolveFirstProviderWins(t *testing.T) {
	local := NewLocalTable()
	local.Register("shared-id", "apps/builtin.js")
	quick := &stubProvider{kind: types.KindQuickApp, ids: map[string]bool{"shared-id": true}}

	r := New(nil, local, quick)
	c, ok := r.Resolve("shared-id")
	if !ok || c.Kind() != types.KindLocal {
		t.Errorf("built-in app should win the lookup, got %v", c)
	}
}
