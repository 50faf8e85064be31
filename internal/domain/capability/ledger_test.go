package capability

import (
	"testing"

	"github.com/lumenshell/platform/internal/infrastructure/persist"
	"github.com/lumenshell/platform/internal/shared/types"
)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	store, err := persist.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewLedger(store, nil)
}

func TestAlwaysGrantedBypassesLedger(t *testing.T) {
	l := newLedger(t)

	for _, c := range []types.Capability{StorageLocal, StorageStructured, NotifyToast, SystemFullscreen} {
		if !l.Has("empty-app", c) {
			t.Errorf("expected %s always granted", c)
		}
	}

	// Even a revoke cannot remove an always-granted capability.
	l.Revoke("empty-app", NotifyToast)
	if !l.Has("empty-app", NotifyToast) {
		t.Error("always-granted capability should survive revoke")
	}
}

func TestGrantRevokeCycle(t *testing.T) {
	l := newLedger(t)

	if l.Has("app", NetworkHTTP) {
		t.Fatal("ungranted capability should be false")
	}

	l.Grant("app", NetworkHTTP)
	if !l.Has("app", NetworkHTTP) {
		t.Fatal("granted capability should be true")
	}

	l.Revoke("app", NetworkHTTP)
	if l.Has("app", NetworkHTTP) {
		t.Fatal("revoked capability should be false immediately")
	}
}

func TestGrantUpsertsInPlace(t *testing.T) {
	l := newLedger(t)

	l.Grant("app", MediaCamera)
	l.Grant("app", MediaCamera)
	l.Grant("app", MediaCamera)

	if n := len(l.ForApp("app")); n != 1 {
		t.Errorf("expected 1 ledger record, got %d", n)
	}
}

func TestRequired(t *testing.T) {
	l := newLedger(t)
	l.Grant("app", NetworkHTTP)

	caps := []types.Capability{NetworkHTTP, StorageLocal, AIAgent, MediaCamera}
	missing := l.Required("app", caps)

	if len(missing) != 2 || missing[0] != AIAgent || missing[1] != MediaCamera {
		t.Errorf("unexpected required set: %v", missing)
	}
}

func TestGrantAll(t *testing.T) {
	l := newLedger(t)
	caps := []types.Capability{NetworkHTTP, SystemClipboard}

	l.GrantAll("app", caps)

	for _, c := range caps {
		if !l.Has("app", c) {
			t.Errorf("expected %s granted", c)
		}
	}
}

func TestClearAppIsScoped(t *testing.T) {
	l := newLedger(t)
	l.Grant("a", NetworkHTTP)
	l.Grant("b", NetworkHTTP)

	l.ClearApp("a")

	if l.Has("a", NetworkHTTP) {
		t.Error("cleared app should lose its grants")
	}
	if !l.Has("b", NetworkHTTP) {
		t.Error("clearing one app must not affect another")
	}
}

func TestLedgerSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	store, _ := persist.New(dir)

	l := NewLedger(store, nil)
	l.Grant("app", AIAgent)

	reloaded := NewLedger(store, nil)
	if !reloaded.Has("app", AIAgent) {
		t.Error("grants should persist across ledger restarts")
	}
}

func TestTaxonomyLookup(t *testing.T) {
	d, ok := Lookup(NetworkHTTP)
	if !ok || d.Domain != DomainNetwork || d.Risk != RiskMedium {
		t.Errorf("unexpected definition: %+v", d)
	}

	if _, ok := Lookup("made:up"); ok {
		t.Error("unknown capability should not resolve")
	}
	if RiskOf("made:up") != RiskHigh {
		t.Error("unknown capabilities default to high risk")
	}

	if n := len(ByDomain(DomainMedia)); n != 3 {
		t.Errorf("expected 3 media capabilities, got %d", n)
	}
}
