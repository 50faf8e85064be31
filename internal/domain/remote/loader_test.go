package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/lumenshell/platform/internal/domain/capability"
	"github.com/lumenshell/platform/internal/domain/lifecycle"
	"github.com/lumenshell/platform/internal/infrastructure/persist"
	"github.com/lumenshell/platform/internal/shared/types"
	"github.com/lumenshell/platform/internal/shared/utils"
)

func newLoader(t *testing.T) (*Loader, *lifecycle.Manager, *capability.Ledger) {
	t.Helper()
	store, err := persist.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lc := lifecycle.NewManager(store, nil)
	ledger := capability.NewLedger(store, nil)
	return NewLoader(lc, ledger, nil), lc, ledger
}

func remoteManifest(id, source, integrity string, sandbox bool) types.AppManifest {
	return types.AppManifest{
		ID:      id,
		Name:    id,
		Version: "1.0.0",
		Icon:    "Globe",
		Entry:   "bundle.js",
		Window:  types.WindowConfig{Mode: types.WindowPanel, Width: 480, Height: 600},
		Capabilities: []types.Capability{
			capability.MediaAudio,  // low risk: auto-granted
			capability.MediaCamera, // high risk: needs consent
		},
		Remote: &types.RemoteDescriptor{SourceURL: source, Integrity: integrity, Sandbox: sandbox},
	}
}

func bundleServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bundle" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
}

func TestInstallVerifiedBundle(t *testing.T) {
	body := []byte("export default function App() {}")
	srv := bundleServer(t, body)
	defer srv.Close()

	loader, lc, ledger := newLoader(t)
	m := remoteManifest("weather", srv.URL, utils.Checksum(body), false)

	if err := loader.Install(context.Background(), m); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	app, ok := lc.Get("weather")
	if !ok || app.Status != types.StatusInstalled {
		t.Fatalf("expected installed status, got %+v", app)
	}
	if app.Source != types.SourceRemote {
		t.Errorf("expected remote provenance, got %s", app.Source)
	}

	comp, ok := loader.Component("weather")
	if !ok {
		t.Fatal("bundle should be registered")
	}
	b := comp.(*Bundle)
	if b.Mode != Trusted || b.Bridge != nil {
		t.Errorf("expected trusted direct registration, got %+v", b)
	}
	if !bytes.Equal(b.Code, body) {
		t.Error("bundle bytes mismatch")
	}

	// Only the low-risk declared capability is auto-granted.
	if !ledger.Has("weather", capability.MediaAudio) {
		t.Error("low-risk capability should be auto-granted")
	}
	if ledger.Has("weather", capability.MediaCamera) {
		t.Error("high-risk capability must not be auto-granted")
	}
}

func TestInstallSandboxedBundle(t *testing.T) {
	body := []byte("sandboxed code")
	srv := bundleServer(t, body)
	defer srv.Close()

	loader, _, _ := newLoader(t)
	m := remoteManifest("untrusted", srv.URL, "", true)

	if err := loader.Install(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	comp, _ := loader.Component("untrusted")
	b := comp.(*Bundle)
	if b.Mode != Sandboxed {
		t.Errorf("expected sandboxed mode, got %s", b.Mode)
	}
	if len(b.Bridge) == 0 {
		t.Error("sandboxed bundle should carry the pre-approved bridge")
	}
}

func TestIntegrityMismatchAborts(t *testing.T) {
	srv := bundleServer(t, []byte("tampered bytes"))
	defer srv.Close()

	loader, lc, ledger := newLoader(t)
	m := remoteManifest("evil", srv.URL, utils.Checksum([]byte("the real bytes")), false)

	err := loader.Install(context.Background(), m)
	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}

	app, ok := lc.Get("evil")
	if !ok || app.Status != types.StatusError {
		t.Fatalf("expected error status, got %+v", app)
	}
	if app.LastError == "" {
		t.Error("mismatch should be recorded as the app error")
	}
	if _, registered := loader.Component("evil"); registered {
		t.Error("nothing should be registered on integrity failure")
	}
	if ledger.Has("evil", capability.MediaAudio) {
		t.Error("no capabilities should be granted on integrity failure")
	}
}

func TestGzipBundleDecoded(t *testing.T) {
	plain := []byte("gzipped bundle contents")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(plain)
	zw.Close()

	srv := bundleServer(t, buf.Bytes())
	defer srv.Close()

	loader, _, _ := newLoader(t)
	// Integrity is declared over the decoded bytes.
	m := remoteManifest("zipped", srv.URL, utils.Checksum(plain), false)

	if err := loader.Install(context.Background(), m); err != nil {
		t.Fatalf("gzip bundle install failed: %v", err)
	}
	comp, _ := loader.Component("zipped")
	if !bytes.Equal(comp.(*Bundle).Code, plain) {
		t.Error("bundle should be stored decoded")
	}
}

func TestUninstallReleasesEverything(t *testing.T) {
	body := []byte("bundle")
	srv := bundleServer(t, body)
	defer srv.Close()

	loader, lc, ledger := newLoader(t)
	m := remoteManifest("gone", srv.URL, "", false)
	if err := loader.Install(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	loader.Uninstall("gone")

	if _, ok := loader.Component("gone"); ok {
		t.Error("bundle registration should be released")
	}
	if _, ok := lc.Get("gone"); ok {
		t.Error("lifecycle entry should be removed")
	}
	if len(ledger.ForApp("gone")) != 0 {
		t.Error("permission ledger slice should be cleared")
	}
}

func TestCheckForUpdatesIsPureRead(t *testing.T) {
	body := []byte("bundle")
	mux := http.NewServeMux()
	mux.HandleFunc("/bundle", func(w http.ResponseWriter, r *http.Request) { w.Write(body) })
	mux.HandleFunc("/manifest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.AppManifest{ID: "weather", Version: "2.0.0"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	loader, lc, _ := newLoader(t)
	if err := loader.Install(context.Background(), remoteManifest("weather", srv.URL, "", false)); err != nil {
		t.Fatal(err)
	}

	updates := loader.CheckForUpdates(context.Background())
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Installed != "1.0.0" || updates[0].Latest != "2.0.0" {
		t.Errorf("unexpected update info: %+v", updates[0])
	}

	// Nothing installed: version on the entry is untouched.
	app, _ := lc.Get("weather")
	if app.Version != "1.0.0" {
		t.Error("CheckForUpdates must not install anything")
	}
}

func TestDownloadFailureRecordsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	loader, lc, _ := newLoader(t)
	err := loader.Install(context.Background(), remoteManifest("flaky", srv.URL, "", false))
	if err == nil {
		t.Fatal("expected install error")
	}
	app, _ := lc.Get("flaky")
	if app.Status != types.StatusError {
		t.Errorf("expected error status, got %s", app.Status)
	}
}
