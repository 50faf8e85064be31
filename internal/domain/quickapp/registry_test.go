package quickapp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumenshell/platform/internal/domain/lifecycle"
	"github.com/lumenshell/platform/internal/infrastructure/persist"
	"github.com/lumenshell/platform/internal/shared/types"
)

func newTestRegistry(t *testing.T, dir, compilerScript string) (*Registry, *lifecycle.Manager) {
	t.Helper()
	store, err := persist.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	lc := lifecycle.NewManager(store, nil)
	compiler := NewCompiler(CompilerOptions{Source: compilerScript}, nil)
	runtime := NewRuntime(NewHost(nil), nil)
	return NewRegistry(lc, compiler, runtime, store, nil), lc
}

func TestInstallFromMarkdown(t *testing.T) {
	r, lc := newTestRegistry(t, t.TempDir(), mockTransform)

	install, err := r.InstallFromMarkdown(context.Background(), pomodoroDoc, types.OriginPaste, "")
	if err != nil {
		t.Fatal(err)
	}
	if install.Origin != types.OriginPaste {
		t.Errorf("origin = %q", install.Origin)
	}

	app, ok := lc.Get("pomodoro-timer")
	if !ok {
		t.Fatal("installed quick app missing from lifecycle")
	}
	if app.Status != types.StatusInstalled {
		t.Errorf("status = %q", app.Status)
	}
	if app.Manifest.Entry != types.EntryCompiledAtRuntime {
		t.Errorf("entry = %q", app.Manifest.Entry)
	}

	// dock: true in the front matter lands the app on the dock.
	dock := lc.Dock()
	if len(dock) != 1 || dock[0] != "pomodoro-timer" {
		t.Errorf("dock = %v", dock)
	}
}

func TestReinstallReplacesAndEvicts(t *testing.T) {
	r, _ := newTestRegistry(t, t.TempDir(), mockTransform)
	ctx := context.Background()

	first, err := r.InstallFromMarkdown(ctx, appDoc("Evolving", `export default () => ({ type: "v1" });`), types.OriginFile, "")
	if err != nil {
		t.Fatal(err)
	}
	c, _ := r.GetComponent("evolving")
	if tree := c.Render(nil); tree["type"] != "v1" {
		t.Fatalf("tree = %v", tree)
	}

	second, err := r.InstallFromMarkdown(ctx, appDoc("Evolving", `export default () => ({ type: "v2" });`), types.OriginFile, "")
	if err != nil {
		t.Fatal(err)
	}
	if !second.InstalledAt.Equal(first.InstalledAt) {
		t.Error("reinstall should preserve the original install time")
	}

	c, ok := r.GetComponent("evolving")
	if !ok {
		t.Fatal("component missing after reinstall")
	}
	if tree := c.Render(nil); tree["type"] != "v2" {
		t.Errorf("stale component served after reinstall: %v", tree)
	}
}

func TestCompileErrorAbortsInstall(t *testing.T) {
	failing := `function transform(src) { return { code: "", warnings: [], errors: [{line: 1, column: 1, message: "bad syntax"}] }; }`
	r, lc := newTestRegistry(t, t.TempDir(), failing)

	_, err := r.InstallFromMarkdown(context.Background(), pomodoroDoc, types.OriginPaste, "")
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CompileError, got %v", err)
	}
	if cerr.AppID != "pomodoro-timer" {
		t.Errorf("app id = %q", cerr.AppID)
	}

	// Nothing was persisted or registered.
	if _, ok := r.Get("pomodoro-timer"); ok {
		t.Error("erroring install left a stored installation")
	}
	if _, ok := lc.Get("pomodoro-timer"); ok {
		t.Error("erroring install left a lifecycle entry")
	}
}

func TestParseErrorAbortsInstall(t *testing.T) {
	r, lc := newTestRegistry(t, t.TempDir(), mockTransform)

	_, err := r.InstallFromMarkdown(context.Background(), "no front matter", types.OriginPaste, "")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if len(lc.List()) != 0 {
		t.Error("failed parse must not register anything")
	}
}

func TestUninstall(t *testing.T) {
	r, lc := newTestRegistry(t, t.TempDir(), mockTransform)

	if _, err := r.InstallFromMarkdown(context.Background(), pomodoroDoc, types.OriginPaste, ""); err != nil {
		t.Fatal(err)
	}
	if !r.Uninstall("pomodoro-timer") {
		t.Fatal("uninstall of installed app should succeed")
	}
	if _, ok := r.Get("pomodoro-timer"); ok {
		t.Error("installation still stored")
	}
	if _, ok := lc.Get("pomodoro-timer"); ok {
		t.Error("lifecycle entry still present")
	}
	if len(lc.Dock()) != 0 {
		t.Errorf("dock = %v", lc.Dock())
	}

	// Unknown ids are a no-op.
	if r.Uninstall("never-installed") {
		t.Error("unknown uninstall should report false")
	}
}

func TestRestartRestoresInstallations(t *testing.T) {
	dir := t.TempDir()
	r, _ := newTestRegistry(t, dir, mockTransform)
	if _, err := r.InstallFromMarkdown(context.Background(), pomodoroDoc, types.OriginPaste, ""); err != nil {
		t.Fatal(err)
	}

	// Fresh registry over the same store simulates a restart.
	restarted, lc := newTestRegistry(t, dir, mockTransform)
	restarted.ReloadAll()

	if _, ok := restarted.Get("pomodoro-timer"); !ok {
		t.Fatal("installation not restored")
	}
	if _, ok := lc.Get("pomodoro-timer"); !ok {
		t.Fatal("lifecycle entry not re-registered")
	}

	// The component is synthesized from the persisted artifact.
	c, ok := restarted.GetComponent("pomodoro-timer")
	if !ok {
		t.Fatal("component not synthesized after restart")
	}
	if c.Failed() {
		t.Error("restored component should render")
	}
}

func TestInstallFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pomodoroDoc))
	}))
	defer srv.Close()

	r, _ := newTestRegistry(t, t.TempDir(), mockTransform)
	install, err := r.InstallFromURL(context.Background(), srv.URL+"/app.md")
	if err != nil {
		t.Fatal(err)
	}
	if install.Origin != types.OriginURL {
		t.Errorf("origin = %q", install.Origin)
	}
	if install.Location != srv.URL+"/app.md" {
		t.Errorf("location = %q", install.Location)
	}
}

func TestInstallFromURLFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r, lc := newTestRegistry(t, t.TempDir(), mockTransform)
	if _, err := r.InstallFromURL(context.Background(), srv.URL+"/missing.md"); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(lc.List()) != 0 {
		t.Error("failed fetch must not register anything")
	}
}

func TestComponentProvider(t *testing.T) {
	r, _ := newTestRegistry(t, t.TempDir(), mockTransform)
	if _, err := r.InstallFromMarkdown(context.Background(), pomodoroDoc, types.OriginPaste, ""); err != nil {
		t.Fatal(err)
	}

	component, ok := r.Component("pomodoro-timer")
	if !ok {
		t.Fatal("provider lookup failed")
	}
	if component.Kind() != types.KindQuickApp {
		t.Errorf("kind = %q", component.Kind())
	}
	if _, ok := r.Component("unknown"); ok {
		t.Error("unknown id should not resolve")
	}
}
