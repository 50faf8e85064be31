package quickapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// mockTransform stands in for the real single-file compiler: it
// rewrites ESM default exports into CommonJS assignments so the output
// runs directly in the component VM.
const mockTransform = `
function transform(src) {
  return {
    code: src.split("export default").join("exports.default ="),
    warnings: [],
    errors: []
  };
}
`

func newTestCompiler(t *testing.T, script string) *Compiler {
	t.Helper()
	return NewCompiler(CompilerOptions{Source: script, Version: "test"}, nil)
}

func TestCompilePomodoro(t *testing.T) {
	c := newTestCompiler(t, mockTransform)
	parsed, err := Parse(pomodoroDoc)
	if err != nil {
		t.Fatal(err)
	}

	compiled, err := c.Compile(context.Background(), parsed)
	if err != nil {
		t.Fatal(err)
	}
	if compiled.HasErrors() {
		t.Fatalf("unexpected compile errors: %v", compiled.Errors)
	}
	if !strings.Contains(compiled.Code, "exports.default =") {
		t.Error("transform output not applied")
	}
	if !strings.Contains(compiled.Code, "useAppStorage") {
		t.Error("runtime shim not prepended")
	}
	if compiled.CompilerVersion != "test" {
		t.Errorf("compiler version = %q", compiled.CompilerVersion)
	}
	if compiled.Manifest.ID != "pomodoro-timer" {
		t.Errorf("manifest id = %q", compiled.Manifest.ID)
	}
}

func TestCompileCollectsDiagnostics(t *testing.T) {
	script := `
function transform(src) {
  return {
    code: "",
    warnings: [{line: 2, column: 1, message: "unused variable"}],
    errors: [{line: 5, column: 3, message: "unexpected token"}]
  };
}
`
	c := newTestCompiler(t, script)
	parsed, err := Parse(pomodoroDoc)
	if err != nil {
		t.Fatal(err)
	}

	compiled, err := c.Compile(context.Background(), parsed)
	if err != nil {
		t.Fatalf("diagnostics must be collected, not raised: %v", err)
	}
	if !compiled.HasErrors() {
		t.Fatal("expected fatal diagnostics")
	}
	if compiled.Errors[0].Line != 5 || compiled.Errors[0].Column != 3 {
		t.Errorf("error position = %+v", compiled.Errors[0])
	}
	if len(compiled.Warnings) != 1 || compiled.Warnings[0].Message != "unused variable" {
		t.Errorf("warnings = %+v", compiled.Warnings)
	}
	if compiled.Code != "" {
		t.Error("erroring compile must not carry an executable body")
	}
}

func TestCompileTransformException(t *testing.T) {
	c := newTestCompiler(t, `function transform(src) { throw new Error("compiler exploded"); }`)
	parsed, err := Parse(pomodoroDoc)
	if err != nil {
		t.Fatal(err)
	}

	compiled, err := c.Compile(context.Background(), parsed)
	if err != nil {
		t.Fatalf("exception must become a diagnostic: %v", err)
	}
	if !compiled.HasErrors() {
		t.Fatal("expected a fatal diagnostic")
	}
	if !strings.Contains(compiled.Errors[0].Message, "compiler exploded") {
		t.Errorf("diagnostic = %+v", compiled.Errors[0])
	}
}

func TestCompileFetchesScriptOnce(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(mockTransform))
	}))
	defer srv.Close()

	c := NewCompiler(CompilerOptions{SourceURL: srv.URL}, nil)
	parsed, err := Parse(pomodoroDoc)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := c.Compile(context.Background(), parsed); err != nil {
			t.Fatal(err)
		}
	}
	if hits != 1 {
		t.Errorf("compiler script fetched %d times, want 1", hits)
	}
}

func TestCompileBootstrapFailureMemoized(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewCompiler(CompilerOptions{SourceURL: srv.URL}, nil)
	parsed, err := Parse(pomodoroDoc)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Compile(context.Background(), parsed); err == nil {
		t.Fatal("expected bootstrap failure")
	}
	// The failure is remembered; later calls re-raise without retrying.
	if _, err := c.Compile(context.Background(), parsed); err == nil {
		t.Fatal("expected memoized bootstrap failure")
	}
	if hits != 1 {
		t.Errorf("failed bootstrap fetched %d times, want 1", hits)
	}
}

func TestCompileScriptWithoutTransform(t *testing.T) {
	c := newTestCompiler(t, `var notATransform = 1;`)
	parsed, err := Parse(pomodoroDoc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Compile(context.Background(), parsed); err == nil {
		t.Fatal("script without transform() must fail bootstrap")
	}
}
