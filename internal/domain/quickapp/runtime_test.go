package quickapp

import (
	"context"
	"strings"
	"testing"

	"github.com/lumenshell/platform/internal/shared/types"
)

func compileDoc(t *testing.T, doc string) *types.CompiledQuickApp {
	t.Helper()
	parsed, err := Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	compiled, err := newTestCompiler(t, mockTransform).Compile(context.Background(), parsed)
	if err != nil {
		t.Fatal(err)
	}
	return compiled
}

func appDoc(name, appSource string) string {
	return "---\nname: " + name + "\nicon: Box\n---\n\n```jsx app\n" + appSource + "\n```\n"
}

func TestInstantiateAndRender(t *testing.T) {
	compiled := compileDoc(t, appDoc("Greeter", `
export default function App(props) {
  return { type: "div", label: "hello " + (props.who || "world") };
}`))

	rt := NewRuntime(NewHost(nil), nil)
	component := rt.Instantiate(compiled)
	if component.Failed() {
		t.Fatal("component should not be the fallback")
	}
	if component.AppID() != "greeter" || component.Kind() != types.KindQuickApp {
		t.Errorf("component identity = %q %q", component.AppID(), component.Kind())
	}

	tree := component.Render(map[string]any{"who": "dock"})
	if tree["type"] != "div" || tree["label"] != "hello dock" {
		t.Errorf("tree = %v", tree)
	}
}

func TestInstantiateNamedAppExport(t *testing.T) {
	// No default export: the runtime falls back to the named App export.
	compiled := compileDoc(t, appDoc("Named", `
function App() { return { type: "span" }; }
exports.App = App;`))

	component := NewRuntime(NewHost(nil), nil).Instantiate(compiled)
	if component.Failed() {
		t.Fatal("named App export should instantiate")
	}
	if tree := component.Render(nil); tree["type"] != "span" {
		t.Errorf("tree = %v", tree)
	}
}

func TestInstantiateMissingExport(t *testing.T) {
	compiled := compileDoc(t, appDoc("Exportless", `var unused = 1;`))

	component := NewRuntime(NewHost(nil), nil).Instantiate(compiled)
	if !component.Failed() {
		t.Fatal("expected the fallback component")
	}
	tree := component.Render(nil)
	if tree["type"] != "error" || tree["reload"] != true {
		t.Errorf("fallback tree = %v", tree)
	}
}

func TestInstantiateEvalError(t *testing.T) {
	compiled := compileDoc(t, appDoc("Broken", `throw new Error("top level boom");`))

	component := NewRuntime(NewHost(nil), nil).Instantiate(compiled)
	if !component.Failed() {
		t.Fatal("top-level exception must yield the fallback, never propagate")
	}
	tree := component.Render(nil)
	if msg, _ := tree["message"].(string); !strings.Contains(msg, "top level boom") {
		t.Errorf("fallback message = %v", tree["message"])
	}
}

func TestInstantiateCompileErrorArtifact(t *testing.T) {
	compiled := compileDoc(t, appDoc("Fine", `export default () => ({ type: "ok" });`))
	compiled.Errors = []types.CompileDiagnostic{{Line: 1, Column: 1, Message: "synthetic"}}
	compiled.Code = ""

	component := NewRuntime(NewHost(nil), nil).Instantiate(compiled)
	if !component.Failed() {
		t.Fatal("erroring artifact must yield the fallback")
	}
}

func TestRenderExceptionContained(t *testing.T) {
	compiled := compileDoc(t, appDoc("Thrower", `
export default function App() { throw new Error("render boom"); }`))

	component := NewRuntime(NewHost(nil), nil).Instantiate(compiled)
	if component.Failed() {
		t.Fatal("instantiation itself should succeed")
	}

	for i := 0; i < 2; i++ {
		tree := component.Render(nil)
		if tree["type"] != "error" {
			t.Fatalf("render %d: tree = %v", i, tree)
		}
		if msg, _ := tree["message"].(string); !strings.Contains(msg, "render boom") {
			t.Errorf("render %d: message = %v", i, tree["message"])
		}
	}
}

func TestIconsInjected(t *testing.T) {
	compiled := compileDoc(t, appDoc("Iconic", `
import { Clock } from "lucide-react";
export default () => ({ type: "icon", icon: Clock });`))

	component := NewRuntime(NewHost(nil), nil).Instantiate(compiled)
	if component.Failed() {
		t.Fatal("icon import should be stripped and the symbol injected")
	}
	tree := component.Render(nil)
	icon, ok := tree["icon"].(map[string]any)
	if !ok || icon["icon"] != "Clock" {
		t.Errorf("tree = %v", tree)
	}
}

func TestHostStoragePersistsAcrossRenders(t *testing.T) {
	compiled := compileDoc(t, appDoc("Counter", `
export default function App() {
  const [n, setN] = useAppStorage("n", 0);
  setN(n + 1);
  return { type: "count", value: n };
}`))

	host := NewHost(nil)
	component := NewRuntime(host, nil).Instantiate(compiled)

	first := component.Render(nil)
	second := component.Render(nil)
	if first["value"] != int64(0) || second["value"] != int64(1) {
		t.Errorf("values = %v, %v", first["value"], second["value"])
	}
}

func TestHostStorageScopedPerApp(t *testing.T) {
	host := NewHost(nil)
	host.SetItem("app-a", "key", "a value")
	if got := host.GetItem("app-b", "key", "fallback"); got != "fallback" {
		t.Errorf("cross-app read = %v", got)
	}
	if got := host.GetItem("app-a", "key", nil); got != "a value" {
		t.Errorf("same-app read = %v", got)
	}
}

func TestHostClipboardBridge(t *testing.T) {
	compiled := compileDoc(t, appDoc("Copier", `
export default function App() {
  clipboard.copy("copied text");
  return { type: "ok" };
}`))

	host := NewHost(nil)
	component := NewRuntime(host, nil).Instantiate(compiled)
	component.Render(nil)
	if host.Clipboard() != "copied text" {
		t.Errorf("clipboard = %q", host.Clipboard())
	}
}

func TestStylesheetCarried(t *testing.T) {
	doc := `---
name: Styled
icon: Box
---

` + "```jsx app\nexport default () => ({ type: \"ok\" });\n```" + `

` + "```css\n.styled { padding: 4px; }\n```" + `
`
	compiled := compileDoc(t, doc)
	component := NewRuntime(NewHost(nil), nil).Instantiate(compiled)
	if !strings.Contains(component.Stylesheet(), "padding") {
		t.Errorf("stylesheet = %q", component.Stylesheet())
	}
}
