package quickapp

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/shared/types"
)

// Host is the narrow bridge a quick app may touch: durable per-app
// keyed storage, toast notifications, the shell theme, and the
// clipboard. Nothing else from the process is reachable.
type Host struct {
	mu        sync.Mutex
	storage   map[string]map[string]any // appID -> key -> value
	clipboard string
	theme     string
	logger    *logging.Logger
}

// NewHost creates the shared host bridge.
func NewHost(logger *logging.Logger) *Host {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Host{
		storage: make(map[string]map[string]any),
		theme:   "dark",
		logger:  logger,
	}
}

// GetItem returns the stored value for (appID, key) or the initial.
func (h *Host) GetItem(appID, key string, initial any) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v, ok := h.storage[appID][key]; ok {
		return v
	}
	return initial
}

// SetItem stores a value under the app's namespace.
func (h *Host) SetItem(appID, key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.storage[appID] == nil {
		h.storage[appID] = make(map[string]any)
	}
	h.storage[appID][key] = value
}

// Notify forwards a toast to the shell. The platform only logs it; the
// visual shell subscribes elsewhere.
func (h *Host) Notify(appID, title, body string) {
	h.logger.Info("quick app notification",
		zap.String("app_id", appID),
		zap.String("title", title),
		zap.String("body", body),
	)
}

// Theme returns the current shell theme name.
func (h *Host) Theme() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.theme
}

// SetTheme updates the shell theme observed by apps.
func (h *Host) SetTheme(theme string) {
	h.mu.Lock()
	h.theme = theme
	h.mu.Unlock()
}

// Copy places text on the shared clipboard.
func (h *Host) Copy(appID, text string) {
	h.mu.Lock()
	h.clipboard = text
	h.mu.Unlock()
}

// Clipboard returns the current clipboard text.
func (h *Host) Clipboard() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clipboard
}

// Runtime materializes compiled quick apps as live components.
type Runtime struct {
	host   *Host
	logger *logging.Logger
}

// NewRuntime creates the component runtime.
func NewRuntime(host *Host, logger *logging.Logger) *Runtime {
	if logger == nil {
		logger = logging.NewNop()
	}
	if host == nil {
		host = NewHost(logger)
	}
	return &Runtime{host: host, logger: logger}
}

// Component is a live quick-app component bound to its own isolated
// VM. Render never panics or throws past this boundary: every failure
// mode produces an error tree the shell can display with a reload
// affordance.
type Component struct {
	id         string
	stylesheet string

	// failure marks a fallback component; render is nil in that case.
	failure string

	// The VM is single-threaded; renders serialize.
	mu     sync.Mutex
	vm     *goja.Runtime
	render goja.Callable
}

// AppID implements types.Component.
func (c *Component) AppID() string { return c.id }

// Kind implements types.Component.
func (c *Component) Kind() types.ComponentKind { return types.KindQuickApp }

// Stylesheet returns the document's css block, if any.
func (c *Component) Stylesheet() string { return c.stylesheet }

// Failed reports whether this is the fallback component.
func (c *Component) Failed() bool { return c.failure != "" }

// Render evaluates the component function with the given props and
// returns its UI tree. Exceptions inside the app are contained here.
func (c *Component) Render(props map[string]any) (tree map[string]any) {
	if c.failure != "" {
		return errorTree(c.failure)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			tree = errorTree(fmt.Sprint(r))
		}
	}()

	val, err := c.render(goja.Undefined(), c.vm.ToValue(props))
	if err != nil {
		return errorTree(err.Error())
	}
	if exported, ok := val.Export().(map[string]any); ok {
		return exported
	}
	return map[string]any{"type": "text", "content": val.String()}
}

// errorTree is the contained-failure rendering: the message plus a
// manual reload affordance, shown inside the app's own panel.
func errorTree(message string) map[string]any {
	return map[string]any{
		"type":    "error",
		"message": message,
		"reload":  true,
	}
}

// Instantiate evaluates compiled code and returns a live component.
// Construction never fails past this boundary: any bad input, missing
// export, or evaluation error yields a fallback component that renders
// the failure message.
func (r *Runtime) Instantiate(compiled *types.CompiledQuickApp) *Component {
	appID := compiled.Parsed.ID
	fallback := func(msg string) *Component {
		r.logger.Warn("quick app fell back to error component",
			zap.String("app_id", appID),
			zap.String("reason", msg),
		)
		return &Component{id: appID, stylesheet: compiled.Parsed.Stylesheet, failure: msg}
	}

	if compiled.HasErrors() {
		return fallback((&CompileError{AppID: appID, Diagnostics: compiled.Errors}).Error())
	}
	if compiled.Code == "" {
		return fallback("compiled artifact has no executable body")
	}

	vm := goja.New()
	// No ambient host access: author code sees only its arguments.
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("globalThis", goja.Undefined())
	r.installConsole(vm, appID)

	// Runtime code generation: the compiled unit becomes one wrapped,
	// side-effect-free module expression receiving its dependencies
	// explicitly.
	wrapped := "(function(runtime, icons) {\n'use strict';\n" +
		"var exports = {};\nvar module = { exports: exports };\n" +
		iconPrelude + "\n" +
		compiled.Code + "\n" +
		"return module.exports;\n})"

	val, err := vm.RunString(wrapped)
	if err != nil {
		return fallback(err.Error())
	}
	moduleFn, ok := goja.AssertFunction(val)
	if !ok {
		return fallback("module wrapper did not evaluate to a function")
	}

	exportsVal, err := moduleFn(goja.Undefined(), r.bridgeObject(vm, appID), r.iconObject(vm))
	if err != nil {
		return fallback(err.Error())
	}

	render, ok := resolveExport(vm, exportsVal)
	if !ok {
		return fallback("quick app has no default or App export")
	}
	return &Component{
		id:         appID,
		stylesheet: compiled.Parsed.Stylesheet,
		vm:         vm,
		render:     render,
	}
}

// resolveExport picks the component function: the default export, a
// named App export, or the module value itself when it is callable.
func resolveExport(vm *goja.Runtime, exportsVal goja.Value) (goja.Callable, bool) {
	if fn, ok := goja.AssertFunction(exportsVal); ok {
		return fn, true
	}
	obj := exportsVal.ToObject(vm)
	if obj == nil {
		return nil, false
	}
	for _, name := range []string{"default", "App"} {
		if v := obj.Get(name); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			if fn, ok := goja.AssertFunction(v); ok {
				return fn, true
			}
		}
	}
	return nil, false
}

// bridgeObject exposes the host bridge to one app, scoped by app id.
func (r *Runtime) bridgeObject(vm *goja.Runtime, appID string) *goja.Object {
	obj := vm.NewObject()
	obj.Set("getItem", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		var initial any
		if len(call.Arguments) > 1 {
			initial = call.Argument(1).Export()
		}
		return vm.ToValue(r.host.GetItem(appID, key, initial))
	})
	obj.Set("setItem", func(call goja.FunctionCall) goja.Value {
		r.host.SetItem(appID, call.Argument(0).String(), call.Argument(1).Export())
		return goja.Undefined()
	})
	obj.Set("notify", func(call goja.FunctionCall) goja.Value {
		r.host.Notify(appID, call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	obj.Set("theme", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(r.host.Theme())
	})
	obj.Set("copy", func(call goja.FunctionCall) goja.Value {
		r.host.Copy(appID, call.Argument(0).String())
		return goja.Undefined()
	})
	return obj
}

// iconObject builds the injected icon symbol set.
func (r *Runtime) iconObject(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	for _, name := range iconNames {
		obj.Set(name, map[string]any{"icon": name})
	}
	return obj
}

// installConsole routes app console output into the platform log.
func (r *Runtime) installConsole(vm *goja.Runtime, appID string) {
	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		level := level
		console.Set(level, func(call goja.FunctionCall) goja.Value {
			var parts []string
			for _, arg := range call.Arguments {
				parts = append(parts, arg.String())
			}
			r.logger.Debug("quick app console",
				zap.String("app_id", appID),
				zap.String("level", level),
				zap.String("message", fmt.Sprint(parts)),
			)
			return goja.Undefined()
		})
	}
	vm.Set("console", console)
}
