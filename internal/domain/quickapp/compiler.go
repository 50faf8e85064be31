package quickapp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lumenshell/platform/internal/infrastructure/logging"
	"github.com/lumenshell/platform/internal/infrastructure/monitoring"
	"github.com/lumenshell/platform/internal/shared/types"
)

// CompilerOptions configures the single-file compiler bootstrap.
// Exactly one of Source or SourceURL must be set: Source embeds the
// compiler script directly (tests), SourceURL fetches it lazily on
// first use.
type CompilerOptions struct {
	SourceURL string
	Source    string
	Version   string
}

// Compiler turns parsed quick-app sources into one executable unit.
//
// The underlying single-file compiler script is hosted in an embedded
// JS VM and initialized exactly once per process: concurrent callers
// share the one pending bootstrap, and a bootstrap failure is recorded
// and re-raised to every later caller without retrying.
type Compiler struct {
	opts    CompilerOptions
	http    *resty.Client
	logger  *logging.Logger
	metrics *monitoring.Metrics

	once    sync.Once
	initErr error

	// The VM is not safe for concurrent use; compiles serialize.
	mu        sync.Mutex
	vm        *goja.Runtime
	transform goja.Callable
}

// NewCompiler creates a compiler. Bootstrap is deferred until the
// first Compile call.
func NewCompiler(opts CompilerOptions, logger *logging.Logger) *Compiler {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Version == "" {
		opts.Version = "1"
	}
	return &Compiler{
		opts:   opts,
		http:   resty.New().SetTimeout(60 * time.Second),
		logger: logger,
	}
}

// WithMetrics adds metrics tracking to the compiler.
func (c *Compiler) WithMetrics(m *monitoring.Metrics) *Compiler {
	c.metrics = m
	return c
}

// bootstrap fetches and initializes the compiler script once.
func (c *Compiler) bootstrap(ctx context.Context) error {
	c.once.Do(func() {
		source := c.opts.Source
		if source == "" {
			if c.opts.SourceURL == "" {
				c.initErr = fmt.Errorf("no compiler source configured")
				return
			}
			resp, err := c.http.R().SetContext(ctx).Get(c.opts.SourceURL)
			if err != nil {
				c.initErr = fmt.Errorf("failed to fetch compiler: %w", err)
				return
			}
			if !resp.IsSuccess() {
				c.initErr = fmt.Errorf("compiler fetch returned %s", resp.Status())
				return
			}
			source = string(resp.Body())
		}

		vm := goja.New()
		// The compiler script gets no host surface at all.
		vm.Set("require", goja.Undefined())
		vm.Set("process", goja.Undefined())

		if _, err := vm.RunString(source); err != nil {
			c.initErr = fmt.Errorf("compiler script failed to load: %w", err)
			return
		}
		transform, ok := goja.AssertFunction(vm.Get("transform"))
		if !ok {
			c.initErr = fmt.Errorf("compiler script does not define transform()")
			return
		}

		c.vm = vm
		c.transform = transform
		c.logger.Info("quick app compiler initialized", zap.String("version", c.opts.Version))
	})
	return c.initErr
}

// Compile concatenates the runtime shim with every source block and
// runs the single-file compiler over the combined unit. Warnings and
// errors are collected, never thrown: the artifact is always returned
// (with an empty executable body on error) and the caller decides
// whether errors are fatal.
func (c *Compiler) Compile(ctx context.Context, parsed *types.ParsedQuickApp) (*types.CompiledQuickApp, error) {
	if err := c.bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("compiler bootstrap failed: %w", err)
	}

	start := time.Now()
	combined := stripIconImports(combineUnits(parsed))

	compiled := &types.CompiledQuickApp{
		Parsed:          *parsed,
		Manifest:        DeriveManifest(parsed),
		CompiledAt:      time.Now(),
		CompilerVersion: c.opts.Version,
	}

	c.mu.Lock()
	result, err := c.transform(goja.Undefined(), c.vm.ToValue(combined))
	c.mu.Unlock()

	if err != nil {
		// The compiler script itself blew up; surface it as a single
		// fatal diagnostic rather than an exception.
		compiled.Errors = []types.CompileDiagnostic{{Line: 1, Column: 1, Message: err.Error()}}
	} else {
		obj := result.ToObject(c.vm)
		compiled.Code = stringField(obj, "code")
		compiled.Warnings = diagnosticsField(obj, "warnings")
		compiled.Errors = diagnosticsField(obj, "errors")
	}

	if compiled.HasErrors() {
		compiled.Code = ""
	}

	outcome := "ok"
	if compiled.HasErrors() {
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordCompile(outcome, time.Since(start))
	}
	c.logger.Debug("quick app compiled",
		zap.String("app_id", parsed.ID),
		zap.String("result", outcome),
		zap.Int("warnings", len(compiled.Warnings)),
		zap.Int("errors", len(compiled.Errors)),
	)
	return compiled, nil
}

// combineUnits joins the shim and source blocks into one module body.
// The order matters: helpers and the store must be in scope before the
// main component evaluates.
func combineUnits(parsed *types.ParsedQuickApp) string {
	parts := []string{runtimeShim}
	for _, s := range []string{parsed.HelperSource, parsed.StoreSource, parsed.SettingsSource, parsed.AppSource} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func stringField(obj *goja.Object, name string) string {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// diagnosticsField converts a compiler diagnostic array to typed form.
func diagnosticsField(obj *goja.Object, name string) []types.CompileDiagnostic {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	raw, ok := v.Export().([]any)
	if !ok {
		return nil
	}
	var out []types.CompileDiagnostic
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, types.CompileDiagnostic{
			Line:    toInt(entry["line"]),
			Column:  toInt(entry["column"]),
			Message: fmt.Sprint(entry["message"]),
		})
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
