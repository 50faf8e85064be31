package quickapp

import (
	"fmt"
	"strings"

	"github.com/lumenshell/platform/internal/shared/types"
)

// ParseError reports a malformed document: bad front-matter, a missing
// required field, or a missing mandatory code block. Always fatal to
// the call that raised it.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "quick app parse error: " + e.Reason
	}
	return fmt.Sprintf("quick app parse error: %s: %s", e.Field, e.Reason)
}

func parseErrorf(field, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CompileError aggregates fatal compiler diagnostics. The compiler
// itself never throws it; the installation registry promotes collected
// diagnostics to this error and aborts the install.
type CompileError struct {
	AppID       string
	Diagnostics []types.CompileDiagnostic
}

func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "quick app %q failed to compile with %d error(s)", e.AppID, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&b, "\n  %d:%d %s", d.Line, d.Column, d.Message)
	}
	return b.String()
}
