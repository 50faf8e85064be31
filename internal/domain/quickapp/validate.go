package quickapp

import (
	"fmt"
	"strings"

	"github.com/lumenshell/platform/internal/domain/capability"
	"github.com/lumenshell/platform/internal/shared/types"
)

const minDescriptionLen = 10

// Validate inspects a parsed definition and returns advisory warnings.
// It never raises errors: everything here is a heuristic the author
// may legitimately ignore.
func Validate(parsed *types.ParsedQuickApp) []string {
	var warnings []string

	if !strings.Contains(parsed.AppSource, "export default") &&
		!strings.Contains(parsed.AppSource, "export function App") &&
		!strings.Contains(parsed.AppSource, "export const App") {
		warnings = append(warnings, "App block has no default export; the runtime will look for a named App export")
	}

	if !strings.Contains(parsed.AppSource, "return") {
		warnings = append(warnings, "App component never returns anything to render")
	}

	if parsed.Description != "" && len([]rune(parsed.Description)) < minDescriptionLen {
		warnings = append(warnings, "description is very short; it is shown in the app catalog")
	}

	combined := combinedSource(parsed)
	if strings.Contains(combined, "fetch(") && !hasCapability(parsed, capability.NetworkHTTP) {
		warnings = append(warnings, fmt.Sprintf("source calls fetch() but %q was not inferred or declared", capability.NetworkHTTP))
	}

	return warnings
}

func hasCapability(parsed *types.ParsedQuickApp, c types.Capability) bool {
	for _, have := range parsed.Inferred {
		if have == c {
			return true
		}
	}
	for _, have := range parsed.Meta.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}
