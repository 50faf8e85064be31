package quickapp

import "github.com/lumenshell/platform/internal/shared/types"

// Window defaults applied when the front-matter stays silent.
const (
	defaultWindowWidth  = 480
	defaultWindowHeight = 600
)

// DeriveManifest maps a parsed definition onto an app manifest. The
// mapping is deterministic: the same parse result always yields the
// same manifest. The capability list is the union of inferred and
// explicitly declared capabilities.
func DeriveManifest(parsed *types.ParsedQuickApp) types.AppManifest {
	window := types.WindowConfig{
		Mode:      types.WindowPanel,
		Width:     defaultWindowWidth,
		Height:    defaultWindowHeight,
		Resizable: true,
	}
	if w := parsed.Meta.Window; w != nil {
		switch w.Mode {
		case types.WindowPanel, types.WindowFullscreen, types.WindowFloating:
			window.Mode = w.Mode
		}
		if w.Width > 0 {
			window.Width = w.Width
		}
		if w.Height > 0 {
			window.Height = w.Height
		}
		window.Resizable = w.Resizable
	}

	return types.AppManifest{
		ID:          parsed.ID,
		Name:        parsed.Meta.Name,
		Version:     parsed.Meta.Version,
		Description: parsed.Description,
		Category:    parsed.Meta.Category,
		Keywords:    parsed.Meta.Tags,
		Icon:        parsed.Meta.Icon,
		Entry:       types.EntryCompiledAtRuntime,
		Window:      window,
		Integrations: types.Integrations{
			Dock:      parsed.Meta.Dock,
			AI:        parsed.Meta.AI,
			Shortcuts: parsed.Shortcuts,
			Commands:  parsed.Commands,
		},
		Capabilities: unionCapabilities(parsed.Inferred, parsed.Meta.Capabilities),
	}
}
