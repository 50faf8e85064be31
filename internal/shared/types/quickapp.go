package types

import "time"

// InstallOrigin records how a quick app document reached the platform
type InstallOrigin string

const (
	OriginFile  InstallOrigin = "file"
	OriginURL   InstallOrigin = "url"
	OriginPaste InstallOrigin = "paste"
)

// QuickAppMeta holds the declared front-matter fields with defaults
// applied.
type QuickAppMeta struct {
	Name         string         `json:"name"`
	Icon         string         `json:"icon"`
	Category     string         `json:"category"`
	Tags         []string       `json:"tags,omitempty"`
	Version      string         `json:"version"`
	Dock         DockConfig     `json:"dock"`
	Window       *WindowConfig  `json:"window,omitempty"`
	AI           *AIIntegration `json:"ai,omitempty"`
	Capabilities []Capability   `json:"capabilities,omitempty"`
}

// ParsedQuickApp is the structured result of parsing one source
// document. Immutable once produced.
type ParsedQuickApp struct {
	ID          string       `json:"id"`
	Meta        QuickAppMeta `json:"meta"`
	Description string       `json:"description,omitempty"`

	// Source blocks. AppSource is mandatory, the rest optional.
	AppSource      string `json:"app_source"`
	HelperSource   string `json:"helper_source,omitempty"`
	StoreSource    string `json:"store_source,omitempty"`
	SettingsSource string `json:"settings_source,omitempty"`
	Stylesheet     string `json:"stylesheet,omitempty"`

	Shortcuts []ShortcutEntry `json:"shortcuts,omitempty"`
	Commands  []CommandEntry  `json:"commands,omitempty"`

	// Inferred is the superset capability inference over all source
	// blocks; false positives are acceptable.
	Inferred []Capability `json:"inferred,omitempty"`
}

// CompileDiagnostic is one compiler warning or error
type CompileDiagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// CompiledQuickApp pairs a parsed document with its executable form.
// The artifact is returned even when Errors is non-empty; the caller
// decides whether errors are fatal.
type CompiledQuickApp struct {
	Parsed          ParsedQuickApp      `json:"parsed"`
	Code            string              `json:"code"`
	Manifest        AppManifest         `json:"manifest"`
	CompiledAt      time.Time           `json:"compiled_at"`
	CompilerVersion string              `json:"compiler_version"`
	Warnings        []CompileDiagnostic `json:"warnings,omitempty"`
	Errors          []CompileDiagnostic `json:"errors,omitempty"`
}

// HasErrors reports whether compilation produced fatal diagnostics
func (c *CompiledQuickApp) HasErrors() bool {
	return len(c.Errors) > 0
}

// QuickAppInstallation is the only quick-app entity persisted across
// sessions; live components are rebuilt from it on demand.
type QuickAppInstallation struct {
	Compiled    CompiledQuickApp `json:"compiled"`
	InstalledAt time.Time        `json:"installed_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Origin      InstallOrigin    `json:"origin"`
	Location    string           `json:"location,omitempty"`
}
