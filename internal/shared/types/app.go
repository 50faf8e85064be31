package types

import "time"

// Capability names a permission an app must hold before using the
// corresponding platform feature, e.g. "network:http".
type Capability string

// AppStatus represents app lifecycle states
type AppStatus string

const (
	StatusNotInstalled AppStatus = "not-installed"
	StatusInstalling   AppStatus = "installing"
	StatusInstalled    AppStatus = "installed"
	StatusActive       AppStatus = "active"
	StatusSuspended    AppStatus = "suspended"
	StatusUpdating     AppStatus = "updating"
	StatusError        AppStatus = "error"
)

// Provenance records where an installed app came from
type Provenance string

const (
	SourceLocal  Provenance = "local"
	SourceRemote Provenance = "remote"
)

// WindowMode selects how an app panel is displayed
type WindowMode string

const (
	WindowPanel      WindowMode = "panel"
	WindowFullscreen WindowMode = "fullscreen"
	WindowFloating   WindowMode = "floating"
)

// WindowConfig describes default window behavior for an app
type WindowConfig struct {
	Mode      WindowMode `json:"mode"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	X         *int       `json:"x,omitempty"`
	Y         *int       `json:"y,omitempty"`
	Resizable bool       `json:"resizable"`
}

// DockConfig declares dock integration for an app.
// Position -1 means append at the end.
type DockConfig struct {
	Enabled     bool   `json:"enabled"`
	Position    int    `json:"position"`
	BadgeSource string `json:"badge_source,omitempty"`
}

// AIIntegration carries hints handed to the agent layer when the app
// is in context. The agent pipeline itself is outside this platform.
type AIIntegration struct {
	Prompt string `json:"prompt"`
}

// ShortcutEntry binds a key chord to a named action
type ShortcutEntry struct {
	Key    string `json:"key"`
	Action string `json:"action"`
}

// CommandEntry exposes an app operation to the command palette
type CommandEntry struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// Integrations groups the shell touch points an app declares
type Integrations struct {
	Dock      DockConfig      `json:"dock"`
	AI        *AIIntegration  `json:"ai,omitempty"`
	Shortcuts []ShortcutEntry `json:"shortcuts,omitempty"`
	Commands  []CommandEntry  `json:"commands,omitempty"`
}

// RemoteDescriptor points at an externally hosted bundle.
// Integrity is "sha256:<hex>"; empty disables verification.
type RemoteDescriptor struct {
	SourceURL string `json:"source_url"`
	Integrity string `json:"integrity,omitempty"`
	Sandbox   bool   `json:"sandbox"`
}

// EntryCompiledAtRuntime marks a manifest whose component is produced
// by the quick-app compiler instead of loaded from a path.
const EntryCompiledAtRuntime = "@runtime/compiled"

// AppManifest is the immutable declarative description of an app.
// Updates replace the whole value, never mutate in place.
type AppManifest struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Category     string            `json:"category,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Icon         string            `json:"icon"`
	Entry        string            `json:"entry"`
	Window       WindowConfig      `json:"window"`
	Integrations Integrations      `json:"integrations"`
	Capabilities []Capability      `json:"capabilities,omitempty"`
	Remote       *RemoteDescriptor `json:"remote,omitempty"`
}

// InstalledApp wraps a manifest with mutable lifecycle attributes.
// Owned exclusively by the lifecycle manager.
type InstalledApp struct {
	Manifest    AppManifest `json:"manifest"`
	Status      AppStatus   `json:"status"`
	InstalledAt time.Time   `json:"installed_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Version     string      `json:"version"`
	DockOrder   int         `json:"dock_order"`
	Source      Provenance  `json:"source"`
	LastError   string      `json:"last_error,omitempty"`
}

// Snapshot captures shell state recorded when an app opens and
// restored when it closes.
type Snapshot struct {
	Route   string  `json:"route,omitempty"`
	ScrollY float64 `json:"scroll_y,omitempty"`
}

// PermissionGrant is one ledger record. Re-granting updates the record
// in place rather than appending a duplicate.
type PermissionGrant struct {
	AppID      string     `json:"app_id"`
	Capability Capability `json:"capability"`
	Granted    bool       `json:"granted"`
	GrantedAt  time.Time  `json:"granted_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// LifecycleStats summarizes the lifecycle manager state
type LifecycleStats struct {
	TotalApps   int     `json:"total_apps"`
	DockedApps  int     `json:"docked_apps"`
	ActiveAppID *string `json:"active_app_id,omitempty"`
}

// ComponentKind discriminates how a live component was obtained
type ComponentKind string

const (
	KindLocal    ComponentKind = "local"
	KindRemote   ComponentKind = "remote"
	KindQuickApp ComponentKind = "quickapp"
)

// Component is a live, mountable unit resolved by app id.
type Component interface {
	AppID() string
	Kind() ComponentKind
}
