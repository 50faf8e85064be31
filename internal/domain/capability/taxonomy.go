// Package capability implements the platform permission model: a fixed
// taxonomy of named capabilities and a per-app grant ledger.
package capability

import "github.com/lumenshell/platform/internal/shared/types"

// Domain groups related capabilities.
type Domain string

const (
	DomainNetwork       Domain = "network"
	DomainStorage       Domain = "storage"
	DomainAI            Domain = "ai"
	DomainNotifications Domain = "notifications"
	DomainMedia         Domain = "media"
	DomainSystem        Domain = "system"
)

// Risk tiers drive consent UI and the remote loader's auto-grant cut.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Capability tags. The taxonomy is fixed; apps cannot invent new ones.
const (
	NetworkHTTP      types.Capability = "network:http"
	NetworkWebSocket types.Capability = "network:websocket"

	StorageLocal      types.Capability = "storage:local"
	StorageStructured types.Capability = "storage:structured"

	AIAgent types.Capability = "ai:agent"

	NotifyToast  types.Capability = "notifications:toast"
	NotifySystem types.Capability = "notifications:system"

	MediaCamera     types.Capability = "media:camera"
	MediaMicrophone types.Capability = "media:microphone"
	MediaAudio      types.Capability = "media:audio"

	SystemClipboard  types.Capability = "system:clipboard"
	SystemFullscreen types.Capability = "system:fullscreen"
	SystemGeolocate  types.Capability = "system:geolocation"
)

// Definition annotates one capability for consent UI.
type Definition struct {
	Capability  types.Capability `json:"capability"`
	Domain      Domain           `json:"domain"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Risk        Risk             `json:"risk"`
}

// taxonomy order is fixed so enumerations stay deterministic.
var taxonomy = []Definition{
	{NetworkHTTP, DomainNetwork, "Network requests", "Fetch data from external servers", RiskMedium},
	{NetworkWebSocket, DomainNetwork, "Live connections", "Open persistent connections to external servers", RiskMedium},
	{StorageLocal, DomainStorage, "Local storage", "Store small key/value data on this device", RiskLow},
	{StorageStructured, DomainStorage, "Structured storage", "Store structured records on this device", RiskLow},
	{AIAgent, DomainAI, "AI agent", "Send requests to the AI agent on your behalf", RiskHigh},
	{NotifyToast, DomainNotifications, "In-app toasts", "Show transient notifications inside the shell", RiskLow},
	{NotifySystem, DomainNotifications, "System notifications", "Show operating system notifications", RiskMedium},
	{MediaCamera, DomainMedia, "Camera", "Capture video from the camera", RiskHigh},
	{MediaMicrophone, DomainMedia, "Microphone", "Capture audio from the microphone", RiskHigh},
	{MediaAudio, DomainMedia, "Audio playback", "Play sound", RiskLow},
	{SystemClipboard, DomainSystem, "Clipboard", "Read and write the clipboard", RiskMedium},
	{SystemFullscreen, DomainSystem, "Fullscreen", "Enter fullscreen mode", RiskLow},
	{SystemGeolocate, DomainSystem, "Location", "Read the device location", RiskHigh},
}

// alwaysGranted is the fixed subset of low-risk capabilities that
// bypass the ledger entirely.
var alwaysGranted = map[types.Capability]bool{
	StorageLocal:      true,
	StorageStructured: true,
	NotifyToast:       true,
	SystemFullscreen:  true,
}

var byCapability = func() map[types.Capability]Definition {
	m := make(map[types.Capability]Definition, len(taxonomy))
	for _, d := range taxonomy {
		m[d.Capability] = d
	}
	return m
}()

// All returns the full taxonomy in fixed order.
func All() []Definition {
	out := make([]Definition, len(taxonomy))
	copy(out, taxonomy)
	return out
}

// Lookup returns the definition for a capability tag.
func Lookup(c types.Capability) (Definition, bool) {
	d, ok := byCapability[c]
	return d, ok
}

// ByDomain returns the taxonomy slice for one domain, in fixed order.
func ByDomain(domain Domain) []Definition {
	var out []Definition
	for _, d := range taxonomy {
		if d.Domain == domain {
			out = append(out, d)
		}
	}
	return out
}

// IsAlwaysGranted reports whether the capability bypasses the ledger.
func IsAlwaysGranted(c types.Capability) bool {
	return alwaysGranted[c]
}

// RiskOf returns the risk tier for a capability. Unknown capabilities
// are treated as high risk.
func RiskOf(c types.Capability) Risk {
	if d, ok := byCapability[c]; ok {
		return d.Risk
	}
	return RiskHigh
}
