package quickapp

import (
	"strings"

	"github.com/lumenshell/platform/internal/domain/capability"
	"github.com/lumenshell/platform/internal/shared/types"
)

// detection maps one capability to the source patterns that imply it.
// Matching is superset inference: a false positive costs an extra
// consent prompt, a false negative a broken feature, so patterns lean
// broad.
type detection struct {
	cap      types.Capability
	patterns []string
}

// detections is ordered so the inferred set is deterministic.
var detections = []detection{
	{capability.NetworkHTTP, []string{"fetch(", "axios.", "XMLHttpRequest", "http://", "https://"}},
	{capability.NetworkWebSocket, []string{"new WebSocket", "EventSource("}},
	{capability.StorageLocal, []string{"localStorage", "useAppStorage"}},
	{capability.StorageStructured, []string{"indexedDB", "IDBDatabase"}},
	{capability.AIAgent, []string{"useAgent", "agent.ask", "ai.complete"}},
	{capability.NotifyToast, []string{"notify(", "toast("}},
	{capability.NotifySystem, []string{"new Notification"}},
	{capability.MediaCamera, []string{"getUserMedia", "ImageCapture"}},
	{capability.MediaMicrophone, []string{"getUserMedia", "MediaRecorder"}},
	{capability.MediaAudio, []string{"new Audio", "AudioContext"}},
	{capability.SystemClipboard, []string{"clipboard.copy", "navigator.clipboard"}},
	{capability.SystemFullscreen, []string{"requestFullscreen"}},
	{capability.SystemGeolocate, []string{"geolocation"}},
}

// inferCapabilities scans the combined source text and returns every
// capability with at least one matching pattern, in taxonomy order.
func inferCapabilities(source string) []types.Capability {
	var out []types.Capability
	for _, d := range detections {
		for _, p := range d.patterns {
			if strings.Contains(source, p) {
				out = append(out, d.cap)
				break
			}
		}
	}
	return out
}

// unionCapabilities merges inferred and declared capabilities,
// preserving inferred order and deduplicating. The final set is never
// a subset of either input.
func unionCapabilities(inferred, declared []types.Capability) []types.Capability {
	seen := make(map[types.Capability]bool, len(inferred)+len(declared))
	out := make([]types.Capability, 0, len(inferred)+len(declared))
	for _, c := range inferred {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range declared {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
