package quickapp

import (
	"regexp"
	"strings"
)

// runtimeShim is prepended to every compiled unit. It adapts the small
// host bridge (injected as the `runtime` argument at evaluation) into
// the helper hooks quick-app authors write against: durable per-app
// keyed storage, a notification bridge, a theme observer, and a
// clipboard helper.
const runtimeShim = `
const useAppStorage = (key, initial) => [runtime.getItem(key, initial), (value) => runtime.setItem(key, value)];
const notify = (title, body) => runtime.notify(title, body);
const useTheme = () => runtime.theme();
const clipboard = { copy: (text) => runtime.copy(text) };
`

// iconLibrary is the one dependency the runtime provides globally.
// Import statements referencing it are stripped before compilation:
// no module resolution exists at this layer, the symbols are injected
// instead. All other imports are left as author error surface.
const iconLibrary = "lucide-react"

var iconImportPattern = regexp.MustCompile(
	`(?m)^[ \t]*import\s+[^;\n]*?from\s+['"]` + iconLibrary + `['"];?[ \t]*\n?`)

// stripIconImports removes icon-library imports from author source.
func stripIconImports(source string) string {
	return iconImportPattern.ReplaceAllString(source, "")
}

// iconNames is the fixed allow-list destructured into scope before a
// quick app evaluates, so author code can reference icons by name.
var iconNames = []string{
	"Activity", "AlarmClock", "Archive", "ArrowDown", "ArrowLeft", "ArrowRight", "ArrowUp",
	"Bell", "Bookmark", "Box", "Calculator", "Calendar", "Camera", "Check", "CheckCircle",
	"ChevronDown", "ChevronLeft", "ChevronRight", "ChevronUp", "Circle", "Clipboard",
	"Clock", "Cloud", "Code", "Copy", "Database", "Download", "Edit", "ExternalLink",
	"Eye", "File", "FileText", "Filter", "Flag", "Folder", "Globe", "Grid", "Heart",
	"Home", "Image", "Inbox", "Info", "Key", "Layers", "Link", "List", "Lock", "Mail",
	"Map", "MapPin", "Maximize", "Menu", "MessageCircle", "Mic", "Minimize", "Minus",
	"Moon", "Music", "Package", "Paperclip", "Pause", "Pencil", "Phone", "Play", "Plus",
	"Power", "RefreshCw", "Save", "Search", "Send", "Settings", "Share", "Shield",
	"ShoppingCart", "Square", "Star", "Sun", "Tag", "Terminal", "Timer", "Trash",
	"TrendingUp", "Upload", "User", "Users", "Video", "Volume2", "Wifi", "X", "Zap",
}

// iconPrelude is the destructuring statement evaluated ahead of author
// code inside the module wrapper.
var iconPrelude = "const {" + strings.Join(iconNames, ", ") + "} = icons;"
