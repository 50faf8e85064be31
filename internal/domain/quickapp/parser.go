// Package quickapp implements the Quick App pipeline: parsing one
// self-contained document into a typed app definition, compiling it
// in-process with no build server, and instantiating it as a live,
// isolated component.
package quickapp

import (
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/lumenshell/platform/internal/shared/id"
	"github.com/lumenshell/platform/internal/shared/types"
)

const (
	maxDescriptionLen = 280

	defaultCategory = "utilities"
	defaultVersion  = "0.1.0"
)

// markdownParser is initialized once and shared: the configuration
// never changes and goldmark parsers are safe to reuse, with per-call
// state created by Parse(reader).
var (
	markdownParser goldmark.Markdown
	markdownOnce   sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// frontMatter mirrors the declared header block. Decoding is strict:
// unrecognized keys or shapes fail the parse.
type frontMatter struct {
	Name         string    `yaml:"name"`
	Icon         string    `yaml:"icon"`
	Category     string    `yaml:"category"`
	Tags         []string  `yaml:"tags"`
	Version      string    `yaml:"version"`
	Dock         any       `yaml:"dock"`
	Window       *fmWindow `yaml:"window"`
	AI           *fmAI     `yaml:"ai"`
	Capabilities []string  `yaml:"capabilities"`
}

type fmWindow struct {
	Mode      string `yaml:"mode"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable *bool  `yaml:"resizable"`
}

type fmAI struct {
	Prompt string `yaml:"prompt"`
}

// Parse turns one Quick App document into a structured definition.
// Parsing is deterministic: identical input yields an identical id,
// description, and inferred capability set.
func Parse(document string) (*types.ParsedQuickApp, error) {
	fmText, body, err := splitFrontMatter(document)
	if err != nil {
		return nil, err
	}

	var fm frontMatter
	if err := yaml.UnmarshalWithOptions([]byte(fmText), &fm, yaml.Strict()); err != nil {
		return nil, parseErrorf("front-matter", "%v", err)
	}
	if strings.TrimSpace(fm.Name) == "" {
		return nil, parseErrorf("front-matter", "required field %q is missing", "name")
	}
	if strings.TrimSpace(fm.Icon) == "" {
		return nil, parseErrorf("front-matter", "required field %q is missing", "icon")
	}

	dock, err := decodeDock(fm.Dock)
	if err != nil {
		return nil, err
	}

	meta := types.QuickAppMeta{
		Name:     strings.TrimSpace(fm.Name),
		Icon:     strings.TrimSpace(fm.Icon),
		Category: fm.Category,
		Tags:     fm.Tags,
		Version:  fm.Version,
		Dock:     dock,
	}
	if meta.Category == "" {
		meta.Category = defaultCategory
	}
	if meta.Version == "" {
		meta.Version = defaultVersion
	}
	if fm.AI != nil && fm.AI.Prompt != "" {
		meta.AI = &types.AIIntegration{Prompt: fm.AI.Prompt}
	}
	for _, c := range fm.Capabilities {
		meta.Capabilities = append(meta.Capabilities, types.Capability(c))
	}

	parsed := &types.ParsedQuickApp{
		ID:   id.Slug(meta.Name),
		Meta: meta,
	}
	if err := extractBody(body, parsed); err != nil {
		return nil, err
	}
	if parsed.AppSource == "" {
		return nil, parseErrorf("source", "missing mandatory %q code block", "App")
	}

	parsed.Inferred = inferCapabilities(combinedSource(parsed))
	applyWindow(fm.Window, parsed)
	return parsed, nil
}

// splitFrontMatter separates the --- delimited header from the body.
func splitFrontMatter(document string) (header, body string, err error) {
	lines := strings.Split(strings.ReplaceAll(document, "\r\n", "\n"), "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return "", "", parseErrorf("front-matter", "document must start with a --- block")
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[start+1:i], "\n"),
				strings.Join(lines[i+1:], "\n"), nil
		}
	}
	return "", "", parseErrorf("front-matter", "unterminated --- block")
}

// decodeDock normalizes the dock directive: absent, boolean, or an
// integer position. Anything else is a parse error.
func decodeDock(v any) (types.DockConfig, error) {
	switch d := v.(type) {
	case nil:
		return types.DockConfig{Position: -1}, nil
	case bool:
		return types.DockConfig{Enabled: d, Position: -1}, nil
	case int:
		return types.DockConfig{Enabled: true, Position: d}, nil
	case int64:
		return types.DockConfig{Enabled: true, Position: int(d)}, nil
	case uint64:
		return types.DockConfig{Enabled: true, Position: int(d)}, nil
	case float64:
		return types.DockConfig{Enabled: true, Position: int(d)}, nil
	default:
		return types.DockConfig{}, parseErrorf("front-matter", "dock must be a boolean or an integer position, got %T", v)
	}
}

// extractBody walks the document AST collecting the description, the
// tagged code blocks, and the Shortcuts/Commands tables.
func extractBody(body string, parsed *types.ParsedQuickApp) error {
	source := []byte(body)
	doc := getMarkdownParser().Parser().Parse(text.NewReader(source))

	var section string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			section = strings.ToLower(strings.TrimSpace(nodeText(node, source)))

		case *ast.Paragraph:
			// Headings and tables are skipped, not terminal: the first
			// prose paragraph anywhere in the body is the description.
			if parsed.Description == "" {
				parsed.Description = truncate(nodeText(node, source), maxDescriptionLen)
			}

		case *ast.FencedCodeBlock:
			if err := collectCodeBlock(node, source, parsed); err != nil {
				return err
			}

		case *east.Table:
			switch section {
			case "shortcuts":
				for _, row := range tableRows(node, source) {
					if len(row) >= 2 {
						parsed.Shortcuts = append(parsed.Shortcuts, types.ShortcutEntry{Key: row[0], Action: row[1]})
					}
				}
			case "commands":
				for _, row := range tableRows(node, source) {
					if len(row) >= 2 {
						parsed.Commands = append(parsed.Commands, types.CommandEntry{Command: row[0], Description: row[1]})
					}
				}
			}
		}
	}
	return nil
}

// collectCodeBlock routes one fenced block by its logical tag. The
// fence info line is "<language> [tag]"; tags are case-insensitive.
func collectCodeBlock(node *ast.FencedCodeBlock, source []byte, parsed *types.ParsedQuickApp) error {
	var lang, tag string
	if node.Info != nil {
		fields := strings.Fields(string(node.Info.Segment.Value(source)))
		if len(fields) > 0 {
			lang = strings.ToLower(fields[0])
		}
		if len(fields) > 1 {
			tag = strings.ToLower(fields[1])
		}
	}

	content := blockText(node, source)
	switch {
	case tag == "app":
		if parsed.AppSource != "" {
			return parseErrorf("source", "duplicate %q code block", "App")
		}
		parsed.AppSource = content
	case tag == "helpers":
		parsed.HelperSource = content
	case tag == "store":
		parsed.StoreSource = content
	case tag == "settings":
		parsed.SettingsSource = content
	case lang == "css":
		parsed.Stylesheet = content
	}
	// Untagged, unrecognized blocks are documentation; they are left
	// alone rather than failing the parse.
	return nil
}

// combinedSource concatenates every extracted source block for
// capability inference.
func combinedSource(parsed *types.ParsedQuickApp) string {
	return strings.Join([]string{
		parsed.HelperSource,
		parsed.StoreSource,
		parsed.SettingsSource,
		parsed.AppSource,
	}, "\n")
}

// applyWindow resolves the optional window block onto the parsed meta
// via manifest derivation defaults. Values live on the manifest, not
// the parse result, so this only validates the mode.
func applyWindow(w *fmWindow, parsed *types.ParsedQuickApp) {
	if w == nil {
		return
	}
	parsed.Meta.Window = &types.WindowConfig{
		Mode:      types.WindowMode(w.Mode),
		Width:     w.Width,
		Height:    w.Height,
		Resizable: w.Resizable == nil || *w.Resizable,
	}
}

// blockText joins the raw lines of a fenced code block.
func blockText(node *ast.FencedCodeBlock, source []byte) string {
	var b strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// nodeText collects the raw text content beneath a node.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(source))
				if t.SoftLineBreak() {
					b.WriteByte(' ')
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// tableRows extracts cell text per body row, skipping the header.
func tableRows(table *east.Table, source []byte) [][]string {
	var rows [][]string
	for r := table.FirstChild(); r != nil; r = r.NextSibling() {
		if _, isHeader := r.(*east.TableHeader); isHeader {
			continue
		}
		row, ok := r.(*east.TableRow)
		if !ok {
			continue
		}
		var cells []string
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, nodeText(c, source))
		}
		rows = append(rows, cells)
	}
	return rows
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
