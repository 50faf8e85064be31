// Package id provides centralized ID generation for the platform.
//
// Two schemes coexist:
//   - ULIDs with type prefixes for request/install tracking (sortable,
//     unique, debuggable in logs)
//   - deterministic slugs derived from declared quick-app names, so the
//     same document always installs under the same id
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID identifies an API request
type RequestID string

// InstallID identifies one installation operation
type InstallID string

const (
	RequestPrefix = "req"
	InstallPrefix = "inst"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewInstallID generates a new installation ID
func NewInstallID() InstallID {
	return InstallID(Default().GenerateWithPrefix(InstallPrefix))
}

func (id RequestID) String() string { return string(id) }
func (id InstallID) String() string { return string(id) }

// Slug limits and fallback for deterministic quick-app ids.
const (
	maxSlugLen = 48
	// DefaultSlug is used when slugging a name leaves nothing.
	DefaultSlug = "quick-app"
)

// Slug derives a stable id from a declared name: lower-cased,
// non-alphanumeric runs collapsed to single hyphens, trimmed, bounded.
// Identical names always produce identical slugs.
func Slug(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return DefaultSlug
	}
	return s
}
