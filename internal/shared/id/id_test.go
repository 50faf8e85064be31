package id

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Pomodoro Timer", "pomodoro-timer"},
		{"punctuation runs", "My -- Cool!! App", "my-cool-app"},
		{"leading trailing", "  ~Notes~  ", "notes"},
		{"unicode stripped", "Café Tracker", "caf-tracker"},
		{"empty falls back", "", DefaultSlug},
		{"symbols only falls back", "!!!", DefaultSlug},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slug(tc.in); got != tc.want {
				t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSlugDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if Slug("Pomodoro Timer") != "pomodoro-timer" {
			t.Fatal("slug not deterministic")
		}
	}
}

func TestSlugBounded(t *testing.T) {
	s := Slug(strings.Repeat("very long name ", 20))
	if len(s) > maxSlugLen {
		t.Errorf("slug exceeds bound: %d", len(s))
	}
	if strings.HasSuffix(s, "-") {
		t.Errorf("slug has trailing hyphen: %q", s)
	}
}

func TestPrefixedIDs(t *testing.T) {
	req := NewRequestID().String()
	if !strings.HasPrefix(req, "req_") {
		t.Errorf("request id missing prefix: %s", req)
	}

	inst := NewInstallID().String()
	if !strings.HasPrefix(inst, "inst_") {
		t.Errorf("install id missing prefix: %s", inst)
	}

	if NewInstallID() == NewInstallID() {
		t.Error("install ids should be unique")
	}
}
