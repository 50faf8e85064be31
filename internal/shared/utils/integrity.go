package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DigestPrefix is the only digest algorithm the platform declares.
const DigestPrefix = "sha256:"

// Checksum computes the canonical content digest of a bundle.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return DigestPrefix + hex.EncodeToString(sum[:])
}

// NormalizeDigest canonicalizes a declared digest string. Bare hex is
// accepted as sha256 for compatibility with older manifests.
func NormalizeDigest(declared string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(declared))
	if d == "" {
		return "", fmt.Errorf("empty digest")
	}
	if !strings.HasPrefix(d, DigestPrefix) {
		d = DigestPrefix + d
	}
	hexPart := strings.TrimPrefix(d, DigestPrefix)
	if len(hexPart) != sha256.Size*2 {
		return "", fmt.Errorf("digest %q has wrong length", declared)
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return "", fmt.Errorf("digest %q is not hex: %w", declared, err)
	}
	return d, nil
}

// VerifyChecksum checks downloaded bytes against a declared digest.
// It returns the actual digest alongside the match result so callers
// can report both sides of a mismatch.
func VerifyChecksum(data []byte, declared string) (ok bool, actual string, err error) {
	want, err := NormalizeDigest(declared)
	if err != nil {
		return false, "", err
	}
	actual = Checksum(data)
	return actual == want, actual, nil
}
