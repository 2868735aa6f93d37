// Package fingerprint provides stable content hashes used to pin artifacts
// (schemas, models) to each other.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Fingerprint verification errors.
var (
	ErrNoHashFound  = errors.New("no hash found")
	ErrHashMismatch = errors.New("hash mismatch")
)

// separator never appears in field names or vocabulary labels read from YAML.
const separator = "\x1f"

// Sum computes the SHA-256 of the given parts joined in order.
func Sum(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, separator)))

	return hex.EncodeToString(hash[:])
}

// Short returns the first 12 hex characters of a hash for display.
func Short(hash string) string {
	if len(hash) <= 12 {
		return hash
	}

	return hash[:12]
}

// Verify checks a pinned hash against a calculated one.
// Comparison ignores case and surrounding whitespace.
func Verify(pinned, calculated string) error {
	pinned = strings.ToLower(strings.TrimSpace(pinned))
	if pinned == "" {
		return ErrNoHashFound
	}

	if pinned != strings.ToLower(calculated) {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, Short(pinned), Short(calculated))
	}

	return nil
}
