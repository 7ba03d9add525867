// Package id generates prefixed, URL-safe identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the entities that carry generated ids.
const (
	PrefixUser = "user"
	PrefixPost = "post"
)

// nanoidLength is the default NanoID length.
const nanoidLength = 21

// Generate creates a prefixed unique ID using NanoID,
// e.g. "post-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Valid reports whether s looks like an id produced by Generate with prefix.
// It checks shape only; existence is the store's concern.
func Valid(prefix, s string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"-")
	if !ok || len(rest) != nanoidLength {
		return false
	}
	for _, r := range rest {
		if !isNanoidRune(r) {
			return false
		}
	}
	return true
}

func isNanoidRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '-'
}
