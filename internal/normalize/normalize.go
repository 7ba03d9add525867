// Package normalize provides utilities for normalizing user-supplied and corpus text.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// arabicVariants maps Arabic code points that are visually identical to their
// Persian counterparts. Corpus files mix both, so folding is needed for matching.
var arabicVariants = strings.NewReplacer(
	"ي", "ی", // ي -> ی
	"ى", "ی", // ى -> ی
	"ك", "ک", // ك -> ک
	"ة", "ه", // ة -> ه
)

// Email returns the canonical form of an email address: trimmed and lower-cased.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Text trims surrounding whitespace and applies NFC so equal strings compare equal.
func Text(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// FoldKey returns a case- and variant-insensitive key for uniqueness checks.
// Two display names with the same key are considered the same name.
func FoldKey(raw string) string {
	s := Text(raw)
	s = arabicVariants.Replace(s)
	s = collapseSpace(s)
	return cases.Fold().String(s)
}

// SearchText prepares corpus or query text for full-text matching.
// Diacritics (harakat) are dropped because readers rarely type them.
func SearchText(raw string) string {
	s := norm.NFC.String(raw)
	s = arabicVariants.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) || r == 'ـ' { // tatweel
			return -1
		}
		return r
	}, s)
	return collapseSpace(s)
}

// Truncate trims s and cuts it to at most maxRunes runes.
func Truncate(s string, maxRunes int) string {
	s = Text(s)
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// RuneLen returns the number of runes in the trimmed, normalized form of s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(Text(s))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
