// Package vector derives the four-tier search text for a content record.
//
// The derivation is a pure function of the record's metadata fields: the same
// input always yields the same tiers, byte for byte. Tiers are written in the
// same transaction as the record itself so the index never lags the row.
package vector

import (
	"strings"
	"unicode"
)

// Fields carries the metadata a search vector is derived from.
// It mirrors the searchable subset of a content record without importing it,
// so the catalog layer can depend on this package and not the reverse.
type Fields struct {
	Name         string
	Description  string
	ParentDevice string
	Category     string
	Subcategory  string
	Tags         []string
	Creator      string
}

// Vector is the derived search text, one string per weight tier.
//
// Tier A (name) carries the highest match weight, D (creator) the lowest.
type Vector struct {
	A string // name
	B string // description + parent device
	C string // category + subcategory + tags
	D string // creator
}

// Build derives the search vector from the given fields.
func Build(f Fields) Vector {
	return Vector{
		A: Normalize(f.Name),
		B: joinNormalized(f.Description, f.ParentDevice),
		C: joinNormalized(append([]string{f.Category, f.Subcategory}, f.Tags...)...),
		D: Normalize(f.Creator),
	}
}

// Normalize lowercases s, splits punctuation and camelCase boundaries into
// separate tokens, and collapses whitespace. "FM-4 BrightLead" becomes
// "fm 4 bright lead".
func Normalize(s string) string {
	return strings.Join(Tokenize(s), " ")
}

// Tokenize splits s into normalized lowercase tokens.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r):
			// Break lower→Upper transitions so camelCase names match their words.
			if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
				flush()
			}
			cur.WriteRune(unicode.ToLower(r))
		case unicode.IsDigit(r):
			// Letter→digit boundaries split too: "FM4" → "fm 4".
			if i > 0 && unicode.IsLetter(runes[i-1]) {
				flush()
			}
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

func joinNormalized(parts ...string) string {
	var out []string
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}
