package search

import (
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Similarity computes trigram set similarity between strings, pg_trgm style:
// lowercase, split on non-alphanumerics, pad each word with two leading and
// one trailing space, then compare trigram sets by Jaccard ratio.
//
// Catalog-side trigram sets are cached in an LRU keyed by the source string,
// since the same names are compared against many queries. Safe for concurrent
// use.
type Similarity struct {
	cache *lru.Cache[string, map[string]struct{}]
}

// NewSimilarity returns a Similarity with an LRU of cacheSize trigram sets.
func NewSimilarity(cacheSize int) *Similarity {
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, _ := lru.New[string, map[string]struct{}](cacheSize)
	return &Similarity{cache: cache}
}

// Compare returns the trigram similarity of a and b in [0, 1].
// 1 means identical trigram sets, 0 means disjoint.
func (s *Similarity) Compare(a, b string) float64 {
	ta := s.trigramsCached(a)
	tb := s.trigramsCached(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	// Iterate the smaller set.
	if len(tb) < len(ta) {
		ta, tb = tb, ta
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func (s *Similarity) trigramsCached(str string) map[string]struct{} {
	if cached, ok := s.cache.Get(str); ok {
		return cached
	}
	t := Trigrams(str)
	s.cache.Add(str, t)
	return t
}

// Trigrams extracts the trigram set of s.
func Trigrams(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, word := range splitWords(s) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			out[string(runes[i:i+3])] = struct{}{}
		}
	}
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
