package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare_IdenticalStrings(t *testing.T) {
	sim := NewSimilarity(16)

	assert.Equal(t, 1.0, sim.Compare("Polymer", "polymer"))
}

func TestCompare_DisjointStrings(t *testing.T) {
	sim := NewSimilarity(16)

	assert.Equal(t, 0.0, sim.Compare("xyz", "abc"))
}

func TestCompare_TypoStaysAboveFloor(t *testing.T) {
	sim := NewSimilarity(16)

	// A dropped letter should still clear the default 0.3 floor.
	got := sim.Compare("plymer", "Polymer")
	assert.Greater(t, got, 0.3)
	assert.Less(t, got, 1.0)
}

func TestCompare_EmptyString(t *testing.T) {
	sim := NewSimilarity(16)

	assert.Equal(t, 0.0, sim.Compare("", "Polymer"))
	assert.Equal(t, 0.0, sim.Compare("", ""))
}

func TestCompare_IsSymmetric(t *testing.T) {
	sim := NewSimilarity(16)

	assert.Equal(t, sim.Compare("warm bass", "bass warm"), sim.Compare("bass warm", "warm bass"))
}

func TestTrigrams_PadsWords(t *testing.T) {
	got := Trigrams("ab")

	// "  ab " yields "  a", " ab", "ab ".
	assert.Len(t, got, 3)
	assert.Contains(t, got, "  a")
	assert.Contains(t, got, " ab")
	assert.Contains(t, got, "ab ")
}

func TestCompare_CachedResultsMatchUncached(t *testing.T) {
	sim := NewSimilarity(16)

	first := sim.Compare("Warm Bass", "Warm Pad")
	second := sim.Compare("Warm Bass", "Warm Pad")
	assert.Equal(t, first, second)
}
