package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

func testContent(path, name string) *Content {
	return &Content{
		Name:        name,
		FilePath:    path,
		ContentType: ContentTypePreset,
	}
}

func TestUpsertContent_InsertAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Given a new record
	c := testContent("/lib/Presets/Polymer/Warm Bass.bwpreset", "Warm Bass")
	c.Category = "Bass"
	require.NoError(t, s.UpsertContent(ctx, c))
	firstID := c.ID
	require.NotZero(t, firstID)

	// When indexing the same path again with changed metadata
	c2 := testContent("/lib/Presets/Polymer/Warm Bass.bwpreset", "Warm Bass")
	c2.Category = "Sub Bass"
	require.NoError(t, s.UpsertContent(ctx, c2))

	// Then the row is updated in place, keeping its id
	assert.Equal(t, firstID, c2.ID)
	got, err := s.GetContentByPath(ctx, c.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "Sub Bass", got.Category)
}

func TestUpsertContent_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContent("/lib/a.bwpreset", "A")
	c.Tags = []string{"warm", "analog"}
	require.NoError(t, s.UpsertContent(ctx, c))

	before, err := s.GetContentByPath(ctx, c.FilePath)
	require.NoError(t, err)

	// Re-indexing identical metadata changes nothing observable.
	require.NoError(t, s.UpsertContent(ctx, c))
	after, err := s.GetContentByPath(ctx, c.FilePath)
	require.NoError(t, err)

	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Tags, after.Tags)
}

func TestUpsertContent_RejectsInvalidType(t *testing.T) {
	s := newTestStore(t)

	c := testContent("/lib/a.bwpreset", "A")
	c.ContentType = "loop"

	err := s.UpsertContent(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, bwerrors.ErrCodeInvalidInput, bwerrors.GetCode(err))
}

func TestUpsertContent_RoundTripsMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dt := DeviceTypeInstrument
	mod := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	c := &Content{
		Name:         "Warm Bass",
		FilePath:     "/lib/Presets/Polymer/Warm Bass.bwpreset",
		ContentType:  ContentTypePreset,
		ParentDevice: "Polymer",
		Description:  "fat analog low end",
		Category:     "Bass",
		Tags:         []string{"warm", "analog"},
		Creator:      "Bitwig",
		DeviceType:   &dt,
		FileSize:     2048,
		FileHash:     "abc123",
		ModifiedAt:   mod,
	}
	require.NoError(t, s.UpsertContent(ctx, c))

	got, err := s.GetContent(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.ParentDevice, got.ParentDevice)
	assert.Equal(t, c.Tags, got.Tags)
	require.NotNil(t, got.DeviceType)
	assert.Equal(t, dt, *got.DeviceType)
	assert.True(t, got.ModifiedAt.Equal(mod), "modified_at should round-trip")
	assert.False(t, got.IndexedAt.IsZero())
}

func TestGetContent_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetContent(context.Background(), 999)
	assert.True(t, bwerrors.IsNotFound(err))

	_, err = s.GetContentByPath(context.Background(), "/nope")
	assert.True(t, bwerrors.IsNotFound(err))
}

func TestSearchCandidates_FullTextMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	warm := testContent("/lib/warm.bwpreset", "Warm Bass")
	require.NoError(t, s.UpsertContent(ctx, warm))
	bright := testContent("/lib/bright.bwpreset", "Bright Lead")
	require.NoError(t, s.UpsertContent(ctx, bright))

	// When querying the full-text index
	candidates, err := s.SearchCandidates(ctx, Filters{}, `"warm"`)
	require.NoError(t, err)

	// Then both rows come back, but only the match carries a rank
	require.Len(t, candidates, 2)
	byName := map[string]Candidate{}
	for _, c := range candidates {
		byName[c.Name] = c
	}
	assert.NotNil(t, byName["Warm Bass"].BM25)
	assert.Nil(t, byName["Bright Lead"].BM25)
}

func TestSearchCandidates_ReflectsLatestMetadata(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContent("/lib/a.bwpreset", "Warm Bass")
	require.NoError(t, s.UpsertContent(ctx, c))

	// When the record is renamed
	c.Name = "Cold Pluck"
	require.NoError(t, s.UpsertContent(ctx, c))

	// Then the old derived text no longer matches and the new one does
	old, err := s.SearchCandidates(ctx, Filters{}, `"warm"`)
	require.NoError(t, err)
	for _, cand := range old {
		assert.Nil(t, cand.BM25, "stale search text must not match")
	}

	fresh, err := s.SearchCandidates(ctx, Filters{}, `"cold"`)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.NotNil(t, fresh[0].BM25)
}

func TestSearchCandidates_AppliesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	preset := testContent("/lib/a.bwpreset", "A")
	preset.Category = "Bass"
	require.NoError(t, s.UpsertContent(ctx, preset))

	sample := testContent("/lib/kick.wav", "Kick")
	sample.ContentType = ContentTypeSample
	require.NoError(t, s.UpsertContent(ctx, sample))

	ct := ContentTypeSample
	candidates, err := s.SearchCandidates(ctx, Filters{ContentType: &ct}, "")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Kick", candidates[0].Name)

	candidates, err = s.SearchCandidates(ctx, Filters{CategoryContains: "bas"}, "")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "A", candidates[0].Name)
}

func TestAutocomplete_OrdersByFrequencyThenName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Given two names sharing a prefix, one of them used twice
	a := testContent("/lib/poly-a.bwpreset", "Polymer Bass")
	require.NoError(t, s.UpsertContent(ctx, a))
	b := testContent("/lib/poly-b.bwpreset", "Polymer Lead")
	require.NoError(t, s.UpsertContent(ctx, b))
	require.NoError(t, s.LogUsage(ctx, b.ID, "loaded", nil))
	require.NoError(t, s.LogUsage(ctx, b.ID, "loaded", nil))

	// When autocompleting the shared prefix
	got, err := s.Autocomplete(ctx, "Poly", 10)
	require.NoError(t, err)

	// Then the used name ranks first and counts include usage
	require.Len(t, got, 2)
	assert.Equal(t, "Polymer Lead", got[0].Suggestion)
	assert.Equal(t, 3, got[0].MatchCount)
	assert.Equal(t, "Polymer Bass", got[1].Suggestion)
	assert.Equal(t, 1, got[1].MatchCount)
}

func TestAutocomplete_PrefixIsLiteral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContent("/lib/a.bwpreset", "100% Wet")
	require.NoError(t, s.UpsertContent(ctx, c))
	other := testContent("/lib/b.bwpreset", "1000 Pads")
	require.NoError(t, s.UpsertContent(ctx, other))

	// A % in the prefix must not act as a wildcard.
	got, err := s.Autocomplete(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100% Wet", got[0].Suggestion)
}

func TestAutocomplete_CaseVariantsGroupDeterministically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Given case variants of the same name, inserted lowercase-first
	lower := testContent("/lib/a.bwpreset", "warm bass")
	require.NoError(t, s.UpsertContent(ctx, lower))
	upper := testContent("/lib/b.bwpreset", "Warm Bass")
	require.NoError(t, s.UpsertContent(ctx, upper))

	// When autocompleting the shared prefix
	got, err := s.Autocomplete(ctx, "warm", 10)
	require.NoError(t, err)

	// Then the variants merge into one suggestion with a stable spelling
	require.Len(t, got, 1)
	assert.Equal(t, "Warm Bass", got[0].Suggestion)
	assert.Equal(t, 2, got[0].MatchCount)
}

func TestAutocomplete_EmptyPrefix(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Autocomplete(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStates_ReturnsFingerprints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContent("/lib/a.bwpreset", "A")
	c.FileSize = 512
	c.ModifiedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.UpsertContent(ctx, c))

	states, err := s.FileStates(ctx)
	require.NoError(t, err)
	st, ok := states["/lib/a.bwpreset"]
	require.True(t, ok)
	assert.Equal(t, c.ID, st.ID)
	assert.Equal(t, int64(512), st.Size)
	assert.Equal(t, c.ModifiedAt.Unix(), st.ModifiedAt.Unix())
}

func TestDuplicateHashes_GroupsSharedHashes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Given two paths with identical bytes and one unique file
	for i, path := range []string{"/lib/a.wav", "/lib/copy-of-a.wav"} {
		c := testContent(path, "A")
		c.ContentType = ContentTypeSample
		c.FileHash = "samehash"
		require.NoError(t, s.UpsertContent(ctx, c), "file %d", i)
	}
	unique := testContent("/lib/b.wav", "B")
	unique.ContentType = ContentTypeSample
	unique.FileHash = "otherhash"
	require.NoError(t, s.UpsertContent(ctx, unique))

	// When listing duplicates
	groups, err := s.DuplicateHashes(ctx)
	require.NoError(t, err)

	// Then the shared hash forms one group, both records kept independently
	require.Len(t, groups, 1)
	assert.Equal(t, "samehash", groups[0].Hash)
	assert.Equal(t, []string{"/lib/a.wav", "/lib/copy-of-a.wav"}, groups[0].Paths)
}

func TestContentStats_CountsByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertContent(ctx, testContent("/lib/a.bwpreset", "A")))
	require.NoError(t, s.UpsertContent(ctx, testContent("/lib/b.bwpreset", "B")))
	w := testContent("/lib/c.wav", "C")
	w.ContentType = ContentTypeSample
	require.NoError(t, s.UpsertContent(ctx, w))

	stats, err := s.ContentStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Content)
	assert.Equal(t, int64(2), stats.ByType[ContentTypePreset])
	assert.Equal(t, int64(1), stats.ByType[ContentTypeSample])
}

func TestDeleteContent_CascadesMemberships(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContent("/lib/a.bwpreset", "A")
	require.NoError(t, s.UpsertContent(ctx, c))
	_, err := s.CreateCollection(ctx, "faves")
	require.NoError(t, err)
	require.NoError(t, s.AddToCollection(ctx, "faves", c.ID))

	require.NoError(t, s.DeleteContent(ctx, c.ID))

	members, err := s.EvaluateCollection(ctx, "faves")
	require.NoError(t, err)
	assert.Empty(t, members)
}
