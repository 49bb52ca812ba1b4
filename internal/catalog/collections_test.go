package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

func TestStaticCollection_AddRemoveEvaluate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testContent("/lib/a.bwpreset", "A")
	require.NoError(t, s.UpsertContent(ctx, a))
	b := testContent("/lib/b.bwpreset", "B")
	require.NoError(t, s.UpsertContent(ctx, b))

	_, err := s.CreateCollection(ctx, "faves")
	require.NoError(t, err)

	// When adding members, including the same one twice
	require.NoError(t, s.AddToCollection(ctx, "faves", a.ID, b.ID))
	require.NoError(t, s.AddToCollection(ctx, "faves", a.ID))

	members, err := s.EvaluateCollection(ctx, "faves")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "A", members[0].Name)
	assert.Equal(t, "B", members[1].Name)

	// Removing an absent member is a no-op
	require.NoError(t, s.RemoveFromCollection(ctx, "faves", a.ID))
	require.NoError(t, s.RemoveFromCollection(ctx, "faves", a.ID))

	members, err = s.EvaluateCollection(ctx, "faves")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "B", members[0].Name)
}

func TestSmartCollection_EvaluatesLive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Given a smart collection over bass presets
	ct := ContentTypePreset
	_, err := s.CreateSmartCollection(ctx, "bass", Filters{ContentType: &ct, CategoryContains: "Bass"})
	require.NoError(t, err)

	members, err := s.EvaluateCollection(ctx, "bass")
	require.NoError(t, err)
	assert.Empty(t, members)

	// When matching content is indexed after the collection was defined
	c := testContent("/lib/a.bwpreset", "Deep Sub")
	c.Category = "Bass"
	require.NoError(t, s.UpsertContent(ctx, c))

	// Then it appears on the next evaluation with no re-save
	members, err = s.EvaluateCollection(ctx, "bass")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Deep Sub", members[0].Name)
}

func TestSmartCollection_RejectsInvalidFilterAtCreation(t *testing.T) {
	s := newTestStore(t)

	bad := ContentType("loop")
	_, err := s.CreateSmartCollection(context.Background(), "bad", Filters{ContentType: &bad})
	require.Error(t, err)
	assert.Equal(t, bwerrors.ErrCodeInvalidFilter, bwerrors.GetCode(err))

	// Nothing was stored.
	_, err = s.GetCollection(context.Background(), "bad")
	assert.True(t, bwerrors.IsNotFound(err))
}

func TestSmartCollection_RejectsExplicitMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ct := ContentTypePreset
	_, err := s.CreateSmartCollection(ctx, "smart", Filters{ContentType: &ct})
	require.NoError(t, err)

	c := testContent("/lib/a.bwpreset", "A")
	require.NoError(t, s.UpsertContent(ctx, c))

	err = s.AddToCollection(ctx, "smart", c.ID)
	require.Error(t, err)
	assert.Equal(t, bwerrors.ErrCodeInvalidInput, bwerrors.GetCode(err))
}

func TestCreateCollection_NameConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCollection(ctx, "faves")
	require.NoError(t, err)

	_, err = s.CreateCollection(ctx, "faves")
	require.Error(t, err)
	assert.Equal(t, bwerrors.ErrCodeNameConflict, bwerrors.GetCode(err))
}

func TestDeleteCollection_LeavesContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContent("/lib/a.bwpreset", "A")
	require.NoError(t, s.UpsertContent(ctx, c))
	_, err := s.CreateCollection(ctx, "faves")
	require.NoError(t, err)
	require.NoError(t, s.AddToCollection(ctx, "faves", c.ID))

	require.NoError(t, s.DeleteCollection(ctx, "faves"))

	_, err = s.GetCollection(ctx, "faves")
	assert.True(t, bwerrors.IsNotFound(err))
	_, err = s.GetContent(ctx, c.ID)
	assert.NoError(t, err)
}

func TestListCollections_RoundTripsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ct := ContentTypeSample
	_, err := s.CreateSmartCollection(ctx, "samples", Filters{ContentType: &ct})
	require.NoError(t, err)
	_, err = s.CreateCollection(ctx, "faves")
	require.NoError(t, err)

	cols, err := s.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "faves", cols[0].Name)
	assert.Equal(t, CollectionStatic, cols[0].Kind)
	assert.Nil(t, cols[0].Filter)

	assert.Equal(t, "samples", cols[1].Name)
	assert.Equal(t, CollectionSmart, cols[1].Kind)
	require.NotNil(t, cols[1].Filter)
	assert.Equal(t, ct, *cols[1].Filter.ContentType)
}
