package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bwerrors "github.com/audio-forge-rs/find-all-bitwig/internal/errors"
)

func TestLogUsage_AppendsEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := testContent("/lib/a.bwpreset", "A")
	require.NoError(t, s.UpsertContent(ctx, c))

	require.NoError(t, s.LogUsage(ctx, c.ID, "loaded", map[string]string{"project": "demo"}))
	require.NoError(t, s.LogUsage(ctx, c.ID, "favorited", nil))

	events, err := s.RecentUsage(ctx, c.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, "favorited", events[0].Action)
	assert.Equal(t, "loaded", events[1].Action)
	assert.Equal(t, map[string]string{"project": "demo"}, events[1].Context)
}

func TestLogUsage_RequiresExistingContent(t *testing.T) {
	s := newTestStore(t)

	err := s.LogUsage(context.Background(), 999, "loaded", nil)
	require.Error(t, err)
	assert.Equal(t, bwerrors.ErrCodeForeignKey, bwerrors.GetCode(err))
}

func TestLogUsage_RequiresAction(t *testing.T) {
	s := newTestStore(t)

	err := s.LogUsage(context.Background(), 1, "", nil)
	require.Error(t, err)
	assert.Equal(t, bwerrors.ErrCodeInvalidInput, bwerrors.GetCode(err))
}
