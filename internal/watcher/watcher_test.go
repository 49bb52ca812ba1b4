package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	assert.True(t, relevant(fsnotify.Event{Name: "/lib/a.bwpreset", Op: fsnotify.Create}))
	assert.True(t, relevant(fsnotify.Event{Name: "/lib/a.bwpreset", Op: fsnotify.Write}))
	assert.True(t, relevant(fsnotify.Event{Name: "/lib/a.bwpreset", Op: fsnotify.Remove}))
	assert.False(t, relevant(fsnotify.Event{Name: "/lib/a.bwpreset", Op: fsnotify.Chmod}))
	assert.False(t, relevant(fsnotify.Event{Name: "/lib/.hidden", Op: fsnotify.Write}))
}

func TestWatch_DebouncesBurstIntoOneRun(t *testing.T) {
	dir := t.TempDir()

	var runs atomic.Int32
	w := New([]string{dir}, 50*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Let the watcher register before generating events.
	time.Sleep(100 * time.Millisecond)

	// A burst of writes within the window...
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, "a.bwpreset")
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	// ...coalesces into a single reindex after the quiet period.
	require.Eventually(t, func() bool { return runs.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	w := New([]string{t.TempDir()}, 10*time.Millisecond, func(context.Context) error {
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}
