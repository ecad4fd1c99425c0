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
	"go.uber.org/zap/zaptest"
)

func TestWatchDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.stl")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fw, err := NewFileWatcher(50*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	fw.Start(ctx)

	var calls atomic.Int32
	changed := make(chan string, 4)
	require.NoError(t, fw.Watch([]string{path}, func(p string) {
		calls.Add(1)
		changed <- p
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	}

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUnwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.stl")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	fw.Start(ctx)

	var calls atomic.Int32
	require.NoError(t, fw.Watch([]string{path}, func(string) { calls.Add(1) }))
	fw.Unwatch([]string{path})

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatchMissingFile(t *testing.T) {
	fw, err := NewFileWatcher(DefaultDebounce, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })

	err = fw.Watch([]string{filepath.Join(t.TempDir(), "missing.stl")}, func(string) {})
	assert.Error(t, err)
}

func TestUnwatchDuringRewatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	abs, err := filepath.Abs(path)
	require.NoError(t, err)

	fw, err := NewFileWatcher(30*time.Millisecond, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })

	var calls atomic.Int32
	require.NoError(t, fw.Watch([]string{path}, func(string) { calls.Add(1) }))
	require.Contains(t, fw.WatchList(), abs)

	// the file was replaced, then its last subscriber left
	fw.handleEvent(fsnotify.Event{Name: abs, Op: fsnotify.Rename})
	fw.Unwatch([]string{path})

	time.Sleep(150 * time.Millisecond)
	assert.NotContains(t, fw.WatchList(), abs)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRewatchReplacedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	abs, err := filepath.Abs(path)
	require.NoError(t, err)

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Close() })

	changed := make(chan string, 1)
	require.NoError(t, fw.Watch([]string{path}, func(p string) { changed <- p }))

	fw.handleEvent(fsnotify.Event{Name: abs, Op: fsnotify.Rename})

	select {
	case p := <-changed:
		assert.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("replaced file was not reported")
	}
	assert.Contains(t, fw.WatchList(), abs)
}
