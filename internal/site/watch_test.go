package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatcher_reloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reloaded := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := Watcher{
		Log:      zaptest.NewLogger(t),
		Debounce: 10 * time.Millisecond,
	}
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, map[string]func() error{
			dir: func() error {
				select {
				case reloaded <- struct{}{}:
				default:
				}
				return nil
			},
		})
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, "post.md"), []byte("hi"), 0o644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload was never called")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_keepsWatchingAfterFailedReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	calls := make(chan int, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := 0
	w := Watcher{
		Log:      zaptest.NewLogger(t),
		Debounce: 10 * time.Millisecond,
	}
	go func() {
		_ = w.Watch(ctx, map[string]func() error{
			dir: func() error {
				n++
				calls <- n
				if n == 1 {
					return assert.AnError
				}
				return nil
			},
		})
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644))

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("first reload was never called")
	}

	// A failed reload must not stop the watcher.
	require.NoError(t,
		os.WriteFile(filepath.Join(dir, "b.md"), []byte("y"), 0o644))

	select {
	case got := <-calls:
		assert.Equal(t, 2, got)
	case <-time.After(5 * time.Second):
		t.Fatal("second reload was never called")
	}
}

func TestWatcher_badDirectory(t *testing.T) {
	t.Parallel()

	var w Watcher
	err := w.Watch(context.Background(), map[string]func() error{
		filepath.Join(t.TempDir(), "does-not-exist"): func() error { return nil },
	})
	assert.ErrorContains(t, err, "watch")
}
