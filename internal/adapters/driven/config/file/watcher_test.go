package file

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := NewWatcher(nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestWatcher_WatchFile(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("a: 1"), 0o600))

	var calls atomic.Int32
	w := startWatcher(t)
	require.NoError(t, w.WatchFile(seed, func() { calls.Add(1) }))
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(seed, []byte("a: 2"), 0o600))
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond,
		"a burst of writes fires once")
}

func TestWatcher_WatchPromptsReloadsStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptSystem)
	require.NoError(t, err)

	w := startWatcher(t)
	require.NoError(t, w.WatchPrompts(store))
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptSystem+PromptExt), []byte("edited"), 0o600))

	assert.Eventually(t, func() bool {
		p, err := store.Load(driven.PromptSystem)
		return err == nil && p == "edited"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_MissingDir(t *testing.T) {
	w := startWatcher(t)

	err := w.WatchDir(filepath.Join(t.TempDir(), "missing"), func() {})

	assert.ErrorContains(t, err, "watch")
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	w, err := NewWatcher(nil)
	require.NoError(t, err)
	require.NoError(t, w.WatchDir(t.TempDir(), func() {}))
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	w.Start(ctx)

	cancel()
	select {
	case <-w.doneCh:
	case <-time.After(time.Second):
		t.Fatal("watcher ignored cancellation")
	}
	assert.NoError(t, w.Stop())
}
