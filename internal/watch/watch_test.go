package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	assert.True(t, Relevant("/data/cat.json"))
	assert.True(t, Relevant("/data/owl.YML"))
	assert.True(t, Relevant("/data/specimens.yaml"))
	assert.False(t, Relevant("/data/cat.jpg"))
	assert.False(t, Relevant("/data/.cat.json.swp"))
}

func TestWatcher_BatchesChanges(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var batches [][]string
	reloaded := make(chan struct{}, 10)
	w, err := New(dir, 50*time.Millisecond, func(ctx context.Context, changed []string) error {
		mu.Lock()
		batches = append(batches, changed)
		mu.Unlock()
		reloaded <- struct{}{}
		return nil
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cat.json"), []byte(`{"kingdom":"Animalia"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "owl.yaml"), []byte("kingdom: Animalia\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cat.jpg"), []byte("jpeg"), 0644))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, batches)
	var all []string
	for _, b := range batches {
		all = append(all, b...)
	}
	for _, path := range all {
		assert.NotEqual(t, "cat.jpg", filepath.Base(path), "image files should not trigger reloads")
	}
	assert.Contains(t, all, filepath.Join(dir, "cat.json"))
	assert.GreaterOrEqual(t, w.Stats().Events, 1)
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), 0, func(context.Context, []string) error { return nil }, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()
}
