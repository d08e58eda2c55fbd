package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/Daedalus/pkg/cache"
)

// countingStore wraps a Store and counts operations, optionally delaying
// reads to widen the window in which concurrent misses overlap.
type countingStore struct {
	inner    cache.Store
	getDelay time.Duration

	gets    atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.gets.Add(1)
	if s.getDelay > 0 {
		time.Sleep(s.getDelay)
	}
	return s.inner.Get(ctx, key)
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.sets.Add(1)
	return s.inner.Set(ctx, key, value, ttl)
}

func (s *countingStore) Delete(ctx context.Context, key string) error {
	s.deletes.Add(1)
	return s.inner.Delete(ctx, key)
}

func TestManifestProjection(t *testing.T) {
	c := New(nil, nil)
	desc := triggerNode("webhook")
	c.Register(desc)
	c.Register(actionNode("http-request", "HTTP Request", "http"))

	manifest := c.Manifest()
	require.Len(t, manifest, 2)

	entry := manifest[0]
	assert.Equal(t, "webhook", entry.ID)
	assert.Equal(t, desc.Name, entry.Name)
	assert.Equal(t, desc.Version, entry.Version)
	assert.Equal(t, desc.Category, entry.Category)
	assert.Equal(t, desc.Icon, entry.Icon)
	assert.Equal(t, desc.Description, entry.Description)
	assert.Equal(t, desc.Properties, entry.Properties)
	assert.Equal(t, desc.Outputs, entry.Outputs)
	assert.Equal(t, desc.Tags, entry.Tags)
	assert.False(t, entry.SupportsAsync)
	assert.Equal(t, int64(30), entry.MaxExecutionTime)

	assert.Equal(t, "http-request", manifest[1].ID)
}

func TestCachedManifestServesFromCache(t *testing.T) {
	store := &countingStore{inner: cache.NewMemory()}
	c := New(store, nil)
	c.Register(triggerNode("webhook"))

	ctx := context.Background()

	first, err := c.CachedManifest(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, int64(1), store.sets.Load())

	second, err := c.CachedManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), store.sets.Load(), "second call must not rebuild")
}

func TestCachedManifestStaleAfterMutationUntilCleared(t *testing.T) {
	store := &countingStore{inner: cache.NewMemory()}
	c := New(store, nil)
	c.Register(triggerNode("webhook"))

	ctx := context.Background()

	cached, err := c.CachedManifest(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	// Mutations do not invalidate the cached projection.
	c.Register(actionNode("http-request", "HTTP Request"))
	cached, err = c.CachedManifest(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1, "cached manifest is served until cleared")

	require.NoError(t, c.ClearCache(ctx))

	fresh, err := c.CachedManifest(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, int64(2), store.sets.Load())
}

func TestCachedManifestCollapsesConcurrentMisses(t *testing.T) {
	store := &countingStore{inner: cache.NewMemory(), getDelay: 10 * time.Millisecond}
	c := New(store, nil)
	c.Register(triggerNode("webhook"))
	c.Register(actionNode("http-request", "HTTP Request"))

	ctx := context.Background()

	const callers = 20
	results := make([][]ManifestEntry, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			entries, err := c.CachedManifest(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = entries
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), store.sets.Load(), "concurrent misses must collapse into one rebuild")
	for _, entries := range results {
		assert.Equal(t, results[0], entries)
	}
}

func TestCachedManifestDegradesOnCacheFailure(t *testing.T) {
	c := New(failingStore{}, nil)
	c.Register(triggerNode("webhook"))

	entries, err := c.CachedManifest(context.Background())
	require.NoError(t, err, "cache failure must not fail the caller")
	assert.Len(t, entries, 1)
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, assert.AnError
}

func (failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return assert.AnError
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return assert.AnError
}
