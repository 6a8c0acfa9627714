package embedding

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/Harshitk-cp/searchmind/internal/domain"
)

// CachedClient memoizes embeddings by exact text. Identical turns and
// re-inserted memories skip the provider round trip.
type CachedClient struct {
	next  domain.EmbeddingClient
	cache *ristretto.Cache
}

// NewCachedClient wraps next with a cache holding roughly size vectors.
func NewCachedClient(next domain.EmbeddingClient, size int64) (*CachedClient, error) {
	if size <= 0 {
		size = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedClient{next: next, cache: cache}, nil
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, 1)
	return vec, nil
}

// Wait blocks until pending cache writes are visible.
func (c *CachedClient) Wait() {
	c.cache.Wait()
}

func (c *CachedClient) Close() {
	c.cache.Close()
}
