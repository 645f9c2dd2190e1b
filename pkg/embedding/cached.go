package embedding

import (
	"context"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// Cached wraps a provider with an LRU cache keyed by text. Sessions repeat
// moves often (copies, re-stated ideas), and the shell re-embeds whole
// episodes when thresholds change.
type Cached struct {
	Provider
	cache  *lru.Cache[string, []float64]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps p with a cache of size entries.
func NewCached(p Provider, size int) (*Cached, error) {
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, lerrors.WrapInternal(err, lerrors.ErrInternal, "failed to create embedding cache")
	}
	return &Cached{Provider: p, cache: cache}, nil
}

// Embed returns the cached vector or embeds text.
func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch serves what it can from the cache and embeds the remaining
// distinct texts in one call to the wrapped provider.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missing []string
	pending := make(map[string][]int)

	for i, text := range texts {
		if v, ok := c.cache.Get(text); ok {
			out[i] = slices.Clone(v)
			c.hits.Add(1)
			continue
		}
		if _, seen := pending[text]; !seen {
			missing = append(missing, text)
		}
		pending[text] = append(pending[text], i)
	}

	if len(missing) > 0 {
		c.misses.Add(int64(len(missing)))
		vectors, err := c.Provider.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missing) {
			return nil, lerrors.EmbeddingErrorf(lerrors.ErrProviderBadResponse,
				"provider returned %d vectors for %d texts", len(vectors), len(missing))
		}
		for k, text := range missing {
			c.cache.Add(text, vectors[k])
			for _, i := range pending[text] {
				out[i] = slices.Clone(vectors[k])
			}
		}
	}
	return out, nil
}

// Stats returns cache hits and misses so far.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached vectors.
func (c *Cached) Len() int {
	return c.cache.Len()
}
