package embedding

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached memoizes embeddings per text so repeated prompts are embedded once.
type Cached struct {
	next  Embedder
	cache *cache.Cache
}

var _ Embedder = (*Cached)(nil)

// NewCached wraps next with an in-memory cache whose entries expire after ttl.
func NewCached(next Embedder, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) key(text string) string {
	return c.next.Model() + "\x00" + text
}

// Embed returns the cached vector for text or computes and stores it.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(c.key(text)); ok {
		return v.([]float32), nil
	}
	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(c.key(text), v, cache.DefaultExpiration)
	return v, nil
}

// EmbedBatch embeds only the texts that miss the cache, deduplicated, in one call.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	pending := make(map[string][]int)
	var misses []string

	for i, text := range texts {
		if v, ok := c.cache.Get(c.key(text)); ok {
			out[i] = v.([]float32)
			continue
		}
		if _, seen := pending[text]; !seen {
			misses = append(misses, text)
		}
		pending[text] = append(pending[text], i)
	}

	if len(misses) > 0 {
		vectors, err := c.next.EmbedBatch(ctx, misses)
		if err != nil {
			return nil, err
		}
		if err := checkDimensions(vectors, len(misses), c.next.Dimension()); err != nil {
			return nil, err
		}
		for j, text := range misses {
			c.cache.Set(c.key(text), vectors[j], cache.DefaultExpiration)
			for _, i := range pending[text] {
				out[i] = vectors[j]
			}
		}
	}
	return out, nil
}

// Model returns the wrapped model name.
func (c *Cached) Model() string {
	return c.next.Model()
}

// Dimension returns the wrapped dimension.
func (c *Cached) Dimension() int {
	return c.next.Dimension()
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
