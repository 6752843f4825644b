package speech

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kisandost/kisandost-go/internal/narration"
)

// CachedSynthesizer keeps recent payloads keyed by text so replaying a
// guide does not synthesize it again. Failures are never cached.
type CachedSynthesizer struct {
	logger *zap.Logger
	next   narration.Synthesizer
	cache  *lru.Cache[string, string]
}

var _ narration.Synthesizer = (*CachedSynthesizer)(nil)

// NewCachedSynthesizer wraps next with an LRU of the given size.
func NewCachedSynthesizer(logger *zap.Logger, next narration.Synthesizer, size int) (*CachedSynthesizer, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}

	return &CachedSynthesizer{
		logger: logger.Named("speech_cache"),
		next:   next,
		cache:  cache,
	}, nil
}

// Synthesize implements narration.Synthesizer.
func (c *CachedSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if payload, ok := c.cache.Get(text); ok {
		c.logger.Debug("Speech cache hit", zap.Int("characters", len(text)))

		return payload, nil
	}

	payload, err := c.next.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	c.cache.Add(text, payload)

	return payload, nil
}

// Len returns the number of cached payloads.
func (c *CachedSynthesizer) Len() int {
	return c.cache.Len()
}

// Purge drops every cached payload.
func (c *CachedSynthesizer) Purge() {
	c.cache.Purge()
}
