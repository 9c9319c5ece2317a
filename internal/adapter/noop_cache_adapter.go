package adapter

import (
	"context"
	"time"

	"vowel-quiz/internal/domain"
)

// NoopCache is used when no redis address is configured. Every read misses.
type NoopCache struct{}

// NewNoopCache returns a cache that stores nothing.
func NewNoopCache() domain.Cache {
	return NoopCache{}
}

func (NoopCache) Get(ctx context.Context, key string) (string, error) {
	return "", domain.ErrCacheMiss
}

func (NoopCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return nil
}

func (NoopCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (NoopCache) Ping(ctx context.Context) error {
	return nil
}
