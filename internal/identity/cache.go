package identity

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// EmailSource resolves a user id to a primary email address.
type EmailSource interface {
	PrimaryEmail(ctx context.Context, userID string) (string, error)
}

// CachedProvider memoizes successful primary email lookups for a bounded time.
// Failures are never cached.
type CachedProvider struct {
	next  EmailSource
	cache *expirable.LRU[string, string]
}

func NewCachedProvider(next EmailSource, size int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (p *CachedProvider) PrimaryEmail(ctx context.Context, userID string) (string, error) {
	if email, ok := p.cache.Get(userID); ok {
		return email, nil
	}
	email, err := p.next.PrimaryEmail(ctx, userID)
	if err != nil {
		return "", err
	}
	p.cache.Add(userID, email)
	return email, nil
}
