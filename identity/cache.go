package identity

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
)

var (
	DefaultCacheSize            = 10000
	DefaultCacheEntryExpiration = time.Minute
)

type CacheEntry struct {
	user   User
	expiry time.Time
}

func (c CacheEntry) IsExpired() bool {
	return time.Now().After(c.expiry)
}

// CachingProvider caches account lookups by ID token. Every other call goes to the
// delegate; profile updates evict the entry of the token that performed them.
type CachingProvider struct {
	Provider

	expiration time.Duration
	lru        *simplelru.LRU
	mu         *sync.Mutex
}

var _ Provider = &CachingProvider{}

func NewCachingProvider(size int, expiration time.Duration, delegate Provider) (*CachingProvider, error) {
	var onEvict simplelru.EvictCallback
	lru, err := simplelru.NewLRU(size, onEvict)
	if err != nil {
		return nil, err
	}

	return &CachingProvider{
		Provider:   delegate,
		expiration: expiration,
		lru:        lru,
		mu:         &sync.Mutex{},
	}, nil
}

func (c *CachingProvider) Lookup(ctx context.Context, idToken string) (*User, error) {
	if entry := c.getCachedEntry(idToken); entry != nil {
		user := entry.user
		return &user, nil
	}

	user, err := c.Provider.Lookup(ctx, idToken)
	if err != nil {
		return nil, err
	}

	c.setCacheEntry(idToken, CacheEntry{
		user:   *user,
		expiry: time.Now().Add(c.expiration),
	})
	return user, nil
}

// UpdateProfile evicts the entry before and after the update, so a lookup which raced with
// the update can't keep the stale account cached.
func (c *CachingProvider) UpdateProfile(ctx context.Context, idToken string, update ProfileUpdate) (*User, error) {
	c.Invalidate(idToken)
	defer c.Invalidate(idToken)
	return c.Provider.UpdateProfile(ctx, idToken, update)
}

func (c *CachingProvider) Invalidate(idToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(idToken)
}

func (c *CachingProvider) getCachedEntry(idToken string) *CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lru.Get(idToken); ok {
		entry := e.(CacheEntry)
		if entry.IsExpired() {
			c.lru.Remove(idToken)
			return nil
		}
		return &entry
	}

	return nil
}

func (c *CachingProvider) setCacheEntry(idToken string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(idToken, entry)
}
