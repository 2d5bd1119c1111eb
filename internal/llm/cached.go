package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheMaxSize = 256
	defaultCacheTTL     = 5 * time.Minute
)

// CacheConfig configures the response cache
type CacheConfig struct {
	// MaxSize is the maximum number of entries in the LRU cache.
	MaxSize int
	// TTL is how long a cached response remains valid.
	TTL time.Duration
}

// cacheEntry holds a cached response along with the time it was stored
type cacheEntry struct {
	text      string
	citations []Citation
	storedAt  time.Time
}

// ResponseCache memoizes successful responses keyed by mode, model and prompt.
// One cache is shared by every client it wraps, so identical prompts issued on behalf
// of different requests are answered once within the TTL.
type ResponseCache struct {
	cache *lru.Cache[string, cacheEntry]
	ttl   time.Duration
	now   func() time.Time

	// OnLookup, when set, is told whether each lookup was a hit.
	OnLookup func(hit bool)
}

// NewResponseCache creates a cache. Zero values fall back to 256 entries and 5 minutes.
func NewResponseCache(config CacheConfig) (*ResponseCache, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = defaultCacheMaxSize
	}
	if config.TTL <= 0 {
		config.TTL = defaultCacheTTL
	}
	cache, err := lru.New[string, cacheEntry](config.MaxSize)
	if err != nil {
		return nil, err
	}
	return &ResponseCache{cache: cache, ttl: config.TTL, now: time.Now}, nil
}

// Wrap returns client with responses served from the cache. A nil cache returns client.
func (rc *ResponseCache) Wrap(client Client) Client {
	if rc == nil || client == nil {
		return client
	}
	return &cachedClient{base: client, cache: rc}
}

// Len reports the number of live and expired entries currently held
func (rc *ResponseCache) Len() int {
	return rc.cache.Len()
}

func (rc *ResponseCache) get(key string) (cacheEntry, bool) {
	entry, ok := rc.cache.Get(key)
	if ok && rc.now().Sub(entry.storedAt) >= rc.ttl {
		rc.cache.Remove(key)
		ok = false
	}
	if rc.OnLookup != nil {
		rc.OnLookup(ok)
	}
	return entry, ok
}

func (rc *ResponseCache) put(key string, entry cacheEntry) {
	entry.storedAt = rc.now()
	entry.citations = append([]Citation(nil), entry.citations...)
	rc.cache.Add(key, entry)
}

type cachedClient struct {
	base  Client
	cache *ResponseCache
}

func (c *cachedClient) key(mode string, tier ModelTier, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return mode + ":" + c.base.GetModel(tier) + ":" + hex.EncodeToString(sum[:])
}

func (c *cachedClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	key := c.key("text", tier, prompt)
	if entry, ok := c.cache.get(key); ok {
		return entry.text, nil
	}
	text, err := c.base.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	c.cache.put(key, cacheEntry{text: text})
	return text, nil
}

func (c *cachedClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	key := c.key("json", tier, prompt)
	if entry, ok := c.cache.get(key); ok {
		return entry.text, nil
	}
	text, err := c.base.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	c.cache.put(key, cacheEntry{text: text})
	return text, nil
}

func (c *cachedClient) GenerateGrounded(ctx context.Context, prompt string, tier ModelTier) (*GroundedResponse, error) {
	key := c.key("grounded", tier, prompt)
	if entry, ok := c.cache.get(key); ok {
		return &GroundedResponse{Text: entry.text, Citations: append([]Citation(nil), entry.citations...)}, nil
	}
	resp, err := c.base.GenerateGrounded(ctx, prompt, tier)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, cacheEntry{text: resp.Text, citations: resp.Citations})
	return resp, nil
}

func (c *cachedClient) GetModel(tier ModelTier) string {
	return c.base.GetModel(tier)
}

func (c *cachedClient) Close() error {
	return c.base.Close()
}
