package llm

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

type userKey struct{}

// WithUser attaches the user an oracle call is made on behalf of
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the user attached by WithUser, or ""
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userKey{}).(string)
	return user
}

// RateLimiter holds one token bucket per user. Like ResponseCache it outlives the
// per-request clients it wraps.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu     sync.Mutex
	bucket map[string]*rate.Limiter
}

// NewRateLimiter allows perMinute calls per user with the given burst.
// A non-positive perMinute disables limiting and returns nil.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:  rate.Limit(float64(perMinute) / 60),
		burst:  burst,
		bucket: make(map[string]*rate.Limiter),
	}
}

// Wrap returns client with every call charged to the context's user. A nil limiter
// returns client unchanged.
func (l *RateLimiter) Wrap(client Client) Client {
	if l == nil || client == nil {
		return client
	}
	return &rateLimitedClient{base: client, limiter: l}
}

func (l *RateLimiter) reserve(ctx context.Context) error {
	user := UserFromContext(ctx)
	if l.limiterFor(user).Allow() {
		return nil
	}
	return &RateLimitError{User: user}
}

func (l *RateLimiter) limiterFor(user string) *rate.Limiter {
	key := user
	if key == "" {
		key = "anonymous"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.bucket[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.bucket[key] = limiter
	}
	return limiter
}

type rateLimitedClient struct {
	base    Client
	limiter *RateLimiter
}

func (c *rateLimitedClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if err := c.limiter.reserve(ctx); err != nil {
		return "", err
	}
	return c.base.GenerateContent(ctx, prompt, tier)
}

func (c *rateLimitedClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if err := c.limiter.reserve(ctx); err != nil {
		return "", err
	}
	return c.base.GenerateJSON(ctx, prompt, tier)
}

func (c *rateLimitedClient) GenerateGrounded(ctx context.Context, prompt string, tier ModelTier) (*GroundedResponse, error) {
	if err := c.limiter.reserve(ctx); err != nil {
		return nil, err
	}
	return c.base.GenerateGrounded(ctx, prompt, tier)
}

func (c *rateLimitedClient) GetModel(tier ModelTier) string {
	return c.base.GetModel(tier)
}

func (c *rateLimitedClient) Close() error {
	return c.base.Close()
}
