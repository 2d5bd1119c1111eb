package oracle

import (
	"context"
	"errors"
	"strings"

	"github.com/jonathan/resume-memory/internal/llm"
	"go.uber.org/zap"
)

// Provider opens per-request adapters. The cache and limiter are shared by every
// adapter it opens; the credential is chosen per call and never stored globally.
type Provider struct {
	Factory    llm.Factory
	DefaultKey string
	Cache      *llm.ResponseCache
	Limiter    *llm.RateLimiter
	Logger     *zap.Logger
}

// Open returns an adapter for apiKey, falling back to the provider's default key.
// With no key at all it fails with *ConfigurationMissingError before contacting anything.
func (p *Provider) Open(ctx context.Context, apiKey string) (*Adapter, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(p.DefaultKey)
	}
	return Open(ctx, p.Factory, key, p.Logger, p.Limiter.Wrap, p.Cache.Wrap)
}

// Open builds an adapter from factory. Decorators are applied in order, so the last
// one is outermost.
func Open(ctx context.Context, factory llm.Factory, apiKey string, logger *zap.Logger, decorators ...func(llm.Client) llm.Client) (*Adapter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigurationMissingError{}
	}
	if factory == nil {
		return nil, &ConfigurationMissingError{Message: "no model provider configured"}
	}
	client, err := factory(ctx, apiKey)
	if err != nil {
		var missing *llm.MissingKeyError
		if errors.As(err, &missing) {
			return nil, &ConfigurationMissingError{}
		}
		return nil, &UnavailableError{Message: "could not create model client", Cause: err}
	}
	for _, wrap := range decorators {
		client = wrap(client)
	}
	return New(client, logger), nil
}
