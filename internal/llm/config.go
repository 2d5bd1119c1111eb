// Package llm provides the model configuration and client abstractions used by the oracle.
// Clients are built per credential through a Factory and may be wrapped by the cache and
// rate-limit decorators in this package.
package llm

import "strings"

// ModelTier selects a model by how much reasoning an oracle call needs
type ModelTier string

const (
	// TierLite is for small structured tasks: questions, skill lists, repository analysis
	TierLite ModelTier = "lite"
	// TierStandard is for extraction and research
	TierStandard ModelTier = "standard"
	// TierAdvanced is for whole-profile reconciliation and resume generation
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// DefaultTemperature keeps reconciliation output stable across retries
const DefaultTemperature float32 = 0.1

// Config maps model tiers to provider models
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the Gemini tier mapping
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// GetModel returns the model for tier. A tier with no model falls back to the
// standard model, then the lite one.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok && model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c with model assigned to tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	return c.WithOverrides(map[ModelTier]string{tier: model})
}

// WithOverrides returns a copy of c with every non-blank override applied
func (c *Config) WithOverrides(overrides map[ModelTier]string) *Config {
	out := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+len(overrides)),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		out.Models[k] = v
	}
	for k, v := range overrides {
		if v = strings.TrimSpace(v); v != "" {
			out.Models[k] = v
		}
	}
	return out
}

// WithTemperature returns a copy of c using temperature t. Negative values are ignored.
func (c *Config) WithTemperature(t float32) *Config {
	out := c.WithOverrides(nil)
	if t >= 0 {
		out.Temperature = t
	}
	return out
}
