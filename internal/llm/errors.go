package llm

import "fmt"

// MissingKeyError is returned when a client is requested without a credential
type MissingKeyError struct {
	Provider Provider
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s API key is required", e.Provider)
}

// ParseError is returned when a response cannot be interpreted as JSON, even after repair
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RateLimitError is returned when the per-user oracle budget is exhausted
type RateLimitError struct {
	User string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("llm rate limit exceeded for user %q", e.User)
}
