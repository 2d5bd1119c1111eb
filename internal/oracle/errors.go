package oracle

import "fmt"

// ConfigurationMissingError is returned before any call is attempted when no
// credential is configured for the oracle
type ConfigurationMissingError struct {
	Message string
}

func (e *ConfigurationMissingError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("oracle not configured: %s", e.Message)
	}
	return "oracle not configured: add a Gemini API key in settings or send the X-Gemini-Api-Key header"
}

// UnavailableError represents a network, auth, quota or rate-limit failure of the oracle.
// The caller may retry.
type UnavailableError struct {
	Message string
	Cause   error
}

func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("oracle unavailable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("oracle unavailable: %s", e.Message)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError represents a response that could not be parsed as JSON
type MalformedResponseError struct {
	Message string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed oracle response: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed oracle response: %s", e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}
