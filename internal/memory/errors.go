package memory

import "fmt"

// MergeFailedError is returned when a merge could not produce a trustworthy profile.
// The existing profile is left untouched and nothing is persisted.
type MergeFailedError struct {
	Message string
	Cause   error
}

func (e *MergeFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("merge failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("merge failed: %s", e.Message)
}

func (e *MergeFailedError) Unwrap() error {
	return e.Cause
}

// ConflictError is returned when the stored profile changed while a merge was in flight
type ConflictError struct {
	UserID string
	Cause  error
}

func (e *ConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("profile for user %s was modified concurrently, retry the request: %v", e.UserID, e.Cause)
	}
	return fmt.Sprintf("profile for user %s was modified concurrently, retry the request", e.UserID)
}

func (e *ConflictError) Unwrap() error {
	return e.Cause
}

// LockError is returned when the per-profile lock could not be acquired
type LockError struct {
	Key   string
	Cause error
}

func (e *LockError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("could not lock %s: %v", e.Key, e.Cause)
	}
	return fmt.Sprintf("could not lock %s", e.Key)
}

func (e *LockError) Unwrap() error {
	return e.Cause
}
