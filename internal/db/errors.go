package db

import "fmt"

// VersionConflictError is returned when a profile was saved with a stale version
type VersionConflictError struct {
	UserID   string
	Expected int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("profile for user %s is no longer at version %d", e.UserID, e.Expected)
}

// NotFoundError is returned by deletes and updates that match no row
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
