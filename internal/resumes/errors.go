package resumes

import "fmt"

// NotFoundError is returned when a resume does not exist for the user
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resume not found: %s", e.ID)
}
