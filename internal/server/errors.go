package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-memory/internal/db"
	"github.com/jonathan/resume-memory/internal/ingestion"
	"github.com/jonathan/resume-memory/internal/llm"
	"github.com/jonathan/resume-memory/internal/memory"
	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/repos"
	"github.com/jonathan/resume-memory/internal/resumes"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error. Errors are
// matched through their wrap chain, so a rate-limited oracle call inside a failed
// merge still reports 429.
func HTTPStatus(err error) int {
	var (
		rateLimited  *llm.RateLimitError
		missing      *oracle.ConfigurationMissingError
		unavailable  *oracle.UnavailableError
		mergeFailed  *memory.MergeFailedError
		malformed    *oracle.MalformedResponseError
		conflict     *memory.ConflictError
		versionStale *db.VersionConflictError
		notFound     *resumes.NotFoundError
		rowNotFound  *db.NotFoundError
		lockErr      *memory.LockError
		repoAuth     *repos.AuthError
		repoErr      *repos.Error
		validation   *ErrValidation
		fieldErrs    validator.ValidationErrors
		tooLarge     *http.MaxBytesError
		unsupported  *ingestion.UnsupportedFormatError
		extraction   *ingestion.ExtractionError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &rateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &missing):
		return http.StatusPreconditionFailed
	case errors.As(err, &unavailable):
		return http.StatusBadGateway
	case errors.As(err, &mergeFailed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &malformed):
		return http.StatusBadGateway
	case errors.As(err, &conflict), errors.As(err, &versionStale):
		return http.StatusConflict
	case errors.As(err, &notFound), errors.As(err, &rowNotFound):
		return http.StatusNotFound
	case errors.As(err, &lockErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &repoAuth):
		return http.StatusUnauthorized
	case errors.As(err, &repoErr):
		return http.StatusBadGateway
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validation), errors.As(err, &fieldErrs), errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.As(err, &extraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
