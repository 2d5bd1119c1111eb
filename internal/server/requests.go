package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/resume-memory/internal/ingestion"
	"github.com/jonathan/resume-memory/internal/oracle"
)

// uploadField is the multipart field holding uploaded documents
const uploadField = "files"

// validatable is implemented by the request types in internal/types
type validatable interface {
	Validate() error
}

// decodeRequest decodes the request body into dst and validates it
func (s *Server) decodeRequest(r *http.Request, dst validatable, optional bool) error {
	if err := s.decodeJSON(r, dst, optional); err != nil {
		return err
	}
	return dst.Validate()
}

// decodeJSON decodes the request body into dst. An empty body is accepted when
// optional is set.
func (s *Server) decodeJSON(r *http.Request, dst any, optional bool) error {
	body := http.MaxBytesReader(nil, r.Body, s.deps.MaxUploadBytes)
	err := json.NewDecoder(body).Decode(dst)
	switch {
	case errors.Is(err, io.EOF) && optional:
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return tooLarge
		}
		if errors.Is(err, io.EOF) {
			return &ErrValidation{Message: "request body is required"}
		}
		return &ErrValidation{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// decodeRecord decodes a body that must be a JSON object of any shape
func (s *Server) decodeRecord(r *http.Request) (map[string]any, error) {
	var raw any
	if err := s.decodeJSON(r, &raw, false); err != nil {
		return nil, err
	}
	rec, ok := raw.(map[string]any)
	if !ok {
		return nil, &ErrValidation{Message: fmt.Sprintf("request body must be a JSON object, got %T", raw)}
	}
	return rec, nil
}

// readUploads reads every file of the "files" multipart field
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]ingestion.File, error) {
	if r.ContentLength > s.deps.MaxUploadBytes {
		return nil, &http.MaxBytesError{Limit: s.deps.MaxUploadBytes}
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLarge
		}
		return nil, &ErrValidation{Field: uploadField, Message: "expected a multipart form: " + err.Error()}
	}
	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		return nil, &ErrValidation{Field: uploadField, Message: "at least one file is required"}
	}

	files := make([]ingestion.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", h.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", h.Filename, err)
		}
		files = append(files, ingestion.File{Name: h.Filename, Data: data})
	}
	return files, nil
}

// openOracle opens the oracle for this request. The caller must Close it.
func (s *Server) openOracle(r *http.Request) (Oracle, error) {
	if s.deps.OpenOracle == nil {
		return nil, &oracle.ConfigurationMissingError{Message: "no model provider is configured"}
	}
	return s.deps.OpenOracle(r.Context(), strings.TrimSpace(r.Header.Get(HeaderAPIKey)))
}

// withOracle runs fn with a request-scoped oracle and writes any error
func (s *Server) withOracle(w http.ResponseWriter, r *http.Request, fn func(o Oracle) (any, error)) {
	o, err := s.openOracle(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer o.Close()

	out, err := fn(o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// repoClient returns a code-host client for the request, preferring an explicit token
func (s *Server) repoClient(r *http.Request, token string) (RepoClient, error) {
	if token = strings.TrimSpace(token); token == "" {
		token = strings.TrimSpace(r.Header.Get(HeaderGitHubToken))
	}
	if token == "" {
		return nil, &ErrValidation{Field: "token", Message: "a GitHub token is required, send it in the " + HeaderGitHubToken + " header"}
	}
	if s.deps.Repos == nil {
		return nil, fmt.Errorf("no code host client is configured")
	}
	return s.deps.Repos(token), nil
}
