package server

import (
	"net/http"

	"github.com/jonathan/resume-memory/internal/types"
)

// ResumeListResponse is the response for GET /resumes
type ResumeListResponse struct {
	Resumes []types.ResumeDocument `json:"resumes"`
	Count   int                    `json:"count"`
}

// handleListResumes lists the caller's resumes
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request, userID string) {
	docs, err := s.deps.Resumes.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []types.ResumeDocument{}
	}
	s.jsonResponse(w, http.StatusOK, ResumeListResponse{Resumes: docs, Count: len(docs)})
}

// handleGenerateResume generates a new resume from the caller's profile
func (s *Server) handleGenerateResume(w http.ResponseWriter, r *http.Request, userID string) {
	var req types.GenerateResumeRequest
	if err := s.decodeJSON(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	o, err := s.openOracle(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer o.Close()

	doc, err := s.deps.Resumes.Generate(r.Context(), userID, o, req.JobDescription)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, doc)
}

// handleGetResume returns one resume
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request, userID string) {
	doc, err := s.deps.Resumes.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleSaveResume stores a user-edited resume under the path ID
func (s *Server) handleSaveResume(w http.ResponseWriter, r *http.Request, userID string) {
	raw, err := s.decodeRecord(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.deps.Resumes.Save(r.Context(), userID, r.PathValue("id"), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, doc)
}

// handleDeleteResume removes one resume
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.deps.Resumes.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTailorResume rewrites a resume toward a job description, keeping its ID
func (s *Server) handleTailorResume(w http.ResponseWriter, r *http.Request, userID string) {
	var req types.TailorResumeRequest
	if err := s.decodeRequest(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Resumes.Tailor(r.Context(), userID, o, r.PathValue("id"), req.JobDescription)
	})
}
