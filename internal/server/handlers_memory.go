package server

import (
	"net/http"
	"strings"

	"github.com/jonathan/resume-memory/internal/ingestion"
	"github.com/jonathan/resume-memory/internal/memory"
	"github.com/jonathan/resume-memory/internal/types"
)

// handleGetMemory returns the caller's profile
func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := s.deps.Memory.GetProfile(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handlePutMemory replaces the profile with a user-edited one
func (s *Server) handlePutMemory(w http.ResponseWriter, r *http.Request, userID string) {
	raw, err := s.decodeRecord(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.deps.Memory.PutProfile(r.Context(), userID, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleMergeText merges free text through the oracle
func (s *Server) handleMergeText(w http.ResponseWriter, r *http.Request, userID string) {
	var req types.MergeTextRequest
	if err := s.decodeRequest(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Memory.MergeFreeText(r.Context(), userID, o, req.Text)
	})
}

// handleMergeQnA merges a batch of answered questions in one oracle call
func (s *Server) handleMergeQnA(w http.ResponseWriter, r *http.Request, userID string) {
	var req types.MergeQnARequest
	if err := s.decodeRequest(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Memory.MergeBatchQnA(r.Context(), userID, o, req.Pairs)
	})
}

// handleAnswerQuestion merges a single answer
func (s *Server) handleAnswerQuestion(w http.ResponseWriter, r *http.Request, userID string) {
	var req types.QnAPair
	if err := s.decodeRequest(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Memory.AnswerQuestion(r.Context(), userID, o, req)
	})
}

// handleMergeFiles extracts the text of uploaded documents and merges it in one call
func (s *Server) handleMergeFiles(w http.ResponseWriter, r *http.Request, userID string) {
	files, err := s.readUploads(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	docs, err := ingestion.ExtractAll(r.Context(), s.deps.Extractor, files, s.deps.ExtractConcurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	texts, names := ingestion.Texts(docs)
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Memory.MergeFiles(r.Context(), userID, o, texts, names)
	})
}

// handleExtractFiles asks the oracle for structured career facts in the uploaded
// documents and merges them without a reconciliation call
func (s *Server) handleExtractFiles(w http.ResponseWriter, r *http.Request, userID string) {
	files, err := s.readUploads(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	docs, err := ingestion.ExtractAll(r.Context(), s.deps.Extractor, files, s.deps.ExtractConcurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	texts, _ := ingestion.Texts(docs)
	s.withOracle(w, r, func(o Oracle) (any, error) {
		facts, err := ingestion.ExtractFacts(r.Context(), o, strings.Join(texts, memory.FileBreak))
		if err != nil {
			return nil, &memory.MergeFailedError{Message: "fact extraction failed", Cause: err}
		}
		return s.deps.Memory.MergeRecords(r.Context(), userID, facts)
	})
}

// handleMergeRecords merges already-structured records without the oracle
func (s *Server) handleMergeRecords(w http.ResponseWriter, r *http.Request, userID string) {
	raw, err := s.decodeRecord(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.deps.Memory.MergeRecords(r.Context(), userID, raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, profile)
}

// handleGenerateQuestions appends clarifying questions to the profile
func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request, userID string) {
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Memory.GenerateQuestions(r.Context(), userID, o)
	})
}

// handleOptimizeSkills replaces the skill list with the oracle's cleaned-up one
func (s *Server) handleOptimizeSkills(w http.ResponseWriter, r *http.Request, userID string) {
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Memory.OptimizeSkills(r.Context(), userID, o)
	})
}

// handleImportProjects analyzes repositories and stores them as external projects.
// Without explicit repos the caller's repositories are listed with their token.
func (s *Server) handleImportProjects(w http.ResponseWriter, r *http.Request, userID string) {
	var req types.ImportProjectsRequest
	if err := s.decodeJSON(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Token == "" {
		req.Token = strings.TrimSpace(r.Header.Get(HeaderGitHubToken))
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	var client RepoClient
	if req.Token != "" {
		var err error
		if client, err = s.repoClient(r, req.Token); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	s.withOracle(w, r, func(o Oracle) (any, error) {
		repos := req.Repos
		var readmes memory.ReadmeSource
		if client != nil {
			readmes = client
			if len(repos) == 0 {
				listed, err := client.ListRepos(r.Context())
				if err != nil {
					return nil, err
				}
				repos = listed
			}
		}
		return s.deps.Memory.ImportExternalProjects(r.Context(), userID, o, readmes, repos)
	})
}

// handleScoreProjects scores every external project against a target role
func (s *Server) handleScoreProjects(w http.ResponseWriter, r *http.Request, userID string) {
	var req types.ScoreProjectsRequest
	if err := s.decodeRequest(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withOracle(w, r, func(o Oracle) (any, error) {
		return s.deps.Memory.ScoreExternalProjects(r.Context(), userID, o, req.Role)
	})
}
