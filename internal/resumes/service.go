// Package resumes generates, tailors and stores resume documents. A resume is a
// projection of the memory profile and never feeds back into it.
package resumes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-memory/internal/db"
	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/sanitize"
	"github.com/jonathan/resume-memory/internal/types"
)

// Research digests are built from at most this many runes of the job description
const (
	tailorResearchInput   = 1000
	generateResearchInput = 500
)

// Store persists resumes per user
type Store interface {
	ListResumes(ctx context.Context, userID string) ([]types.ResumeDocument, error)
	GetResume(ctx context.Context, userID, resumeID string) (*types.ResumeDocument, error)
	SaveResume(ctx context.Context, userID string, doc *types.ResumeDocument) error
	DeleteResume(ctx context.Context, userID, resumeID string) error
}

// ProfileSource provides the memory profile resumes are generated from
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (*types.MemoryProfile, error)
}

// Oracle is the set of model operations used for resumes. *oracle.Adapter implements it.
type Oracle interface {
	Research(ctx context.Context, query, background string) (*oracle.ResearchResult, error)
	GenerateResume(ctx context.Context, profile *types.MemoryProfile, research string) (any, error)
	Tailor(ctx context.Context, resume *types.ResumeDocument, jobDescription, research string) (any, error)
}

// Service manages a user's resumes
type Service struct {
	store     Store
	profiles  ProfileSource
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
}

// NewService creates a resume service. A nil sanitizer or logger uses the defaults.
func NewService(store Store, profiles ProfileSource, s *sanitize.Sanitizer, logger *zap.Logger) *Service {
	if s == nil {
		s = sanitize.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, profiles: profiles, sanitizer: s, logger: logger}
}

// List returns the user's resumes, most recent first
func (s *Service) List(ctx context.Context, userID string) ([]types.ResumeDocument, error) {
	docs, err := s.store.ListResumes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	out := make([]types.ResumeDocument, len(docs))
	for i := range docs {
		out[i] = s.sanitizer.ResanitizeDocument(&docs[i])
	}
	return out, nil
}

// Get returns one resume or *NotFoundError
func (s *Service) Get(ctx context.Context, userID, resumeID string) (*types.ResumeDocument, error) {
	doc, err := s.store.GetResume(ctx, userID, resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	if doc == nil {
		return nil, &NotFoundError{ID: resumeID}
	}
	healed := s.sanitizer.ResanitizeDocument(doc)
	return &healed, nil
}

// Save sanitizes and stores a user-edited resume. A non-empty resumeID overrides any
// id in raw; a resume without an id gets a new one.
func (s *Service) Save(ctx context.Context, userID, resumeID string, raw any) (*types.ResumeDocument, error) {
	doc := s.sanitizer.Document(raw)
	if resumeID != "" {
		doc.ID = resumeID
	}
	doc.LastModified = s.sanitizer.Now().UnixMilli()
	if err := s.store.SaveResume(ctx, userID, &doc); err != nil {
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}
	return &doc, nil
}

// Delete removes a resume or returns *NotFoundError
func (s *Service) Delete(ctx context.Context, userID, resumeID string) error {
	err := s.store.DeleteResume(ctx, userID, resumeID)
	var notFound *db.NotFoundError
	if errors.As(err, &notFound) {
		return &NotFoundError{ID: resumeID}
	}
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	return nil
}

// Generate builds a new resume from the user's memory profile. Research is focused
// on the job description when given, otherwise on the most recent role.
func (s *Service) Generate(ctx context.Context, userID string, o Oracle, jobDescription string) (*types.ResumeDocument, error) {
	if o == nil {
		return nil, &oracle.ConfigurationMissingError{}
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var research *oracle.ResearchResult
	if jd := strings.TrimSpace(jobDescription); jd != "" {
		research = s.research(ctx, o, "Job Research", oracle.Truncate(jd, generateResearchInput))
	} else {
		role := "General"
		if len(profile.Experiences) > 0 && profile.Experiences[0].Role != "" {
			role = profile.Experiences[0].Role
		}
		research = s.research(ctx, o, "Role Research", role)
	}

	raw, err := o.GenerateResume(ctx, profile, research.Summary)
	if err != nil {
		return nil, err
	}
	doc := s.sanitizer.Document(raw)
	doc.ID = s.sanitizer.NewID()
	doc.LastModified = s.sanitizer.Now().UnixMilli()
	doc.ResearchContext = contextOf(research)

	if err := s.store.SaveResume(ctx, userID, &doc); err != nil {
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}
	return &doc, nil
}

// Tailor rewrites an existing resume for jobDescription. Fields the oracle leaves out
// keep their previous values and the resume keeps its ID.
func (s *Service) Tailor(ctx context.Context, userID string, o Oracle, resumeID, jobDescription string) (*types.ResumeDocument, error) {
	if o == nil {
		return nil, &oracle.ConfigurationMissingError{}
	}
	current, err := s.Get(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}

	research := s.research(ctx, o, "Company values & role reqs", oracle.Truncate(jobDescription, tailorResearchInput))
	raw, err := o.Tailor(ctx, current, jobDescription, research.Summary)
	if err != nil {
		return nil, err
	}

	doc := s.sanitizer.OverlayDocument(current, raw)
	doc.ID = current.ID
	doc.LastModified = s.sanitizer.Now().UnixMilli()
	doc.ResearchContext = contextOf(research)

	if err := s.store.SaveResume(ctx, userID, &doc); err != nil {
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}
	return &doc, nil
}

// research runs a grounded query. Failures are logged and yield an empty result.
func (s *Service) research(ctx context.Context, o Oracle, query, background string) *oracle.ResearchResult {
	start := time.Now()
	res, err := o.Research(ctx, query, background)
	if err != nil || res == nil {
		s.logger.Warn("research failed, continuing without it",
			zap.String("query", query),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return &oracle.ResearchResult{Citations: []types.GroundingCitation{}}
	}
	return res
}

func contextOf(r *oracle.ResearchResult) *types.ResearchContext {
	if r.Summary == "" && len(r.Citations) == 0 {
		return nil
	}
	sources := append([]types.GroundingCitation{}, r.Citations...)
	return &types.ResearchContext{Summary: r.Summary, Sources: sources}
}
