package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-memory/internal/db"
	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/sanitize"
	"github.com/jonathan/resume-memory/internal/types"
)

// QuestionCount is how many clarifying questions are requested at a time
const QuestionCount = 3

// DefaultEnrichConcurrency bounds parallel repository analyses during an import
const DefaultEnrichConcurrency = 4

// Store persists one profile per user. SaveProfile must reject a profile whose
// Version no longer matches the stored one with a *db.VersionConflictError.
type Store interface {
	LoadProfile(ctx context.Context, userID string) (*types.MemoryProfile, error)
	SaveProfile(ctx context.Context, userID string, profile *types.MemoryProfile) (int64, error)
}

// Oracle is the set of model operations the service drives. *oracle.Adapter implements it.
type Oracle interface {
	ProfileOracle
	Questions(ctx context.Context, profile *types.MemoryProfile, count int) (any, error)
	OptimizeSkills(ctx context.Context, skills []string) (any, error)
	Enrich(ctx context.Context, repo types.ExternalRepo, readme string) (any, error)
	ScoreProjects(ctx context.Context, role string, projects []types.AnalyzedExternalProject) (any, error)
}

// ReadmeSource fetches repository READMEs for enrichment
type ReadmeSource interface {
	Readme(ctx context.Context, fullName string) (string, error)
}

// Service loads, reconciles and saves user profiles. Every update holds the user's
// lock for its whole duration and is saved with a version check.
type Service struct {
	store             Store
	locker            Locker
	sanitizer         *sanitize.Sanitizer
	logger            *zap.Logger
	observer          Observer
	enrichConcurrency int
}

// Option configures a Service
type Option func(*Service)

// WithLocker replaces the default in-process lock
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithSanitizer sets the ID source and clock used for new entities
func WithSanitizer(san *sanitize.Sanitizer) Option {
	return func(s *Service) {
		if san != nil {
			s.sanitizer = san
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver sets the metrics observer
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithEnrichConcurrency bounds parallel repository analyses
func WithEnrichConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.enrichConcurrency = n
		}
	}
}

// NewService creates a Service over store
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:             store,
		locker:            NewKeyedMutex(),
		sanitizer:         sanitize.New(),
		logger:            zap.NewNop(),
		observer:          nopObserver{},
		enrichConcurrency: DefaultEnrichConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProfile returns the user's profile, healed by the sanitizer. A user with no
// saved profile gets an empty one.
func (s *Service) GetProfile(ctx context.Context, userID string) (*types.MemoryProfile, error) {
	return s.load(ctx, userID)
}

// PutProfile replaces the user's profile with the sanitized form of raw. It is the
// save path for direct user edits, so every section including the caller-owned
// lists is taken from raw.
func (s *Service) PutProfile(ctx context.Context, userID string, raw any) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "put", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		p := s.sanitizer.Profile(raw)
		p.Version = existing.Version
		p.LastUpdated = nextTimestamp(existing.LastUpdated, s.sanitizer.Now())
		return &p, nil
	})
}

// MergeFreeText merges unstructured text into the user's profile
func (s *Service) MergeFreeText(ctx context.Context, userID string, o ProfileOracle, text string) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "merge_text", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		return s.reconciler(o).MergeFreeText(ctx, existing, text, MergeOptions{})
	})
}

// MergeBatchQnA merges answered questions in a single oracle call
func (s *Service) MergeBatchQnA(ctx context.Context, userID string, o ProfileOracle, pairs []types.QnAPair) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "merge_qna", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		return s.reconciler(o).MergeBatchQnA(ctx, existing, pairs, MergeOptions{})
	})
}

// AnswerQuestion merges one answer and removes its question
func (s *Service) AnswerQuestion(ctx context.Context, userID string, o ProfileOracle, pair types.QnAPair) (*types.MemoryProfile, error) {
	return s.MergeBatchQnA(ctx, userID, o, []types.QnAPair{pair})
}

// MergeFiles merges extracted document texts and records their filenames
func (s *Service) MergeFiles(ctx context.Context, userID string, o ProfileOracle, texts, filenames []string) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "merge_files", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		return s.reconciler(o).MergeStructuredFiles(ctx, existing, texts, filenames, MergeOptions{})
	})
}

// MergeRecords merges an already-structured batch without calling the oracle
func (s *Service) MergeRecords(ctx context.Context, userID string, raw any) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "merge_records", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		return s.reconciler(nil).MergeRecords(existing, raw, MergeOptions{})
	})
}

// GenerateQuestions asks the oracle for clarifying questions and appends them to
// the open list
func (s *Service) GenerateQuestions(ctx context.Context, userID string, o Oracle) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "questions", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		if o == nil {
			return existing, &oracle.ConfigurationMissingError{}
		}
		raw, err := o.Questions(ctx, existing, QuestionCount)
		if err != nil {
			return existing, err
		}
		return s.reconciler(nil).AppendQuestions(existing, sanitize.Unwrap(raw, "questions")), nil
	})
}

// OptimizeSkills replaces the skill list with the oracle's cleaned-up version. The
// skills are left unchanged when the oracle fails or returns nothing usable.
func (s *Service) OptimizeSkills(ctx context.Context, userID string, o Oracle) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "optimize_skills", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		if len(existing.Skills) == 0 {
			return nil, nil
		}
		if o == nil {
			return existing, &oracle.ConfigurationMissingError{}
		}
		raw, err := o.OptimizeSkills(ctx, existing.Skills)
		if err != nil {
			return existing, err
		}
		out, changed := s.reconciler(nil).ReplaceSkills(existing, sanitize.Unwrap(raw, "skills"))
		if !changed {
			return nil, nil
		}
		return out, nil
	})
}

// ImportExternalProjects analyzes repos and upserts the results by repository name.
// Analyses run outside the profile lock; a repository whose analysis fails is
// recorded with a default analysis rather than failing the import.
func (s *Service) ImportExternalProjects(ctx context.Context, userID string, o Oracle, readmes ReadmeSource, repos []types.ExternalRepo) (*types.MemoryProfile, error) {
	if o == nil {
		return nil, &oracle.ConfigurationMissingError{}
	}
	analyzed, err := s.enrichAll(ctx, o, readmes, repos)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, userID, "import_projects", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		if len(analyzed) == 0 {
			return nil, nil
		}
		return s.reconciler(nil).UpsertExternalProjects(existing, analyzed), nil
	})
}

// ScoreExternalProjects sets the relevance of each analyzed project to role in one
// oracle call. Projects the oracle did not score keep their previous score.
func (s *Service) ScoreExternalProjects(ctx context.Context, userID string, o Oracle, role string) (*types.MemoryProfile, error) {
	return s.update(ctx, userID, "score_projects", func(existing *types.MemoryProfile) (*types.MemoryProfile, error) {
		if len(existing.ExternalProjects) == 0 {
			return nil, nil
		}
		if o == nil {
			return existing, &oracle.ConfigurationMissingError{}
		}
		raw, err := o.ScoreProjects(ctx, role, existing.ExternalProjects)
		if err != nil {
			return existing, err
		}
		scores := sanitize.RelevanceScores(raw)
		if len(scores) == 0 {
			return nil, nil
		}
		projects := make([]types.AnalyzedExternalProject, len(existing.ExternalProjects))
		for i, p := range existing.ExternalProjects {
			p = p.Clone()
			if score, ok := scores[p.ID]; ok {
				p.RelevanceScore = &score
			}
			projects[i] = p
		}
		return s.reconciler(nil).UpsertExternalProjects(existing, projects), nil
	})
}

func (s *Service) enrichAll(ctx context.Context, o Oracle, readmes ReadmeSource, repos []types.ExternalRepo) ([]types.AnalyzedExternalProject, error) {
	out := make([]types.AnalyzedExternalProject, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)
	for i, repo := range repos {
		g.Go(func() error {
			out[i] = s.enrich(gctx, o, readmes, repo)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, &MergeFailedError{Message: "import abandoned", Cause: err}
	}

	kept := out[:0]
	seen := make(map[string]struct{}, len(out))
	for _, p := range out {
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		kept = append(kept, p)
	}
	return kept, nil
}

func (s *Service) enrich(ctx context.Context, o Oracle, readmes ReadmeSource, repo types.ExternalRepo) types.AnalyzedExternalProject {
	var readme string
	if readmes != nil {
		text, err := readmes.Readme(ctx, repo.FullName)
		if err != nil {
			s.logger.Debug("readme unavailable", zap.String("repo", repo.FullName), zap.Error(err))
		}
		readme = text
	}
	raw, err := o.Enrich(ctx, repo, readme)
	if err != nil {
		s.logger.Warn("repository analysis failed", zap.String("repo", repo.FullName), zap.Error(err))
		return sanitize.FailedAnalysis(repo)
	}
	return sanitize.EnrichedProject(repo, raw)
}

// update runs fn against the current profile under the user's lock and saves the
// result. fn returning a nil profile and nil error means nothing changed. On error
// the previous profile is returned and nothing is saved.
func (s *Service) update(ctx context.Context, userID, op string, fn func(*types.MemoryProfile) (*types.MemoryProfile, error)) (_ *types.MemoryProfile, err error) {
	start := time.Now()
	defer func() {
		s.observer.RecordMerge(op, time.Since(start), err)
		if err != nil {
			s.logger.Warn("profile update failed",
				zap.String("user_id", userID),
				zap.String("operation", op),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			return
		}
		s.logger.Info("profile updated",
			zap.String("user_id", userID),
			zap.String("operation", op),
			zap.Duration("duration", time.Since(start)))
	}()

	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("user id is required")
	}
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := fn(existing)
	if err != nil {
		return existing, err
	}
	if next == nil {
		return existing, nil
	}
	if err := ctx.Err(); err != nil {
		return existing, &MergeFailedError{Message: "merge abandoned", Cause: err}
	}

	version, err := s.store.SaveProfile(ctx, userID, next)
	if err != nil {
		var conflict *db.VersionConflictError
		if errors.As(err, &conflict) {
			s.observer.RecordConflict(op)
			return existing, &ConflictError{UserID: userID, Cause: err}
		}
		return existing, fmt.Errorf("failed to save profile: %w", err)
	}
	next.Version = version
	return next, nil
}

func (s *Service) load(ctx context.Context, userID string) (*types.MemoryProfile, error) {
	stored, err := s.store.LoadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if stored == nil {
		return types.NewMemoryProfile(0), nil
	}
	healed := s.sanitizer.Resanitize(stored)
	return &healed, nil
}

func (s *Service) reconciler(o ProfileOracle) *Reconciler {
	return NewReconciler(o, s.sanitizer)
}
