package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/resume-memory/internal/sanitize"
	"github.com/jonathan/resume-memory/internal/types"
)

const fixedNow = int64(1700000000000)

// newTestSanitizer returns a sanitizer with sequential IDs and a frozen clock
func newTestSanitizer() *sanitize.Sanitizer {
	var mu sync.Mutex
	n := 0
	return &sanitize.Sanitizer{
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("new-%d", n)
		},
		Now: func() time.Time { return time.UnixMilli(fixedNow) },
	}
}

// stubOracle implements Oracle with canned responses and call counting
type stubOracle struct {
	mu sync.Mutex

	ReconcileFunc func(profile *types.MemoryProfile, text string) (any, error)
	QuestionsResp any
	SkillsResp    any
	ScoresResp    any
	EnrichFunc    func(repo types.ExternalRepo, readme string) (any, error)
	Err           error

	Calls map[string]int
	Texts []string
}

func (s *stubOracle) record(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Calls == nil {
		s.Calls = make(map[string]int)
	}
	s.Calls[method]++
}

func (s *stubOracle) calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[method]
}

func (s *stubOracle) Reconcile(_ context.Context, profile *types.MemoryProfile, text string) (any, error) {
	s.record("reconcile")
	s.mu.Lock()
	s.Texts = append(s.Texts, text)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.ReconcileFunc != nil {
		return s.ReconcileFunc(profile, text)
	}
	return map[string]any{}, nil
}

func (s *stubOracle) Questions(context.Context, *types.MemoryProfile, int) (any, error) {
	s.record("questions")
	return s.QuestionsResp, s.Err
}

func (s *stubOracle) OptimizeSkills(context.Context, []string) (any, error) {
	s.record("skills")
	return s.SkillsResp, s.Err
}

func (s *stubOracle) Enrich(_ context.Context, repo types.ExternalRepo, readme string) (any, error) {
	s.record("enrich")
	if s.EnrichFunc != nil {
		return s.EnrichFunc(repo, readme)
	}
	return map[string]any{}, s.Err
}

func (s *stubOracle) ScoreProjects(context.Context, string, []types.AnalyzedExternalProject) (any, error) {
	s.record("score")
	return s.ScoresResp, s.Err
}

// profileWith returns a profile holding experiences A (Engineer at Acme) and B (Analyst at Initech)
func profileWith() *types.MemoryProfile {
	p := types.NewMemoryProfile(fixedNow - 1000)
	p.Experiences = []types.ExperienceEntity{
		{ID: "a", Role: "Engineer", Company: "Acme", StartDate: "2019", Description: "Built services."},
		{ID: "b", Role: "Analyst", Company: "Initech", StartDate: "2016"},
	}
	p.Skills = []string{"Go"}
	p.RawSourceFiles = []string{"resume.pdf"}
	p.QnA = []types.QnAItem{
		{ID: "q1", Question: "How large was your team at Acme?", Options: []string{}, DateAdded: 1},
		{ID: "q2", Question: "Which databases did you use?", Options: []string{}, DateAdded: 2},
	}
	p.ExternalProjects = []types.AnalyzedExternalProject{
		{ID: "me/ledger", RepoName: "me/ledger", WorkingStatus: types.WorkingStatusWorking, ActivityLevel: types.ActivityLow,
			Technologies: []string{}, DomainTags: []string{}, SuggestedBullets: []string{}},
	}
	return p
}
