package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-memory/internal/db"
	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/sanitize"
	"github.com/jonathan/resume-memory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu        sync.Mutex
	merges    map[string]int
	failures  map[string]int
	conflicts map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{merges: map[string]int{}, failures: map[string]int{}, conflicts: map[string]int{}}
}

func (o *recordingObserver) RecordMerge(op string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.merges[op]++
	if err != nil {
		o.failures[op]++
	}
}

func (o *recordingObserver) RecordConflict(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts[op]++
}

// conflictingStore loads a profile but always loses the save race
type conflictingStore struct{}

func (conflictingStore) LoadProfile(context.Context, string) (*types.MemoryProfile, error) {
	p := profileWith()
	p.Version = 3
	return p, nil
}

func (conflictingStore) SaveProfile(_ context.Context, userID string, p *types.MemoryProfile) (int64, error) {
	return 0, &db.VersionConflictError{UserID: userID, Expected: p.Version}
}

type stubReadmes map[string]string

func (s stubReadmes) Readme(_ context.Context, fullName string) (string, error) {
	if text, ok := s[fullName]; ok {
		return text, nil
	}
	return "", errors.New("404")
}

func seed(t *testing.T, store *db.MemStore, userID string, p *types.MemoryProfile) {
	t.Helper()
	_, err := store.SaveProfile(context.Background(), userID, p)
	require.NoError(t, err)
}

func newTestService(store Store, opts ...Option) *Service {
	return NewService(store, append([]Option{WithSanitizer(newTestSanitizer())}, opts...)...)
}

func TestService_GetProfileEmpty(t *testing.T) {
	svc := newTestService(db.NewMemStore())

	p, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, p.Experiences)
	assert.NotNil(t, p.Experiences)
	assert.Zero(t, p.Version)
}

func TestService_MergeFreeTextPersists(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	svc := newTestService(store)
	stub := &stubOracle{ReconcileFunc: func(*types.MemoryProfile, string) (any, error) {
		return map[string]any{"experiences": []any{map[string]any{"role": "Backend Intern", "company": "Acme"}}}, nil
	}}

	out, err := svc.MergeFreeText(ctx, "u1", stub, "Backend Intern at Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Version)

	stored, err := store.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Experiences, 1)
	assert.Equal(t, "Acme", stored.Experiences[0].Company)

	// The same entity reported again is recognized by its natural key.
	out, err = svc.MergeFreeText(ctx, "u1", stub, "Backend Intern at Acme")
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Version)
	assert.Len(t, out.Experiences, 1)
}

func TestService_FailedMergeSavesNothing(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	seed(t, store, "u1", profileWith())
	observer := newRecordingObserver()
	svc := newTestService(store, WithObserver(observer))

	out, err := svc.MergeFreeText(ctx, "u1", &stubOracle{Err: &oracle.UnavailableError{Message: "timeout"}}, "text")

	var failed *MergeFailedError
	require.ErrorAs(t, err, &failed)
	assert.Len(t, out.Experiences, 2)

	stored, err := store.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, 1, observer.failures["merge_text"])
}

func TestService_ConcurrentMergesAreSerialized(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	svc := newTestService(store)

	const writers = 12
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			skill := fmt.Sprintf("skill-%d", i)
			stub := &stubOracle{ReconcileFunc: func(*types.MemoryProfile, string) (any, error) {
				return map[string]any{"skills": []any{skill}}, nil
			}}
			_, err := svc.MergeFreeText(ctx, "u1", stub, "I know "+skill)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := store.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, stored.Skills, writers, "no update is lost")
	assert.Equal(t, int64(writers), stored.Version)
}

func TestService_VersionConflict(t *testing.T) {
	observer := newRecordingObserver()
	svc := newTestService(conflictingStore{}, WithObserver(observer))
	stub := &stubOracle{ReconcileFunc: func(*types.MemoryProfile, string) (any, error) {
		return map[string]any{"skills": []any{"SQL"}}, nil
	}}

	out, err := svc.MergeFreeText(context.Background(), "u1", stub, "I know SQL")

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	var stale *db.VersionConflictError
	assert.ErrorAs(t, err, &stale)
	assert.Equal(t, []string{"Go"}, out.Skills)
	assert.Equal(t, 1, observer.conflicts["merge_text"])
}

func TestService_CancelledContextSavesNothing(t *testing.T) {
	store := db.NewMemStore()
	svc := newTestService(store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.MergeRecords(ctx, "u1", map[string]any{"skills": []any{"Go"}})
	require.Error(t, err)

	stored, err := store.LoadProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestService_RequiresUserID(t *testing.T) {
	_, err := newTestService(db.NewMemStore()).MergeRecords(context.Background(), " ", map[string]any{"skills": []any{"Go"}})
	assert.Error(t, err)
}

func TestService_PutProfileTakesEverySection(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	seed(t, store, "u1", profileWith())
	svc := newTestService(store)

	out, err := svc.PutProfile(ctx, "u1", map[string]any{
		"experiences":    []any{map[string]any{"id": "a", "role": "Staff Engineer", "company": "Acme"}},
		"rawSourceFiles": []any{"edited.txt"},
	})
	require.NoError(t, err)

	assert.Len(t, out.Experiences, 1)
	assert.Equal(t, []string{"edited.txt"}, out.RawSourceFiles)
	assert.Empty(t, out.QnA)
	assert.Equal(t, int64(2), out.Version)
	assert.Equal(t, fixedNow, out.LastUpdated)
}

func TestService_MergeBatchQnA_SingleCall(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	seed(t, store, "u1", profileWith())
	svc := newTestService(store)
	stub := &stubOracle{ReconcileFunc: func(*types.MemoryProfile, string) (any, error) {
		return map[string]any{"skills": []any{"PostgreSQL", "Team leadership"}}, nil
	}}

	out, err := svc.MergeBatchQnA(ctx, "u1", stub, []types.QnAPair{
		{QuestionID: "q1", Question: "How large was your team at Acme?", Answer: "I led six engineers."},
		{QuestionID: "q2", Question: "Which databases did you use?", Answer: "PostgreSQL."},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls("reconcile"))
	assert.Equal(t, []string{"Go", "PostgreSQL", "Team leadership"}, out.Skills)
	assert.Empty(t, out.QnA)
}

func TestService_AnswerQuestion(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	seed(t, store, "u1", profileWith())
	svc := newTestService(store)
	stub := &stubOracle{ReconcileFunc: func(*types.MemoryProfile, string) (any, error) {
		return map[string]any{"skills": []any{"MySQL"}}, nil
	}}

	out, err := svc.AnswerQuestion(ctx, "u1", stub, types.QnAPair{QuestionID: "q2", Question: "Which databases did you use?", Answer: "MySQL"})
	require.NoError(t, err)

	require.Len(t, out.QnA, 1)
	assert.Equal(t, "q1", out.QnA[0].ID)
}

func TestService_MergeFiles(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	svc := newTestService(store)
	stub := &stubOracle{ReconcileFunc: func(*types.MemoryProfile, string) (any, error) {
		return map[string]any{"educations": []any{map[string]any{"degree": "BSc Computer Science", "school": "State"}}}, nil
	}}

	out, err := svc.MergeFiles(ctx, "u1", stub, []string{"cv text", "transcript"}, []string{"cv.txt", "transcript.md"})
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls("reconcile"))
	assert.Equal(t, []string{"cv.txt", "transcript.md"}, out.RawSourceFiles)
	assert.Len(t, out.Educations, 1)
}

func TestService_GenerateQuestions(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	seed(t, store, "u1", profileWith())
	svc := newTestService(store)
	stub := &stubOracle{QuestionsResp: map[string]any{"questions": []any{
		map[string]any{"question": "What did you build at Initech?"},
		map[string]any{"question": "How large was your team at Acme?"},
	}}}

	out, err := svc.GenerateQuestions(ctx, "u1", stub)
	require.NoError(t, err)

	require.Len(t, out.QnA, 3)
	assert.Equal(t, "What did you build at Initech?", out.QnA[2].Question)
}

func TestService_GenerateQuestionsWithoutOracle(t *testing.T) {
	_, err := newTestService(db.NewMemStore()).GenerateQuestions(context.Background(), "u1", nil)

	var missing *oracle.ConfigurationMissingError
	assert.ErrorAs(t, err, &missing)
}

func TestService_OptimizeSkills(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	p := profileWith()
	p.Skills = []string{"golang", "Go", "postgres"}
	seed(t, store, "u1", p)
	svc := newTestService(store)

	out, err := svc.OptimizeSkills(ctx, "u1", &stubOracle{SkillsResp: map[string]any{"skills": []any{"Go", "PostgreSQL"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, out.Skills)
	assert.Equal(t, int64(2), out.Version)
}

func TestService_OptimizeSkillsUnchangedOnFailure(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	seed(t, store, "u1", profileWith())
	svc := newTestService(store)

	out, err := svc.OptimizeSkills(ctx, "u1", &stubOracle{Err: &oracle.MalformedResponseError{Message: "not JSON"}})
	require.Error(t, err)
	assert.Equal(t, []string{"Go"}, out.Skills)

	out, err = svc.OptimizeSkills(ctx, "u1", &stubOracle{SkillsResp: []any{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, out.Skills)
	assert.Equal(t, int64(1), out.Version, "nothing was saved")
}

func TestService_ImportExternalProjects(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	seed(t, store, "u1", profileWith())
	svc := newTestService(store, WithEnrichConcurrency(2))

	var mu sync.Mutex
	readmesSeen := map[string]string{}
	stub := &stubOracle{EnrichFunc: func(repo types.ExternalRepo, readme string) (any, error) {
		mu.Lock()
		readmesSeen[repo.FullName] = readme
		mu.Unlock()
		if repo.FullName == "me/broken" {
			return nil, &oracle.UnavailableError{Message: "quota"}
		}
		return map[string]any{"aiSummary": "Analyzed " + repo.Name, "completenessScore": 70, "workingStatus": "working"}, nil
	}}
	repos := []types.ExternalRepo{
		{Name: "ledger", FullName: "me/ledger"},
		{Name: "api", FullName: "me/api"},
		{Name: "broken", FullName: "me/broken"},
		{Name: "api", FullName: "me/api"},
	}

	out, err := svc.ImportExternalProjects(ctx, "u1", stub, stubReadmes{"me/api": "# API"}, repos)
	require.NoError(t, err)

	assert.Equal(t, 4, stub.calls("enrich"))
	assert.Equal(t, "# API", readmesSeen["me/api"])
	assert.Equal(t, "", readmesSeen["me/ledger"])

	require.Len(t, out.ExternalProjects, 3)
	byID := map[string]types.AnalyzedExternalProject{}
	for _, p := range out.ExternalProjects {
		byID[p.ID] = p
	}
	assert.Equal(t, "Analyzed ledger", byID["me/ledger"].Summary)
	assert.Equal(t, 70, byID["me/api"].CompletenessScore)
	assert.Equal(t, sanitize.FailedAnalysisSummary, byID["me/broken"].Summary)
	assert.Equal(t, "me/ledger", out.ExternalProjects[0].ID, "existing project keeps its position")
}

func TestService_ScoreExternalProjects(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemStore()
	p := profileWith()
	p.ExternalProjects = append(p.ExternalProjects, types.AnalyzedExternalProject{ID: "me/api"})
	seed(t, store, "u1", p)
	svc := newTestService(store)

	out, err := svc.ScoreExternalProjects(ctx, "u1", &stubOracle{ScoresResp: map[string]any{"scores": []any{
		map[string]any{"id": "me/api", "relevanceScore": 95},
		map[string]any{"id": "unknown/repo", "relevanceScore": 10},
	}}}, "Backend Engineer")
	require.NoError(t, err)

	require.Len(t, out.ExternalProjects, 2)
	assert.Nil(t, out.ExternalProjects[0].RelevanceScore)
	require.NotNil(t, out.ExternalProjects[1].RelevanceScore)
	assert.Equal(t, 95, *out.ExternalProjects[1].RelevanceScore)
}

func TestService_ScoreWithoutProjectsSkipsOracle(t *testing.T) {
	stub := &stubOracle{}
	_, err := newTestService(db.NewMemStore()).ScoreExternalProjects(context.Background(), "u1", stub, "SRE")
	require.NoError(t, err)
	assert.Zero(t, stub.calls("score"))
}
