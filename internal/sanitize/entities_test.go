package sanitize

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonathan/resume-memory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixedNow = int64(1700000000000)

// newTestSanitizer returns a sanitizer with sequential IDs and a frozen clock
func newTestSanitizer() *Sanitizer {
	n := 0
	return &Sanitizer{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time { return time.UnixMilli(fixedNow) },
	}
}

func TestExperience_SynonymEquivalence(t *testing.T) {
	a := newTestSanitizer().Experience(map[string]any{"title": "Engineer", "organization": "Acme"})
	b := newTestSanitizer().Experience(map[string]any{"role": "Engineer", "company": "Acme"})

	assert.Equal(t, a, b)
	assert.Equal(t, "Engineer", a.Role)
	assert.Equal(t, "Acme", a.Company)
}

func TestExperience_PlaceholdersWhenMissing(t *testing.T) {
	got := newTestSanitizer().Experience(nil)

	assert.Equal(t, types.ExperienceEntity{
		ID:      "id-1",
		Role:    PlaceholderRole,
		Company: PlaceholderCompany,
	}, got)
}

func TestExperience_SynonymOrderAndTypes(t *testing.T) {
	got := newTestSanitizer().Experience(map[string]any{
		"id":               17.0,
		"role":             "",
		"position":         "Staff Engineer",
		"company":          []any{"nested"},
		"start_date":       2019.0,
		"endDate":          "Present",
		"responsibilities": []any{"Built [X] services", "Mentored engineers"},
	})

	assert.Equal(t, "17", got.ID)
	assert.Equal(t, "Staff Engineer", got.Role)
	assert.Equal(t, `["nested"]`, got.Company)
	assert.Equal(t, "2019", got.StartDate)
	assert.Equal(t, "Present", got.EndDate)
	assert.Equal(t, "Built  services\nMentored engineers", got.Description)
}

func TestExperience_IDIsNotResynthesized(t *testing.T) {
	s := newTestSanitizer()
	first := s.Experience(map[string]any{"role": "Engineer"})
	require.Equal(t, "id-1", first.ID)

	again := s.Experience(roundTrip(first))
	assert.Equal(t, first, again)
}

func TestEducation(t *testing.T) {
	got := newTestSanitizer().Education(map[string]any{
		"qualification": "BSc Computer Science",
		"university":    "State University",
		"year":          2021.0,
	})

	assert.Equal(t, types.EducationEntity{
		ID:     "id-1",
		Degree: "BSc Computer Science",
		School: "State University",
		Year:   "2021",
	}, got)
}

func TestProject_LinksResolvedIndependently(t *testing.T) {
	got := newTestSanitizer().Project(map[string]any{
		"title":   "Ledger",
		"details": "Double-entry accounting",
		"url":     "https://ledger.example.com",
		"github":  "https://github.com/me/ledger",
	})

	assert.Equal(t, "Ledger", got.Name)
	assert.Equal(t, "Double-entry accounting", got.Description)
	assert.Equal(t, "https://ledger.example.com", got.Link)
	assert.Equal(t, "https://github.com/me/ledger", got.RepoLink)

	noName := newTestSanitizer().Project(map[string]any{})
	assert.Empty(t, noName.Name)
	assert.Empty(t, noName.Link)
}

func TestLeadership(t *testing.T) {
	got := newTestSanitizer().Leadership(map[string]any{
		"id":            "lead-1",
		"name":          "Robotics Club President",
		"contributions": []string{"Organized meetups", "Ran workshops"},
		"dates":         "2018-2019",
	})

	assert.Equal(t, types.LeadershipEntity{
		ID:          "lead-1",
		Name:        "Robotics Club President",
		Description: "Organized meetups\nRan workshops",
		DateRange:   "2018-2019",
	}, got)
}

func TestQnA_Defaults(t *testing.T) {
	got := newTestSanitizer().QnA(map[string]any{"question": 5.0})

	assert.Equal(t, "Details needed.", got.Question)
	assert.Equal(t, []string{}, got.Options)
	assert.Equal(t, fixedNow, got.DateAdded)

	kept := newTestSanitizer().QnA(map[string]any{
		"id":        "q1",
		"question":  "Which cloud?",
		"options":   []any{"AWS", "GCP"},
		"dateAdded": 1234.0,
	})
	assert.Equal(t, types.QnAItem{ID: "q1", Question: "Which cloud?", Options: []string{"AWS", "GCP"}, DateAdded: 1234}, kept)
}

func TestPersonalInfo_FallbackSummary(t *testing.T) {
	s := newTestSanitizer()

	got := s.PersonalInfo(map[string]any{"name": "Ada Lovelace", "linkedIn": "in/ada"}, "Analyst [X]")
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Equal(t, "in/ada", got.LinkedIn)
	assert.Equal(t, "Analyst", got.Summary)

	own := s.PersonalInfo(map[string]any{"summary": "Own summary"}, "ignored")
	assert.Equal(t, "Own summary", own.Summary)
}

func TestEnrichedProject(t *testing.T) {
	repo := types.ExternalRepo{
		Name:        "ledger",
		FullName:    "me/ledger",
		Description: " Accounting ",
		HTMLURL:     "https://github.com/me/ledger",
		Language:    "Go",
		PushedAt:    "2024-01-02T00:00:00Z",
	}
	got := EnrichedProject(repo, map[string]any{
		"repoName":              "someone-else/hijack",
		"completenessScore":     150.0,
		"workingStatus":         "Working",
		"activityLevel":         "frantic",
		"advancedTechUsed":      []any{"Go", "Go", "Postgres"},
		"domainSpecific":        []any{"fintech"},
		"suggestedBulletPoints": []any{"Built CLI [X]"},
		"majorProject":          true,
		"aiSummary":             "A ledger.",
		"relevanceScore":        "88",
	})

	assert.Equal(t, "me/ledger", got.ID)
	assert.Equal(t, "me/ledger", got.RepoName)
	assert.Equal(t, "Accounting", got.Description)
	assert.Equal(t, 100, got.CompletenessScore)
	assert.Equal(t, types.WorkingStatusWorking, got.WorkingStatus)
	assert.Equal(t, types.ActivityLow, got.ActivityLevel)
	assert.Equal(t, []string{"Go", "Postgres"}, got.Technologies)
	assert.Equal(t, []string{"fintech"}, got.DomainTags)
	assert.Equal(t, []string{"Built CLI"}, got.SuggestedBullets)
	assert.True(t, got.MajorProject)
	assert.Equal(t, "A ledger.", got.Summary)
	require.NotNil(t, got.RelevanceScore)
	assert.Equal(t, 88, *got.RelevanceScore)
}

func TestFailedAnalysis(t *testing.T) {
	got := FailedAnalysis(types.ExternalRepo{Name: "solo"})

	assert.Equal(t, "solo", got.ID)
	assert.Equal(t, FailedAnalysisSummary, got.Summary)
	assert.Equal(t, types.WorkingStatusUnknown, got.WorkingStatus)
	assert.Equal(t, types.ActivityLow, got.ActivityLevel)
	assert.Equal(t, []string{}, got.Technologies)
	assert.Nil(t, got.RelevanceScore)
}

func TestExternalProject_FromPersistedRecord(t *testing.T) {
	got := newTestSanitizer().ExternalProject(map[string]any{
		"full_name":     "me/site",
		"html_url":      "https://github.com/me/site",
		"pushed_at":     "2023-05-01",
		"workingStatus": "broken",
		"activityLevel": "HIGH",
	})

	assert.Equal(t, "me/site", got.ID)
	assert.Equal(t, "me/site", got.RepoName)
	assert.Equal(t, "https://github.com/me/site", got.HTMLURL)
	assert.Equal(t, "2023-05-01", got.LastActivity)
	assert.Equal(t, types.WorkingStatusNotWorking, got.WorkingStatus)
	assert.Equal(t, types.ActivityHigh, got.ActivityLevel)
}

func TestRelevanceScores(t *testing.T) {
	raw := map[string]any{"scores": []any{
		map[string]any{"id": "me/api", "relevanceScore": 87.6},
		map[string]any{"id": "me/cli", "relevanceScore": "n/a"},
		map[string]any{"relevanceScore": 50},
		map[string]any{"id": "me/huge", "score": 400},
	}}

	assert.Equal(t, map[string]int{"me/api": 88, "me/huge": 100}, RelevanceScores(raw))
	assert.Empty(t, RelevanceScores("garbage"))
}
