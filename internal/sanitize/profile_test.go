package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/resume-memory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messyProfile() map[string]any {
	return map[string]any{
		"summary":      "Backend engineer with [X] years of experience",
		"personalInfo": map[string]any{"name": "Ada", "email": "ada@example.com"},
		"experience": []any{
			map[string]any{"title": "Engineer", "organization": "Acme", "description": []any{"Built APIs", "Ran [50]% of on-call"}},
		},
		"experiences": []any{
			map[string]any{"id": "exp-1", "role": "Lead", "company": "Globex"},
		},
		"internships": []any{
			map[string]any{"position": "Intern", "company": "Initech"},
		},
		"education": []any{
			map[string]any{"degree": "BSc", "school": "State", "year": 2020.0},
		},
		"projects":   []any{map[string]any{"name": "Ledger", "url": "https://x"}},
		"activities": []any{map[string]any{"title": "Mentor"}},
		"skills":     []any{"Go", map[string]any{"name": "SQL"}, "Go", ""},
		"qna":        []any{map[string]any{"question": "Which team?"}},
		"rawSourceFiles": []any{"cv.pdf", "cv.pdf", "notes.txt"},
		"githubProjects": []any{
			map[string]any{"repoName": "me/ledger", "completenessScore": 70.0},
		},
	}
}

func TestProfile_IsFixedPoint(t *testing.T) {
	s := newTestSanitizer()
	first := s.Profile(messyProfile())
	second := s.Profile(roundTrip(first))

	assert.Equal(t, first, second)
	assert.Equal(t, first, s.Resanitize(&first))
}

func TestProfile_Deterministic(t *testing.T) {
	a, err := json.Marshal(newTestSanitizer().Profile(messyProfile()))
	require.NoError(t, err)
	b, err := json.Marshal(newTestSanitizer().Profile(messyProfile()))
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestProfile_ConcatenatesSynonymListsAndInternships(t *testing.T) {
	p := newTestSanitizer().Profile(messyProfile())

	require.Len(t, p.Experiences, 3)
	assert.Equal(t, "Lead", p.Experiences[0].Role)
	assert.Equal(t, "Engineer", p.Experiences[1].Role)
	assert.Equal(t, "Intern", p.Experiences[2].Role)
	assert.Equal(t, "Initech", p.Experiences[2].Company)
	assert.Equal(t, "Built APIs\nRan  of on-call", p.Experiences[1].Description)

	require.Len(t, p.LeadershipActivities, 1)
	assert.Equal(t, "Mentor", p.LeadershipActivities[0].Name)
	require.Len(t, p.ExternalProjects, 1)
	assert.Equal(t, "me/ledger", p.ExternalProjects[0].ID)
	assert.Equal(t, 70, p.ExternalProjects[0].CompletenessScore)
}

func TestProfile_InternshipsOnlyAreExperiences(t *testing.T) {
	p := newTestSanitizer().Profile(map[string]any{
		"internships": []any{map[string]any{"role": "Backend Intern", "company": "Acme"}},
	})

	require.Len(t, p.Experiences, 1)
	assert.Equal(t, "Backend Intern", p.Experiences[0].Role)
}

func TestProfile_TopLevelFields(t *testing.T) {
	p := newTestSanitizer().Profile(messyProfile())

	assert.Equal(t, "Ada", p.PersonalInfo.FullName)
	assert.Equal(t, "Backend engineer with  years of experience", p.PersonalInfo.Summary)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Equal(t, []string{"cv.pdf", "notes.txt"}, p.RawSourceFiles)
	assert.Equal(t, fixedNow, p.LastUpdated)
	require.Len(t, p.QnA, 1)
	assert.Equal(t, fixedNow, p.QnA[0].DateAdded)

	kept := newTestSanitizer().Profile(map[string]any{"lastUpdated": 42.0})
	assert.Equal(t, int64(42), kept.LastUpdated)
}

func TestProfile_DuplicateIDsCollapse(t *testing.T) {
	p := newTestSanitizer().Profile(map[string]any{
		"experiences": []any{
			map[string]any{"id": "a", "role": "First"},
			map[string]any{"id": "a", "role": "Second"},
		},
		"experience": []any{map[string]any{"id": "a", "role": "Third"}},
	})

	require.Len(t, p.Experiences, 1)
	assert.Equal(t, "First", p.Experiences[0].Role)
}

func TestProfile_NeverNil(t *testing.T) {
	inputs := map[string]any{
		"nil":     nil,
		"string":  "not a profile",
		"number":  42.0,
		"list":    []any{1.0, "two"},
		"empty":   map[string]any{},
		"wrong types": map[string]any{
			"personalInfo":   []any{"x"},
			"experiences":    "oops",
			"educations":     map[string]any{"degree": "BSc"},
			"projects":       []any{nil, 3.0, "text", []any{}},
			"skills":         7.0,
			"qna":            map[string]any{"question": "q"},
			"rawSourceFiles": []any{map[string]any{"deep": map[string]any{"deeper": []any{}}}},
			"lastUpdated":    "yesterday",
		},
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			var p types.MemoryProfile
			require.NotPanics(t, func() { p = newTestSanitizer().Profile(input) })

			assert.NotNil(t, p.Experiences)
			assert.NotNil(t, p.Educations)
			assert.NotNil(t, p.Projects)
			assert.NotNil(t, p.LeadershipActivities)
			assert.NotNil(t, p.Skills)
			assert.NotNil(t, p.RawSourceFiles)
			assert.NotNil(t, p.QnA)
			assert.NotNil(t, p.ExternalProjects)

			b, err := json.Marshal(p)
			require.NoError(t, err)
			assert.NotContains(t, string(b), "null")
		})
	}
}

func TestProfile_NonRecordEntitiesStillSanitized(t *testing.T) {
	p := newTestSanitizer().Profile(map[string]any{
		"projects": []any{nil, "text"},
	})

	require.Len(t, p.Projects, 2)
	assert.Equal(t, "id-1", p.Projects[0].ID)
	assert.Equal(t, "id-2", p.Projects[1].ID)
}

func TestResanitize_KeepsVersion(t *testing.T) {
	p := types.NewMemoryProfile(10)
	p.Version = 7
	p.Experiences = append(p.Experiences, types.ExperienceEntity{ID: "e1", Role: "  Engineer "})

	healed := Resanitize(p)
	assert.Equal(t, int64(7), healed.Version)
	assert.Equal(t, "Engineer", healed.Experiences[0].Role)
	assert.Equal(t, PlaceholderCompany, healed.Experiences[0].Company)

	assert.NotNil(t, Resanitize(nil).Experiences)
}
