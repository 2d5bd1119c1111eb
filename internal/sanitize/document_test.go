package sanitize

import (
	"testing"

	"github.com/jonathan/resume-memory/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_Defaults(t *testing.T) {
	d := newTestSanitizer().Document(nil)

	assert.Equal(t, "id-1", d.ID)
	assert.Equal(t, DefaultResumeTitle, d.Title)
	assert.Equal(t, fixedNow, d.LastModified)
	assert.Equal(t, 0, d.ATSScore)
	assert.Nil(t, d.ResearchContext)
	assert.NotNil(t, d.Experience)
	assert.NotNil(t, d.Education)
	assert.NotNil(t, d.HiddenKeywords)
}

func TestDocument_Fields(t *testing.T) {
	d := newTestSanitizer().Document(map[string]any{
		"id":          "r1",
		"title":       "Platform Engineer",
		"atsScore":    "87.6",
		"experiences": []any{map[string]any{"title": "Engineer", "organization": "Acme"}},
		"internships": []any{map[string]any{"role": "Intern"}},
		"education":   []any{map[string]any{"school": "State"}},
		"researchContext": map[string]any{
			"summary": "Acme values reliability",
			"sources": []any{
				map[string]any{"uri": "https://acme.example/about", "title": "About"},
				map[string]any{"url": "https://acme.example/about", "title": "Duplicate"},
				map[string]any{"title": "no uri"},
			},
		},
		"hiddenKeywords": []any{"kubernetes", "kubernetes", "terraform"},
	})

	assert.Equal(t, "r1", d.ID)
	assert.Equal(t, "Platform Engineer", d.Title)
	assert.Equal(t, 88, d.ATSScore)
	require.Len(t, d.Experience, 2)
	assert.Equal(t, "Intern", d.Experience[1].Role)
	require.Len(t, d.Education, 1)
	require.NotNil(t, d.ResearchContext)
	assert.Equal(t, []types.GroundingCitation{{URI: "https://acme.example/about", Title: "About"}}, d.ResearchContext.Sources)
	assert.Equal(t, []string{"kubernetes", "terraform"}, d.HiddenKeywords)
}

func TestDocument_ATSScoreClamped(t *testing.T) {
	assert.Equal(t, 0, newTestSanitizer().Document(map[string]any{"atsScore": -5.0}).ATSScore)
	assert.Equal(t, 100, newTestSanitizer().Document(map[string]any{"atsScore": 250.0}).ATSScore)
	assert.Equal(t, 0, newTestSanitizer().Document(map[string]any{"atsScore": "high"}).ATSScore)
}

func TestDocument_IsFixedPoint(t *testing.T) {
	s := newTestSanitizer()
	first := s.Document(map[string]any{
		"title":           "Resume",
		"experience":      []any{map[string]any{"role": "Engineer"}},
		"researchContext": map[string]any{"summary": "context"},
	})

	assert.Equal(t, first, s.ResanitizeDocument(&first))
}

func TestCitations(t *testing.T) {
	assert.Equal(t, []types.GroundingCitation{}, Citations(nil))
	assert.Equal(t, []types.GroundingCitation{{URI: "u"}}, Citations([]any{map[string]any{"uri": " u "}}))
}

func TestOverlayDocument(t *testing.T) {
	s := newTestSanitizer()
	base := &types.ResumeDocument{
		ID:           "r1",
		Title:        "Backend Engineer",
		LastModified: 42,
		PersonalInfo: types.PersonalInfo{FullName: "Ada"},
		Experience:   []types.ExperienceEntity{{ID: "e1", Role: "Engineer", Company: "Acme"}},
		Skills:       []string{"Go"},
	}

	out := s.OverlayDocument(base, map[string]any{
		"experiences": []any{map[string]any{"id": "e1", "role": "Staff Engineer", "company": "Acme"}},
		"skills":      []any{"Go", "Kubernetes"},
	})

	assert.Equal(t, "r1", out.ID)
	assert.Equal(t, "Backend Engineer", out.Title)
	assert.Equal(t, int64(42), out.LastModified)
	assert.Equal(t, "Ada", out.PersonalInfo.FullName)
	require.Len(t, out.Experience, 1, "alias keys must not duplicate the section")
	assert.Equal(t, "Staff Engineer", out.Experience[0].Role)
	assert.Equal(t, []string{"Go", "Kubernetes"}, out.Skills)
}

func TestOverlayDocument_NonRecordKeepsBase(t *testing.T) {
	base := &types.ResumeDocument{ID: "r1", Title: "Backend Engineer", LastModified: 42}

	out := newTestSanitizer().OverlayDocument(base, "not a resume")

	assert.Equal(t, "r1", out.ID)
	assert.Equal(t, "Backend Engineer", out.Title)
}
