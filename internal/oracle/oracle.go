// Package oracle is the boundary to the external language model. Every method returns
// untrusted, loosely-typed JSON that callers must pass through the sanitize package
// before merging or displaying it.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-memory/internal/llm"
	"github.com/jonathan/resume-memory/internal/prompts"
	"github.com/jonathan/resume-memory/internal/types"
	"go.uber.org/zap"
)

// Input limits, in runes
const (
	MaxMergeText      = 20000
	MaxExtractText    = 12000
	MaxReadme         = 2000
	MaxResearchDigest = 1000
)

// ResearchResult is a research summary plus the citations backing it
type ResearchResult struct {
	Summary   string
	Citations []types.GroundingCitation
}

// Adapter implements the oracle methods over an llm.Client
type Adapter struct {
	client llm.Client
	logger *zap.Logger
}

// New wraps client. A nil logger discards output.
func New(client llm.Client, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{client: client, logger: logger}
}

// Close releases the underlying client
func (a *Adapter) Close() error {
	return a.client.Close()
}

// profileView is the part of a profile the oracle reconciles. Caller-owned lists
// (source files, questions, external projects) are never sent.
type profileView struct {
	PersonalInfo         types.PersonalInfo       `json:"personalInfo"`
	Experiences          []types.ExperienceEntity `json:"experiences"`
	Educations           []types.EducationEntity  `json:"educations"`
	Projects             []types.ProjectEntity    `json:"projects"`
	LeadershipActivities []types.LeadershipEntity `json:"leadershipActivities"`
	Skills               []string                 `json:"skills"`
}

func viewOf(p *types.MemoryProfile) profileView {
	if p == nil {
		p = types.NewMemoryProfile(0)
	}
	return profileView{
		PersonalInfo:         p.PersonalInfo,
		Experiences:          p.Experiences,
		Educations:           p.Educations,
		Projects:             p.Projects,
		LeadershipActivities: p.LeadershipActivities,
		Skills:               p.Skills,
	}
}

// Reconcile asks for the complete updated profile after merging newText into profile.
func (a *Adapter) Reconcile(ctx context.Context, profile *types.MemoryProfile, newText string) (any, error) {
	prompt := prompts.Render(prompts.MemoryFile, "reconcile-profile", map[string]string{
		"Profile": mustJSON(viewOf(profile)),
		"NewText": Truncate(newText, MaxMergeText),
	})
	return a.generateJSON(ctx, "reconcile", prompt, llm.TierAdvanced)
}

// Extract pulls facts out of a document following the schema hint.
func (a *Adapter) Extract(ctx context.Context, document string, schema llm.ExtractionSchema) (any, error) {
	prompt := llm.BuildExtractionPrompt(schema, Truncate(document, MaxExtractText))
	return a.generateJSON(ctx, "extract", prompt, llm.TierStandard)
}

// Enrich analyzes one external repository.
func (a *Adapter) Enrich(ctx context.Context, repo types.ExternalRepo, readme string) (any, error) {
	readmeSection := ""
	if strings.TrimSpace(readme) != "" {
		readmeSection = "\nREADME Content:\n" + Truncate(readme, MaxReadme)
	}
	prompt := prompts.Render(prompts.MemoryFile, "analyze-repository", map[string]string{
		"Name":        repo.Name,
		"FullName":    repo.FullName,
		"Description": orDefault(repo.Description, "No description provided."),
		"URL":         repo.HTMLURL,
		"Language":    orDefault(repo.Language, "Not specified."),
		"Stars":       strconv.Itoa(repo.Stars),
		"Forks":       strconv.Itoa(repo.Forks),
		"PushedAt":    repo.PushedAt,
		"Topics":      orDefault(strings.Join(repo.Topics, ", "), "No topics."),
		"HasIssues":   yesNo(repo.HasIssues),
		"HasHomepage": yesNo(repo.Homepage != ""),
		"Archived":    yesNo(repo.Archived),
		"Readme":      readmeSection,
	})
	return a.generateJSON(ctx, "enrich", prompt, llm.TierLite)
}

// Research runs a grounded research query about background.
func (a *Adapter) Research(ctx context.Context, query, background string) (*ResearchResult, error) {
	prompt := prompts.Render(prompts.ResumesFile, "research-context", map[string]string{
		"Query":   query,
		"Context": Truncate(background, MaxResearchDigest),
	})
	start := time.Now()
	resp, err := a.client.GenerateGrounded(ctx, prompt, llm.TierStandard)
	a.logCall(ctx, "research", start, err)
	if err != nil {
		return nil, classify(err)
	}

	result := &ResearchResult{Summary: strings.TrimSpace(resp.Text), Citations: []types.GroundingCitation{}}
	seen := make(map[string]struct{}, len(resp.Citations))
	for _, c := range resp.Citations {
		if c.URI == "" {
			continue
		}
		if _, dup := seen[c.URI]; dup {
			continue
		}
		seen[c.URI] = struct{}{}
		result.Citations = append(result.Citations, types.GroundingCitation{URI: c.URI, Title: c.Title})
	}
	return result, nil
}

// Questions asks for count clarifying questions about profile.
func (a *Adapter) Questions(ctx context.Context, profile *types.MemoryProfile, count int) (any, error) {
	open := make([]string, 0)
	if profile != nil {
		for _, q := range profile.QnA {
			open = append(open, q.Question)
		}
	}
	prompt := prompts.Render(prompts.MemoryFile, "generate-questions", map[string]string{
		"Profile":       mustJSON(viewOf(profile)),
		"Count":         strconv.Itoa(count),
		"OpenQuestions": mustJSON(open),
	})
	return a.generateJSON(ctx, "questions", prompt, llm.TierLite)
}

// OptimizeSkills asks for a normalized, prioritized skill list.
func (a *Adapter) OptimizeSkills(ctx context.Context, skills []string) (any, error) {
	prompt := prompts.Render(prompts.MemoryFile, "optimize-skills", map[string]string{
		"Skills": mustJSON(skills),
	})
	return a.generateJSON(ctx, "optimize_skills", prompt, llm.TierLite)
}

// ScoreProjects asks for the relevance of each project to role, in one call.
func (a *Adapter) ScoreProjects(ctx context.Context, role string, projects []types.AnalyzedExternalProject) (any, error) {
	type brief struct {
		ID           string   `json:"id"`
		Summary      string   `json:"summary"`
		Technologies []string `json:"technologies"`
		DomainTags   []string `json:"domainTags"`
	}
	briefs := make([]brief, 0, len(projects))
	for _, p := range projects {
		briefs = append(briefs, brief{ID: p.ID, Summary: p.Summary, Technologies: p.Technologies, DomainTags: p.DomainTags})
	}
	prompt := prompts.Render(prompts.MemoryFile, "score-projects", map[string]string{
		"Role":     role,
		"Projects": mustJSON(briefs),
	})
	return a.generateJSON(ctx, "score_projects", prompt, llm.TierLite)
}

// GenerateResume asks for a resume built from profile.
func (a *Adapter) GenerateResume(ctx context.Context, profile *types.MemoryProfile, research string) (any, error) {
	prompt := prompts.Render(prompts.ResumesFile, "generate-resume", map[string]string{
		"Profile":  mustJSON(viewOf(profile)),
		"Research": research,
	})
	return a.generateJSON(ctx, "generate_resume", prompt, llm.TierAdvanced)
}

// Tailor asks for resume rewritten against jobDescription.
func (a *Adapter) Tailor(ctx context.Context, resume *types.ResumeDocument, jobDescription, research string) (any, error) {
	prompt := prompts.Render(prompts.ResumesFile, "tailor-resume", map[string]string{
		"Resume":         mustJSON(resume),
		"JobDescription": jobDescription,
		"Research":       research,
	})
	return a.generateJSON(ctx, "tailor", prompt, llm.TierAdvanced)
}

func (a *Adapter) generateJSON(ctx context.Context, method, prompt string, tier llm.ModelTier) (any, error) {
	start := time.Now()
	text, err := a.client.GenerateJSON(ctx, prompt, tier)
	a.logCall(ctx, method, start, err)
	if err != nil {
		return nil, classify(err)
	}

	out, err := llm.ParseJSON(text)
	if err != nil {
		a.logger.Warn("oracle returned unparseable JSON",
			zap.String("method", method),
			zap.Int("length", len(text)),
			zap.Error(err))
		return nil, &MalformedResponseError{Message: method + " response is not JSON", Cause: err}
	}
	return out, nil
}

func (a *Adapter) logCall(ctx context.Context, method string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("user_id", llm.UserFromContext(ctx)),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		a.logger.Warn("oracle call failed", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Debug("oracle call", fields...)
}

// classify turns a client error into the oracle error taxonomy
func classify(err error) error {
	var missing *llm.MissingKeyError
	if errors.As(err, &missing) {
		return &ConfigurationMissingError{}
	}
	var limited *llm.RateLimitError
	if errors.As(err, &limited) {
		return &UnavailableError{Message: "rate limit reached, retry in a minute", Cause: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &UnavailableError{Message: "request cancelled", Cause: err}
	}
	return &UnavailableError{Message: "model request failed, check the API key and quota", Cause: err}
}

// Truncate limits s to max runes
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
