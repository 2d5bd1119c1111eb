package sanitize

import (
	"strings"

	"github.com/jonathan/resume-memory/internal/types"
)

// FailedAnalysisSummary is the summary recorded when enrichment could not run
const FailedAnalysisSummary = "Analysis failed due to an AI error."

// ExternalProject normalizes an analyzed external project record, e.g. one that was
// persisted earlier or arrived in an imported profile.
func (s *Sanitizer) ExternalProject(raw any) types.AnalyzedExternalProject {
	rec := asRecord(raw)
	f := externalProjectFields.resolve(rec)
	id := f["id"]
	if id == "" {
		id = s.NewID()
	}
	p := types.AnalyzedExternalProject{
		ID:           id,
		RepoName:     f["repoName"],
		Description:  f["description"],
		HTMLURL:      f["htmlUrl"],
		Language:     f["language"],
		LastActivity: f["lastActivity"],
		Summary:      f["summary"],
	}
	applyAnalysis(&p, rec)
	return p
}

// EnrichedProject combines a raw repository record with the oracle's analysis of it.
// Identity fields always come from the repository, never from the oracle.
func EnrichedProject(repo types.ExternalRepo, analysis any) types.AnalyzedExternalProject {
	rec := asRecord(analysis)
	p := projectIdentity(repo)
	applyAnalysis(&p, rec)
	if p.Summary = ToText(first(rec, "aiSummary", "summary")); p.Summary == "" {
		p.Summary = "AI summary unavailable."
	}
	return p
}

// FailedAnalysis is the analysis recorded for a repository whose enrichment failed.
func FailedAnalysis(repo types.ExternalRepo) types.AnalyzedExternalProject {
	p := projectIdentity(repo)
	applyAnalysis(&p, Record{})
	p.Summary = FailedAnalysisSummary
	return p
}

func projectIdentity(repo types.ExternalRepo) types.AnalyzedExternalProject {
	id := strings.TrimSpace(repo.FullName)
	if id == "" {
		id = strings.TrimSpace(repo.Name)
	}
	return types.AnalyzedExternalProject{
		ID:           id,
		RepoName:     id,
		Description:  strings.TrimSpace(repo.Description),
		HTMLURL:      repo.HTMLURL,
		Language:     repo.Language,
		LastActivity: repo.PushedAt,
	}
}

// applyAnalysis fills the derived fields of p from an analysis record
func applyAnalysis(p *types.AnalyzedExternalProject, rec Record) {
	if f, ok := number(rec["completenessScore"]); ok {
		p.CompletenessScore = clampScore(f)
	}
	p.WorkingStatus = workingStatus(rec["workingStatus"])
	p.ActivityLevel = activityLevel(rec["activityLevel"])
	p.Technologies = ToSkillSet(first(rec, "technologies", "advancedTechUsed"))
	p.DomainTags = ToStrings(first(rec, "domainTags", "domainSpecific", "domains"))
	p.SuggestedBullets = bullets(first(rec, "suggestedBullets", "suggestedBulletPoints", "bullets"))
	major, _ := rec["majorProject"].(bool)
	p.MajorProject = major
	p.RelevanceScore = nil
	if f, ok := number(rec["relevanceScore"]); ok {
		score := clampScore(f)
		p.RelevanceScore = &score
	}
}

func workingStatus(value any) string {
	switch strings.ToLower(text(value)) {
	case types.WorkingStatusWorking:
		return types.WorkingStatusWorking
	case types.WorkingStatusNotWorking, "not_working", "broken":
		return types.WorkingStatusNotWorking
	default:
		return types.WorkingStatusUnknown
	}
}

func activityLevel(value any) string {
	switch strings.ToLower(text(value)) {
	case types.ActivityHigh:
		return types.ActivityHigh
	case types.ActivityMedium:
		return types.ActivityMedium
	default:
		return types.ActivityLow
	}
}

func bullets(value any) []string {
	items := ToList(value)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if b := ToText(item); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// first returns the first present, non-nil value among keys
func first(rec Record, keys ...string) any {
	for _, key := range keys {
		if v, ok := rec[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// RelevanceScores reads per-project scores from {"scores": [{"id", "relevanceScore"}]}
// or a bare list. Entries without an id or a numeric score are skipped.
func RelevanceScores(raw any) map[string]int {
	out := make(map[string]int)
	for _, item := range ToList(Unwrap(raw, "scores", "projects")) {
		rec := asRecord(item)
		id := text(first(rec, "id", "repoName"))
		f, ok := number(first(rec, "relevanceScore", "score"))
		if id == "" || !ok {
			continue
		}
		out[id] = clampScore(f)
	}
	return out
}
