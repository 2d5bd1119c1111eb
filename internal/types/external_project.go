package types

// Working status values for an analyzed external project
const (
	WorkingStatusUnknown    = "unknown"
	WorkingStatusWorking    = "working"
	WorkingStatusNotWorking = "not working"
)

// Activity level values for an analyzed external project
const (
	ActivityLow    = "low"
	ActivityMedium = "medium"
	ActivityHigh   = "high"
)

// ExternalRepo is a raw repository record as returned by a code host
type ExternalRepo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	PushedAt    string   `json:"pushed_at"`
	Topics      []string `json:"topics"`
	HasIssues   bool     `json:"has_issues"`
	Homepage    string   `json:"homepage"`
	Archived    bool     `json:"archived"`
}

// AnalyzedExternalProject is an external repository enriched with derived fields.
// It is owned by the MemoryProfile and only created by the enrichment step.
type AnalyzedExternalProject struct {
	ID                string   `json:"id"`
	RepoName          string   `json:"repoName"`
	Description       string   `json:"description"`
	HTMLURL           string   `json:"htmlUrl"`
	Language          string   `json:"language"`
	LastActivity      string   `json:"lastActivity"`
	CompletenessScore int      `json:"completenessScore"`
	WorkingStatus     string   `json:"workingStatus"`
	ActivityLevel     string   `json:"activityLevel"`
	Technologies      []string `json:"technologies"`
	DomainTags        []string `json:"domainTags"`
	MajorProject      bool     `json:"majorProject"`
	Summary           string   `json:"summary"`
	SuggestedBullets  []string `json:"suggestedBullets"`
	RelevanceScore    *int     `json:"relevanceScore,omitempty"`
}

// Clone returns a deep copy of the analyzed project
func (p AnalyzedExternalProject) Clone() AnalyzedExternalProject {
	p.Technologies = append([]string{}, p.Technologies...)
	p.DomainTags = append([]string{}, p.DomainTags...)
	p.SuggestedBullets = append([]string{}, p.SuggestedBullets...)
	if p.RelevanceScore != nil {
		score := *p.RelevanceScore
		p.RelevanceScore = &score
	}
	return p
}
