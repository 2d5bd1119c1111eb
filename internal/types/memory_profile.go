// Package types provides type definitions for structured data used throughout the resume-memory system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// MemoryProfile is the canonical, persisted aggregate of a user's career facts.
// It is only mutated through the memory package.
type MemoryProfile struct {
	LastUpdated          int64                     `json:"lastUpdated"` // unix milliseconds
	PersonalInfo         PersonalInfo              `json:"personalInfo"`
	Experiences          []ExperienceEntity        `json:"experiences"`
	Educations           []EducationEntity         `json:"educations"`
	Projects             []ProjectEntity           `json:"projects"`
	LeadershipActivities []LeadershipEntity        `json:"leadershipActivities"`
	Skills               []string                  `json:"skills"`
	RawSourceFiles       []string                  `json:"rawSourceFiles"`
	QnA                  []QnAItem                 `json:"qna"`
	ExternalProjects     []AnalyzedExternalProject `json:"externalProjects"`

	// Version is the store's optimistic concurrency token. It never leaves the process.
	Version int64 `json:"-"`
}

// PersonalInfo holds contact and summary fields shared by profiles and resumes
type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	Website  string `json:"website"`
	Summary  string `json:"summary"`
}

// ExperienceEntity is a single role held at an organization. Internships are experiences.
type ExperienceEntity struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"` // bullet points separated by newlines
}

// EducationEntity is a degree or qualification
type EducationEntity struct {
	ID     string `json:"id"`
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   string `json:"year"`
}

// ProjectEntity is a personal or professional project
type ProjectEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`     // demo or live URL
	RepoLink    string `json:"repoLink,omitempty"` // source code URL
}

// LeadershipEntity is a leadership role or extracurricular activity
type LeadershipEntity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DateRange   string `json:"dateRange,omitempty"`
}

// QnAItem is an open clarifying question the oracle asked about the profile
type QnAItem struct {
	ID        string   `json:"id"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	DateAdded int64    `json:"dateAdded"` // unix milliseconds
}

// NewMemoryProfile returns an empty profile with every collection initialized.
func NewMemoryProfile(now int64) *MemoryProfile {
	return &MemoryProfile{
		LastUpdated:          now,
		Experiences:          []ExperienceEntity{},
		Educations:           []EducationEntity{},
		Projects:             []ProjectEntity{},
		LeadershipActivities: []LeadershipEntity{},
		Skills:               []string{},
		RawSourceFiles:       []string{},
		QnA:                  []QnAItem{},
		ExternalProjects:     []AnalyzedExternalProject{},
	}
}

// Clone returns a deep copy of the profile so callers can mutate it without
// touching the original.
func (p *MemoryProfile) Clone() *MemoryProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Experiences = append([]ExperienceEntity{}, p.Experiences...)
	out.Educations = append([]EducationEntity{}, p.Educations...)
	out.Projects = append([]ProjectEntity{}, p.Projects...)
	out.LeadershipActivities = append([]LeadershipEntity{}, p.LeadershipActivities...)
	out.Skills = append([]string{}, p.Skills...)
	out.RawSourceFiles = append([]string{}, p.RawSourceFiles...)
	out.QnA = make([]QnAItem, len(p.QnA))
	for i, q := range p.QnA {
		q.Options = append([]string{}, q.Options...)
		out.QnA[i] = q
	}
	out.ExternalProjects = make([]AnalyzedExternalProject, len(p.ExternalProjects))
	for i, ep := range p.ExternalProjects {
		out.ExternalProjects[i] = ep.Clone()
	}
	return &out
}
