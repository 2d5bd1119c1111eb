package types

// ResumeDocument is a user-editable projection of a MemoryProfile for one output artifact.
// It is not the system of record.
type ResumeDocument struct {
	ID                   string             `json:"id"`
	Title                string             `json:"title"`
	LastModified         int64              `json:"lastModified"` // unix milliseconds
	ATSScore             int                `json:"atsScore"`
	PersonalInfo         PersonalInfo       `json:"personalInfo"`
	Experience           []ExperienceEntity `json:"experience"`
	Education            []EducationEntity  `json:"education"`
	Projects             []ProjectEntity    `json:"projects"`
	LeadershipActivities []LeadershipEntity `json:"leadershipActivities"`
	Skills               []string           `json:"skills"`
	ResearchContext      *ResearchContext   `json:"researchContext,omitempty"`
	HiddenKeywords       []string           `json:"hiddenKeywords"`
}

// ResearchContext records the research summary a resume was generated or tailored with
type ResearchContext struct {
	Summary string              `json:"summary"`
	Sources []GroundingCitation `json:"sources"`
}

// GroundingCitation is a source reference returned alongside oracle research output
type GroundingCitation struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}
