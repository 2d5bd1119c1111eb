package sanitize

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-memory/internal/types"
)

// Sanitizer normalizes raw records. ID synthesis and the clock are injectable so that
// output is reproducible in tests; with both fixed, equal input gives equal output.
type Sanitizer struct {
	// NewID synthesizes an identifier for records that arrive without one.
	NewID func() string
	// Now supplies timestamps for lastUpdated/lastModified/dateAdded when absent.
	Now func() time.Time
}

// New returns a Sanitizer that synthesizes random UUIDs and uses the wall clock.
func New() *Sanitizer {
	return &Sanitizer{
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

var defaultSanitizer = New()

func (s *Sanitizer) id(rec Record) string {
	if id := text(rec["id"]); id != "" {
		return id
	}
	return s.NewID()
}

func (s *Sanitizer) nowMillis() int64 {
	return s.Now().UnixMilli()
}

// millis returns a positive timestamp from value, or fallback
func millis(value any, fallback func() int64) int64 {
	if f, ok := number(value); ok && f > 0 {
		return int64(f)
	}
	return fallback()
}

// Experience normalizes any record into an ExperienceEntity.
func (s *Sanitizer) Experience(raw any) types.ExperienceEntity {
	rec := asRecord(raw)
	f := experienceFields.resolve(rec)
	return types.ExperienceEntity{
		ID:          s.id(rec),
		Role:        f["role"],
		Company:     f["company"],
		StartDate:   f["startDate"],
		EndDate:     f["endDate"],
		Description: f["description"],
	}
}

// Education normalizes any record into an EducationEntity.
func (s *Sanitizer) Education(raw any) types.EducationEntity {
	rec := asRecord(raw)
	f := educationFields.resolve(rec)
	return types.EducationEntity{
		ID:     s.id(rec),
		Degree: f["degree"],
		School: f["school"],
		Year:   f["year"],
	}
}

// Project normalizes any record into a ProjectEntity.
func (s *Sanitizer) Project(raw any) types.ProjectEntity {
	rec := asRecord(raw)
	f := projectFields.resolve(rec)
	return types.ProjectEntity{
		ID:          s.id(rec),
		Name:        f["name"],
		Description: f["description"],
		Link:        f["link"],
		RepoLink:    f["repoLink"],
	}
}

// Leadership normalizes any record into a LeadershipEntity.
func (s *Sanitizer) Leadership(raw any) types.LeadershipEntity {
	rec := asRecord(raw)
	f := leadershipFields.resolve(rec)
	return types.LeadershipEntity{
		ID:          s.id(rec),
		Name:        f["name"],
		Description: f["description"],
		DateRange:   f["dateRange"],
	}
}

// QnA normalizes any record into a QnAItem.
func (s *Sanitizer) QnA(raw any) types.QnAItem {
	rec := asRecord(raw)
	question, ok := rec["question"].(string)
	if !ok || question == "" {
		question = "Details needed."
	}
	return types.QnAItem{
		ID:        s.id(rec),
		Question:  question,
		Options:   ToStrings(rec["options"]),
		DateAdded: millis(rec["dateAdded"], s.nowMillis),
	}
}

// PersonalInfo normalizes a contact record. fallbackSummary is used when the record
// itself has no summary (some sources put it at the top level).
func (s *Sanitizer) PersonalInfo(raw any, fallbackSummary any) types.PersonalInfo {
	f := personalInfoFields.resolve(asRecord(raw))
	summary := f["summary"]
	if summary == "" {
		summary = ToText(fallbackSummary)
	}
	return types.PersonalInfo{
		FullName: f["fullName"],
		Email:    f["email"],
		Phone:    f["phone"],
		Location: f["location"],
		LinkedIn: f["linkedin"],
		Website:  f["website"],
		Summary:  summary,
	}
}

// NormalizeExperience normalizes with the default sanitizer.
func NormalizeExperience(raw any) types.ExperienceEntity { return defaultSanitizer.Experience(raw) }

// NormalizeEducation normalizes with the default sanitizer.
func NormalizeEducation(raw any) types.EducationEntity { return defaultSanitizer.Education(raw) }

// NormalizeProject normalizes with the default sanitizer.
func NormalizeProject(raw any) types.ProjectEntity { return defaultSanitizer.Project(raw) }

// NormalizeLeadership normalizes with the default sanitizer.
func NormalizeLeadership(raw any) types.LeadershipEntity { return defaultSanitizer.Leadership(raw) }

// NormalizeQnA normalizes with the default sanitizer.
func NormalizeQnA(raw any) types.QnAItem { return defaultSanitizer.QnA(raw) }

// dedupeByID keeps the first entity for every identifier
func dedupeByID[T any](items []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		key := id(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func mapAll[T any](items []any, fn func(any) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
