package sanitize

import (
	"encoding/json"

	"github.com/jonathan/resume-memory/internal/types"
)

// Profile builds a complete MemoryProfile from any input. List synonyms at the top level
// are concatenated, internships are folded into experiences and duplicate IDs within a
// list collapse to their first occurrence.
func (s *Sanitizer) Profile(raw any) types.MemoryProfile {
	rec := asRecord(raw)
	return types.MemoryProfile{
		LastUpdated:          millis(rec["lastUpdated"], s.nowMillis),
		PersonalInfo:         s.PersonalInfo(rec["personalInfo"], rec["summary"]),
		Experiences:          s.experiences(rec),
		Educations:           s.educations(rec),
		Projects:             s.projects(rec),
		LeadershipActivities: s.leadership(rec),
		Skills:               ToSkillSet(rec["skills"]),
		RawSourceFiles:       uniqueStrings(ToStrings(rec["rawSourceFiles"])),
		QnA: dedupeByID(mapAll(ToList(rec["qna"]), s.QnA),
			func(q types.QnAItem) string { return q.ID }),
		ExternalProjects: dedupeByID(mapAll(concat(rec, externalProjectKeys), s.ExternalProject),
			func(p types.AnalyzedExternalProject) string { return p.ID }),
	}
}

// Resanitize heals an already-typed profile, for example one loaded from storage that
// was written by an older release. The store version is carried over.
func (s *Sanitizer) Resanitize(p *types.MemoryProfile) types.MemoryProfile {
	if p == nil {
		return s.Profile(nil)
	}
	out := s.Profile(roundTrip(p))
	out.Version = p.Version
	return out
}

func (s *Sanitizer) experiences(rec Record) []types.ExperienceEntity {
	return dedupeByID(mapAll(concat(rec, experienceKeys, internshipKeys), s.Experience),
		func(e types.ExperienceEntity) string { return e.ID })
}

func (s *Sanitizer) educations(rec Record) []types.EducationEntity {
	return dedupeByID(mapAll(concat(rec, educationKeys), s.Education),
		func(e types.EducationEntity) string { return e.ID })
}

func (s *Sanitizer) projects(rec Record) []types.ProjectEntity {
	return dedupeByID(mapAll(concat(rec, projectKeys), s.Project),
		func(p types.ProjectEntity) string { return p.ID })
}

func (s *Sanitizer) leadership(rec Record) []types.LeadershipEntity {
	return dedupeByID(mapAll(concat(rec, leadershipKeys), s.Leadership),
		func(l types.LeadershipEntity) string { return l.ID })
}

// roundTrip converts a typed value back into loose JSON form
func roundTrip(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func uniqueStrings(items []string) []string {
	return dedupeByID(items, func(s string) string { return s })
}

// Profile sanitizes with the default sanitizer.
func Profile(raw any) types.MemoryProfile { return defaultSanitizer.Profile(raw) }

// Resanitize heals a typed profile with the default sanitizer.
func Resanitize(p *types.MemoryProfile) types.MemoryProfile { return defaultSanitizer.Resanitize(p) }
