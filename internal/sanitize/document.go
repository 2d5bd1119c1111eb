package sanitize

import (
	"github.com/jonathan/resume-memory/internal/types"
)

// DefaultResumeTitle is used for resumes that arrive without a title
const DefaultResumeTitle = "Professional Resume"

// Document builds a complete ResumeDocument from any input.
func (s *Sanitizer) Document(raw any) types.ResumeDocument {
	rec := asRecord(raw)
	title := text(rec["title"])
	if title == "" {
		title = DefaultResumeTitle
	}
	var ats int
	if f, ok := number(rec["atsScore"]); ok {
		ats = clampScore(f)
	}
	return types.ResumeDocument{
		ID:                   s.id(rec),
		Title:                title,
		LastModified:         millis(rec["lastModified"], s.nowMillis),
		ATSScore:             ats,
		PersonalInfo:         s.PersonalInfo(rec["personalInfo"], rec["summary"]),
		Experience:           s.experiences(rec),
		Education:            s.educations(rec),
		Projects:             s.projects(rec),
		LeadershipActivities: s.leadership(rec),
		Skills:               ToSkillSet(rec["skills"]),
		ResearchContext:      researchContext(rec["researchContext"]),
		HiddenKeywords:       uniqueStrings(ToStrings(rec["hiddenKeywords"])),
	}
}

// ResanitizeDocument heals an already-typed resume document.
func (s *Sanitizer) ResanitizeDocument(d *types.ResumeDocument) types.ResumeDocument {
	if d == nil {
		return s.Document(nil)
	}
	return s.Document(roundTrip(d))
}

// researchContext returns nil unless the record carries a summary or at least one source
func researchContext(raw any) *types.ResearchContext {
	rec, ok := raw.(Record)
	if !ok {
		return nil
	}
	rc := &types.ResearchContext{
		Summary: ToText(rec["summary"]),
		Sources: Citations(rec["sources"]),
	}
	if rc.Summary == "" && len(rc.Sources) == 0 {
		return nil
	}
	return rc
}

// Citations normalizes a list of grounding citations. Entries without a URI are dropped
// and repeated URIs keep their first title.
func Citations(raw any) []types.GroundingCitation {
	items := ToList(raw)
	out := make([]types.GroundingCitation, 0, len(items))
	for _, item := range items {
		rec := asRecord(item)
		uri := text(rec["uri"])
		if uri == "" {
			uri = text(rec["url"])
		}
		if uri == "" {
			continue
		}
		out = append(out, types.GroundingCitation{URI: uri, Title: text(rec["title"])})
	}
	return dedupeByID(out, func(c types.GroundingCitation) string { return c.URI })
}

// Document sanitizes with the default sanitizer.
func Document(raw any) types.ResumeDocument { return defaultSanitizer.Document(raw) }

// documentSections groups the top-level keys that feed one resume field
var documentSections = [][]string{
	{"title"},
	{"atsScore"},
	{"personalInfo"},
	{"summary"},
	append(append([]string{}, experienceKeys...), internshipKeys...),
	educationKeys,
	projectKeys,
	leadershipKeys,
	{"skills"},
	{"hiddenKeywords"},
}

// OverlayDocument sanitizes raw on top of base. A field keeps its value from base
// unless raw carries one of the keys for that field. ID, lastModified and
// researchContext always come from base.
func (s *Sanitizer) OverlayDocument(base *types.ResumeDocument, raw any) types.ResumeDocument {
	merged, _ := roundTrip(base).(Record)
	if merged == nil {
		merged = Record{}
	}
	patch, _ := raw.(Record)
	for _, keys := range documentSections {
		if !hasAny(patch, keys) {
			continue
		}
		for _, k := range keys {
			delete(merged, k)
			if v, ok := patch[k]; ok {
				merged[k] = v
			}
		}
	}
	return s.Document(merged)
}

func hasAny(rec Record, keys []string) bool {
	for _, k := range keys {
		if _, ok := rec[k]; ok {
			return true
		}
	}
	return false
}
