package sanitize

// field maps one canonical field to the ordered source keys it may arrive under
type field struct {
	name     string
	keys     []string
	fallback string
	prose    bool // description-like: coerced with ToText
}

// fieldTable is the declarative mapping for one entity type
type fieldTable []field

// resolve walks the table and returns the canonical value of every field.
// The first key whose coerced value is non-empty wins.
func (t fieldTable) resolve(rec Record) map[string]string {
	out := make(map[string]string, len(t))
	for _, f := range t {
		out[f.name] = f.fallback
		for _, key := range f.keys {
			var v string
			if f.prose {
				v = ToText(rec[key])
			} else {
				v = text(rec[key])
			}
			if v != "" {
				out[f.name] = v
				break
			}
		}
	}
	return out
}

// Placeholder literals used when an experience has no recognizable role or company
const (
	PlaceholderRole    = "Role"
	PlaceholderCompany = "Company"
)

var experienceFields = fieldTable{
	{name: "role", keys: []string{"role", "title", "position"}, fallback: PlaceholderRole},
	{name: "company", keys: []string{"company", "organization"}, fallback: PlaceholderCompany},
	{name: "startDate", keys: []string{"startDate", "start_date"}},
	{name: "endDate", keys: []string{"endDate", "end_date"}},
	{name: "description", keys: []string{"description", "summary", "responsibilities"}, prose: true},
}

var educationFields = fieldTable{
	{name: "degree", keys: []string{"degree", "qualification", "major", "title"}},
	{name: "school", keys: []string{"school", "institution", "university", "college"}},
	{name: "year", keys: []string{"year", "date", "dates"}},
}

var projectFields = fieldTable{
	{name: "name", keys: []string{"name", "title"}},
	{name: "description", keys: []string{"description", "summary", "details", "content"}, prose: true},
	{name: "link", keys: []string{"link", "url"}},
	{name: "repoLink", keys: []string{"repoLink", "github", "code"}},
}

var leadershipFields = fieldTable{
	{name: "name", keys: []string{"name", "title"}},
	{name: "description", keys: []string{"description", "summary", "details", "contributions"}, prose: true},
	{name: "dateRange", keys: []string{"dateRange", "dates", "year"}},
}

var personalInfoFields = fieldTable{
	{name: "fullName", keys: []string{"fullName", "name", "full_name"}},
	{name: "email", keys: []string{"email"}},
	{name: "phone", keys: []string{"phone"}},
	{name: "location", keys: []string{"location", "address"}},
	{name: "linkedin", keys: []string{"linkedin", "linkedIn"}},
	{name: "website", keys: []string{"website", "portfolio"}},
	{name: "summary", keys: []string{"summary"}, prose: true},
}

var externalProjectFields = fieldTable{
	{name: "id", keys: []string{"id", "repoName", "fullName", "full_name"}},
	{name: "repoName", keys: []string{"repoName", "fullName", "full_name", "name"}},
	{name: "description", keys: []string{"description"}, prose: true},
	{name: "htmlUrl", keys: []string{"htmlUrl", "html_url", "url"}},
	{name: "language", keys: []string{"language"}},
	{name: "lastActivity", keys: []string{"lastActivity", "pushedAt", "pushed_at"}},
	{name: "summary", keys: []string{"summary", "aiSummary"}, prose: true},
}

// Top-level keys that may carry each profile collection. Lists found under
// several keys are concatenated in this order.
var (
	experienceKeys       = []string{"experiences", "experience", "workExperience", "work_experience"}
	internshipKeys       = []string{"internships"}
	educationKeys        = []string{"educations", "education"}
	projectKeys          = []string{"projects"}
	leadershipKeys       = []string{"leadershipActivities", "activities", "leadership"}
	externalProjectKeys  = []string{"externalProjects", "githubProjects"}
	profileSignatureKeys = []string{
		"personalInfo", "summary", "skills",
		"experiences", "experience", "workExperience", "work_experience", "internships",
		"educations", "education", "projects",
		"leadershipActivities", "activities", "leadership",
	}
)

// concat gathers the lists stored under every key, in key order
func concat(rec Record, keyGroups ...[]string) []any {
	var out []any
	for _, keys := range keyGroups {
		for _, key := range keys {
			out = append(out, ToList(rec[key])...)
		}
	}
	if out == nil {
		return []any{}
	}
	return out
}

// LooksLikeProfile reports whether raw carries at least one recognizable profile
// collection. Merge calls use it to reject oracle responses that parse but are not a profile.
func LooksLikeProfile(raw any) bool {
	rec, ok := raw.(Record)
	if !ok {
		return false
	}
	for _, key := range profileSignatureKeys {
		if _, present := rec[key]; present {
			return true
		}
	}
	return false
}
