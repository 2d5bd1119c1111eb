package memory

import (
	"strings"

	"github.com/jonathan/resume-memory/internal/sanitize"
	"github.com/jonathan/resume-memory/internal/types"
)

// entityKind describes how one entity type is matched and combined during retention
type entityKind[T any] struct {
	id       func(T) string
	withID   func(T, string) T
	natural  func(T) string
	backfill func(old, updated T) T
}

// retainEntities applies the additive policy to one list. Existing entities keep
// their position. An incoming entity with a known ID replaces that entity, with blank
// fields back-filled from the old version. Remaining incoming entities whose natural
// key matches a still-unmatched existing entity adopt its ID; everything else is
// appended. Nothing in existing is ever dropped.
func retainEntities[T any](existing, incoming []T, k entityKind[T]) []T {
	out := make([]T, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	byID := make(map[string]int, len(existing))
	for i, e := range existing {
		if _, dup := byID[k.id(e)]; !dup {
			byID[k.id(e)] = i
		}
	}
	claimed := make(map[int]bool, len(existing))

	// First pass: identifier matches win over natural-key guesses.
	var rest []T
	for _, item := range incoming {
		i, ok := byID[k.id(item)]
		if !ok {
			rest = append(rest, item)
			continue
		}
		if claimed[i] {
			continue
		}
		out[i] = k.backfill(out[i], item)
		claimed[i] = true
	}

	byNatural := make(map[string]int, len(existing))
	for i, e := range existing {
		if claimed[i] {
			continue
		}
		if key := k.natural(e); key != "" {
			if _, dup := byNatural[key]; !dup {
				byNatural[key] = i
			}
		}
	}

	for _, item := range rest {
		if key := k.natural(item); key != "" {
			if i, ok := byNatural[key]; ok && !claimed[i] {
				out[i] = k.backfill(out[i], k.withID(item, k.id(out[i])))
				claimed[i] = true
				continue
			}
		}
		if _, dup := byID[k.id(item)]; dup {
			continue
		}
		byID[k.id(item)] = len(out)
		out = append(out, item)
	}
	return out
}

// fold normalizes text for natural-key comparison. It is empty when every part is blank.
func fold(parts ...string) string {
	normalized := make([]string, len(parts))
	blank := true
	for i, p := range parts {
		normalized[i] = strings.Join(strings.Fields(strings.ToLower(p)), " ")
		if normalized[i] != "" {
			blank = false
		}
	}
	if blank {
		return ""
	}
	return strings.Join(normalized, "|")
}

// pick returns updated unless it is blank or one of the placeholders
func pick(old, updated string, placeholders ...string) string {
	if strings.TrimSpace(updated) == "" {
		return old
	}
	for _, p := range placeholders {
		if updated == p && old != "" {
			return old
		}
	}
	return updated
}

var experienceKind = entityKind[types.ExperienceEntity]{
	id:     func(e types.ExperienceEntity) string { return e.ID },
	withID: func(e types.ExperienceEntity, id string) types.ExperienceEntity { e.ID = id; return e },
	natural: func(e types.ExperienceEntity) string {
		role, company := e.Role, e.Company
		if role == sanitize.PlaceholderRole {
			role = ""
		}
		if company == sanitize.PlaceholderCompany {
			company = ""
		}
		if role == "" || company == "" {
			return ""
		}
		return fold(role, company)
	},
	backfill: func(old, updated types.ExperienceEntity) types.ExperienceEntity {
		updated.Role = pick(old.Role, updated.Role, sanitize.PlaceholderRole)
		updated.Company = pick(old.Company, updated.Company, sanitize.PlaceholderCompany)
		updated.StartDate = pick(old.StartDate, updated.StartDate)
		updated.EndDate = pick(old.EndDate, updated.EndDate)
		updated.Description = pick(old.Description, updated.Description)
		return updated
	},
}

var educationKind = entityKind[types.EducationEntity]{
	id:     func(e types.EducationEntity) string { return e.ID },
	withID: func(e types.EducationEntity, id string) types.EducationEntity { e.ID = id; return e },
	natural: func(e types.EducationEntity) string {
		if e.Degree == "" || e.School == "" {
			return ""
		}
		return fold(e.Degree, e.School)
	},
	backfill: func(old, updated types.EducationEntity) types.EducationEntity {
		updated.Degree = pick(old.Degree, updated.Degree)
		updated.School = pick(old.School, updated.School)
		updated.Year = pick(old.Year, updated.Year)
		return updated
	},
}

var projectKind = entityKind[types.ProjectEntity]{
	id:      func(p types.ProjectEntity) string { return p.ID },
	withID:  func(p types.ProjectEntity, id string) types.ProjectEntity { p.ID = id; return p },
	natural: func(p types.ProjectEntity) string { return fold(p.Name) },
	backfill: func(old, updated types.ProjectEntity) types.ProjectEntity {
		updated.Name = pick(old.Name, updated.Name)
		updated.Description = pick(old.Description, updated.Description)
		updated.Link = pick(old.Link, updated.Link)
		updated.RepoLink = pick(old.RepoLink, updated.RepoLink)
		return updated
	},
}

var leadershipKind = entityKind[types.LeadershipEntity]{
	id:      func(l types.LeadershipEntity) string { return l.ID },
	withID:  func(l types.LeadershipEntity, id string) types.LeadershipEntity { l.ID = id; return l },
	natural: func(l types.LeadershipEntity) string { return fold(l.Name) },
	backfill: func(old, updated types.LeadershipEntity) types.LeadershipEntity {
		updated.Name = pick(old.Name, updated.Name)
		updated.Description = pick(old.Description, updated.Description)
		updated.DateRange = pick(old.DateRange, updated.DateRange)
		return updated
	},
}

var externalProjectKind = entityKind[types.AnalyzedExternalProject]{
	id:      func(p types.AnalyzedExternalProject) string { return p.ID },
	withID:  func(p types.AnalyzedExternalProject, id string) types.AnalyzedExternalProject { p.ID = id; return p },
	natural: func(types.AnalyzedExternalProject) string { return "" },
	// A fresh analysis replaces the old one wholesale.
	backfill: func(_, updated types.AnalyzedExternalProject) types.AnalyzedExternalProject { return updated },
}

func mergePersonalInfo(old, updated types.PersonalInfo) types.PersonalInfo {
	return types.PersonalInfo{
		FullName: pick(old.FullName, updated.FullName),
		Email:    pick(old.Email, updated.Email),
		Phone:    pick(old.Phone, updated.Phone),
		Location: pick(old.Location, updated.Location),
		LinkedIn: pick(old.LinkedIn, updated.LinkedIn),
		Website:  pick(old.Website, updated.Website),
		Summary:  pick(old.Summary, updated.Summary),
	}
}

// unionStrings appends the items of incoming not already present, exact match
func unionStrings(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, list := range [][]string{existing, incoming} {
		for _, s := range list {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// retain merges the oracle-owned sections of incoming into a copy of existing.
// Caller-owned lists are copied from existing untouched.
func retain(existing, incoming *types.MemoryProfile) *types.MemoryProfile {
	out := existing.Clone()
	out.PersonalInfo = mergePersonalInfo(existing.PersonalInfo, incoming.PersonalInfo)
	out.Experiences = retainEntities(existing.Experiences, incoming.Experiences, experienceKind)
	out.Educations = retainEntities(existing.Educations, incoming.Educations, educationKind)
	out.Projects = retainEntities(existing.Projects, incoming.Projects, projectKind)
	out.LeadershipActivities = retainEntities(existing.LeadershipActivities, incoming.LeadershipActivities, leadershipKind)
	out.Skills = unionStrings(existing.Skills, incoming.Skills)
	return out
}
