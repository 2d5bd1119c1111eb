// Package memory reconciles new career facts into a user's canonical MemoryProfile.
// Reconciler is the only code that produces a new profile version; Service adds
// loading, per-profile serialization and persistence around it.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/sanitize"
	"github.com/jonathan/resume-memory/internal/types"
)

// FileBreak separates documents combined into one merge request
const FileBreak = "\n\n--- FILE BREAK ---\n\n"

// ProfileOracle is the part of the oracle used for reconciliation. Its semantic
// deduplication is best-effort; retention by identifier guarantees nothing is lost.
type ProfileOracle interface {
	Reconcile(ctx context.Context, profile *types.MemoryProfile, newText string) (any, error)
}

// MergeOptions carries explicit replacements for caller-owned lists.
// A nil slice keeps the existing list; a non-nil slice, even empty, replaces it.
type MergeOptions struct {
	RawSourceFiles   []string
	QnA              []types.QnAItem
	ExternalProjects []types.AnalyzedExternalProject
}

// Reconciler produces new profile versions. It never mutates its inputs.
type Reconciler struct {
	oracle    ProfileOracle
	sanitizer *sanitize.Sanitizer
}

// NewReconciler builds a reconciler. A nil sanitizer uses random IDs and the wall clock.
// o may be nil when only the oracle-free operations are used.
func NewReconciler(o ProfileOracle, s *sanitize.Sanitizer) *Reconciler {
	if s == nil {
		s = sanitize.New()
	}
	return &Reconciler{oracle: o, sanitizer: s}
}

// MergeFreeText merges unstructured text through the oracle. On any failure the
// existing profile is returned unchanged together with a *MergeFailedError.
func (r *Reconciler) MergeFreeText(ctx context.Context, existing *types.MemoryProfile, text string, opts MergeOptions) (*types.MemoryProfile, error) {
	existing = r.base(existing)
	if strings.TrimSpace(text) == "" {
		return existing, &MergeFailedError{Message: "no text to merge"}
	}
	if r.oracle == nil {
		return existing, &MergeFailedError{Message: "no oracle configured", Cause: &oracle.ConfigurationMissingError{}}
	}

	raw, err := r.oracle.Reconcile(ctx, existing, text)
	if err != nil {
		return existing, &MergeFailedError{Message: "oracle reconciliation failed", Cause: err}
	}
	if !sanitize.LooksLikeProfile(raw) {
		return existing, &MergeFailedError{
			Message: "oracle response is not a profile",
			Cause:   &oracle.MalformedResponseError{Message: fmt.Sprintf("unexpected %T", raw)},
		}
	}
	if err := ctx.Err(); err != nil {
		return existing, &MergeFailedError{Message: "merge abandoned", Cause: err}
	}

	incoming := r.sanitizer.Profile(raw)
	return r.finish(existing, retain(existing, &incoming), opts), nil
}

// MergeBatchQnA merges every answered question in a single oracle call and removes
// the answered questions from the open list.
func (r *Reconciler) MergeBatchQnA(ctx context.Context, existing *types.MemoryProfile, pairs []types.QnAPair, opts MergeOptions) (*types.MemoryProfile, error) {
	existing = r.base(existing)
	var sb strings.Builder
	for _, p := range pairs {
		if strings.TrimSpace(p.Answer) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Question: %s\nAnswer: %s", strings.TrimSpace(p.Question), strings.TrimSpace(p.Answer))
	}
	if sb.Len() == 0 {
		return existing, &MergeFailedError{Message: "no answered questions to merge"}
	}

	if opts.QnA == nil {
		opts.QnA = removeAnswered(existing.QnA, pairs)
	}
	return r.MergeFreeText(ctx, existing, sb.String(), opts)
}

// MergeStructuredFiles merges the text of several documents in one oracle call and
// records their names as source files.
func (r *Reconciler) MergeStructuredFiles(ctx context.Context, existing *types.MemoryProfile, texts, filenames []string, opts MergeOptions) (*types.MemoryProfile, error) {
	existing = r.base(existing)
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return existing, &MergeFailedError{Message: "uploaded files contain no text"}
	}

	if opts.RawSourceFiles == nil {
		names := make([]string, 0, len(filenames))
		for _, n := range filenames {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		opts.RawSourceFiles = unionStrings(existing.RawSourceFiles, names)
	}
	return r.MergeFreeText(ctx, existing, strings.Join(parts, FileBreak), opts)
}

// MergeRecords merges an already-structured batch without the oracle. The batch is
// sanitized first, so any record shape is accepted.
func (r *Reconciler) MergeRecords(existing *types.MemoryProfile, raw any, opts MergeOptions) (*types.MemoryProfile, error) {
	existing = r.base(existing)
	if !sanitize.LooksLikeProfile(raw) {
		return existing, &MergeFailedError{Message: "records contain no profile sections"}
	}
	incoming := r.sanitizer.Profile(raw)
	return r.finish(existing, retain(existing, &incoming), opts), nil
}

// AppendQuestions adds open questions, skipping any whose text is already open.
func (r *Reconciler) AppendQuestions(existing *types.MemoryProfile, raw any) *types.MemoryProfile {
	existing = r.base(existing)
	open := make(map[string]struct{}, len(existing.QnA))
	for _, q := range existing.QnA {
		open[fold(q.Question)] = struct{}{}
	}
	qna := append([]types.QnAItem{}, existing.QnA...)
	for _, item := range sanitize.ToList(raw) {
		q := r.sanitizer.QnA(withoutID(item))
		if _, dup := open[fold(q.Question)]; dup {
			continue
		}
		open[fold(q.Question)] = struct{}{}
		qna = append(qna, q)
	}
	return r.finish(existing, existing.Clone(), MergeOptions{QnA: qna})
}

// ReplaceSkills sets the skill list to the sanitized form of raw. An empty result
// leaves the skills unchanged.
func (r *Reconciler) ReplaceSkills(existing *types.MemoryProfile, raw any) (*types.MemoryProfile, bool) {
	existing = r.base(existing)
	skills := sanitize.ToSkillSet(raw)
	if len(skills) == 0 {
		return existing, false
	}
	out := existing.Clone()
	out.Skills = skills
	return r.finish(existing, out, MergeOptions{}), true
}

// UpsertExternalProjects replaces analyzed projects by ID and appends new ones.
func (r *Reconciler) UpsertExternalProjects(existing *types.MemoryProfile, projects []types.AnalyzedExternalProject) *types.MemoryProfile {
	existing = r.base(existing)
	merged := retainEntities(existing.ExternalProjects, projects, externalProjectKind)
	return r.finish(existing, existing.Clone(), MergeOptions{ExternalProjects: merged})
}

// base returns a usable profile for existing without modifying it
func (r *Reconciler) base(existing *types.MemoryProfile) *types.MemoryProfile {
	if existing == nil {
		return types.NewMemoryProfile(0)
	}
	return existing
}

// finish applies caller-owned replacements and advances lastUpdated
func (r *Reconciler) finish(existing, merged *types.MemoryProfile, opts MergeOptions) *types.MemoryProfile {
	if opts.RawSourceFiles != nil {
		merged.RawSourceFiles = append([]string{}, opts.RawSourceFiles...)
	}
	if opts.QnA != nil {
		merged.QnA = append([]types.QnAItem{}, opts.QnA...)
	}
	if opts.ExternalProjects != nil {
		merged.ExternalProjects = make([]types.AnalyzedExternalProject, len(opts.ExternalProjects))
		for i, p := range opts.ExternalProjects {
			merged.ExternalProjects[i] = p.Clone()
		}
	}
	merged.Version = existing.Version
	merged.LastUpdated = nextTimestamp(existing.LastUpdated, r.sanitizer.Now())
	return merged
}

// nextTimestamp is now in milliseconds, or previous+1 if the clock has not advanced
func nextTimestamp(previous int64, now time.Time) int64 {
	if ms := now.UnixMilli(); ms > previous {
		return ms
	}
	return previous + 1
}

// removeAnswered drops open questions matched by ID, or by text when no ID was sent
func removeAnswered(open []types.QnAItem, pairs []types.QnAPair) []types.QnAItem {
	ids := make(map[string]struct{}, len(pairs))
	texts := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.Answer) == "" {
			continue
		}
		if p.QuestionID != "" {
			ids[p.QuestionID] = struct{}{}
		} else {
			texts[fold(p.Question)] = struct{}{}
		}
	}
	out := make([]types.QnAItem, 0, len(open))
	for _, q := range open {
		if _, answered := ids[q.ID]; answered {
			continue
		}
		if _, answered := texts[fold(q.Question)]; answered {
			continue
		}
		out = append(out, q)
	}
	return out
}

// withoutID strips an oracle-supplied id so question IDs always come from the sanitizer
func withoutID(item any) any {
	rec, ok := item.(map[string]any)
	if !ok {
		return item
	}
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		if k != "id" {
			out[k] = v
		}
	}
	return out
}
