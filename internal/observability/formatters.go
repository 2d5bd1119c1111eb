// Package observability provides logging, metrics and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-memory/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		if r := []rune(line); len(r) > boxWidth-4 {
			line = string(r[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of a memory profile.
func (p *Printer) PrintProfile(profile *types.MemoryProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	if name := profile.PersonalInfo.FullName; name != "" {
		sb.WriteString(fmt.Sprintf("Name:     %s\n", name))
	}
	sb.WriteString(fmt.Sprintf("Experiences: %d  Education: %d  Projects: %d  Leadership: %d\n",
		len(profile.Experiences), len(profile.Educations), len(profile.Projects), len(profile.LeadershipActivities)))
	sb.WriteString(fmt.Sprintf("Open questions: %d  Source files: %d  External projects: %d\n",
		len(profile.QnA), len(profile.RawSourceFiles), len(profile.ExternalProjects)))

	if len(profile.Experiences) > 0 {
		sb.WriteString("\nExperience:\n")
		count := min(len(profile.Experiences), maxItemsToShow)
		for i := 0; i < count; i++ {
			e := profile.Experiences[i]
			sb.WriteString(fmt.Sprintf("  • %s @ %s", e.Role, e.Company))
			if e.StartDate != "" || e.EndDate != "" {
				sb.WriteString(fmt.Sprintf(" (%s - %s)", e.StartDate, e.EndDate))
			}
			sb.WriteString("\n")
		}
		if len(profile.Experiences) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Experiences)-maxItemsToShow))
		}
	}

	if len(profile.Skills) > 0 {
		skills := profile.Skills
		more := 0
		if len(skills) > maxItemsToShow*2 {
			more = len(skills) - maxItemsToShow*2
			skills = skills[:maxItemsToShow*2]
		}
		sb.WriteString(fmt.Sprintf("\nSkills: %s", strings.Join(skills, ", ")))
		if more > 0 {
			sb.WriteString(fmt.Sprintf(" (+%d)", more))
		}
	}

	p.printBox("MEMORY PROFILE", strings.TrimRight(sb.String(), "\n"))
}

// PrintMergeSummary outputs what a merge added relative to the previous profile.
func (p *Printer) PrintMergeSummary(before, after *types.MemoryProfile) {
	if after == nil {
		return
	}
	if before == nil {
		before = types.NewMemoryProfile(0)
	}

	var sb strings.Builder
	rows := []struct {
		label         string
		before, after int
	}{
		{"Experiences", len(before.Experiences), len(after.Experiences)},
		{"Education", len(before.Educations), len(after.Educations)},
		{"Projects", len(before.Projects), len(after.Projects)},
		{"Leadership", len(before.LeadershipActivities), len(after.LeadershipActivities)},
		{"Skills", len(before.Skills), len(after.Skills)},
		{"Open questions", len(before.QnA), len(after.QnA)},
	}
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-16s %3d → %3d", r.label, r.before, r.after))
		if d := r.after - r.before; d != 0 {
			sb.WriteString(fmt.Sprintf("  (%+d)", d))
		}
		sb.WriteString("\n")
	}

	known := make(map[string]struct{}, len(before.Skills))
	for _, s := range before.Skills {
		known[s] = struct{}{}
	}
	var added []string
	for _, s := range after.Skills {
		if _, ok := known[s]; !ok {
			added = append(added, s)
		}
	}
	if len(added) > 0 {
		sb.WriteString(fmt.Sprintf("\nNew skills: %s", strings.Join(added, ", ")))
	}

	p.printBox("MERGE RESULT", strings.TrimRight(sb.String(), "\n"))
}

// PrintResume outputs a summary of a resume document.
func (p *Printer) PrintResume(doc *types.ResumeDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.Title))
	sb.WriteString(fmt.Sprintf("ATS:      %d/100\n", doc.ATSScore))
	sb.WriteString(fmt.Sprintf("Sections: %d experience, %d education, %d projects\n",
		len(doc.Experience), len(doc.Education), len(doc.Projects)))
	if doc.ResearchContext != nil {
		sb.WriteString(fmt.Sprintf("\nResearch sources: %d\n", len(doc.ResearchContext.Sources)))
		count := min(len(doc.ResearchContext.Sources), maxItemsToShow)
		for i := 0; i < count; i++ {
			src := doc.ResearchContext.Sources[i]
			label := src.Title
			if label == "" {
				label = src.URI
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", label))
		}
	}

	p.printBox("RESUME", strings.TrimRight(sb.String(), "\n"))
}

// PrintValidation outputs schema validation errors, or a success line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(name string, problems []string) {
	if len(problems) == 0 {
		fmt.Fprintf(p.out, "✓ %s is valid\n", name)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d problem(s) in %s\n\n", len(problems), name))
	for _, problem := range problems {
		sb.WriteString(fmt.Sprintf("  ✗ %s\n", problem))
	}
	p.printBox("VALIDATION FAILED", strings.TrimRight(sb.String(), "\n"))
}
