package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-memory/internal/sanitize"
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Heal a profile or resume JSON file",
	Long: `Reads a memory profile or resume document of any shape, including model output with
code fences or alias keys, and writes its canonical form. Missing IDs are generated and
unknown fields are dropped.`,
	RunE: runSanitize,
}

var (
	sanitizeInput  string
	sanitizeOutput string
	sanitizeKind   string
)

func init() {
	sanitizeCmd.Flags().StringVarP(&sanitizeInput, "in", "i", "", "Path to input JSON file (required)")
	sanitizeCmd.Flags().StringVarP(&sanitizeOutput, "out", "o", "", "Path to output JSON file (default stdout)")
	sanitizeCmd.Flags().StringVarP(&sanitizeKind, "kind", "k", "auto", "Document kind: profile, resume or auto")

	if err := sanitizeCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, _ []string) error {
	raw, err := readLooseJSON(sanitizeInput)
	if err != nil {
		return err
	}

	kind, err := resolveKind(sanitizeKind, raw)
	if err != nil {
		return err
	}

	var out any
	switch kind {
	case kindProfile:
		out = sanitize.Profile(raw)
	case kindResume:
		out = sanitize.Document(raw)
	}
	return writeJSON(cmd.OutOrStdout(), sanitizeOutput, out)
}

const (
	kindProfile = "profile"
	kindResume  = "resume"
)

// resumeOnlyKeys never appear in a memory profile
var resumeOnlyKeys = []string{"title", "atsScore", "hiddenKeywords", "researchContext"}

// resolveKind maps the --kind flag to a document kind, sniffing the content for "auto"
func resolveKind(flag string, raw any) (string, error) {
	switch flag {
	case kindProfile, kindResume:
		return flag, nil
	case "", "auto":
		if rec, ok := raw.(map[string]any); ok {
			for _, key := range resumeOnlyKeys {
				if _, found := rec[key]; found {
					return kindResume, nil
				}
			}
		}
		if sanitize.LooksLikeProfile(raw) {
			return kindProfile, nil
		}
		return kindResume, nil
	default:
		return "", fmt.Errorf("invalid --kind %q: must be profile, resume or auto", flag)
	}
}
