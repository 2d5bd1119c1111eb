package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-memory/internal/observability"
	"github.com/jonathan/resume-memory/internal/sanitize"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a readable summary of a profile or resume",
	RunE:  runShow,
}

var (
	showInput string
	showKind  string
)

func init() {
	showCmd.Flags().StringVarP(&showInput, "in", "i", "", "Path to JSON file (required)")
	showCmd.Flags().StringVarP(&showKind, "kind", "k", "auto", "Document kind: profile, resume or auto")

	if err := showCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	raw, err := readLooseJSON(showInput)
	if err != nil {
		return err
	}
	kind, err := resolveKind(showKind, raw)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if kind == kindProfile {
		profile := sanitize.Profile(raw)
		printer.PrintProfile(&profile)
		return nil
	}
	doc := sanitize.Document(raw)
	printer.PrintResume(&doc)
	return nil
}
