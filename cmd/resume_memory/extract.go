package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-memory/internal/ingestion"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the plain text of a career document",
	Long: `Extracts the text the merge command would send for one document (plain text,
Markdown, HTML or JSON) and writes it to --out or stdout. Document metadata (format,
hash and sizes) is written to --meta when given.`,
	RunE: runExtract,
}

var (
	extractInput  string
	extractOutput string
	extractMeta   string
)

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "in", "i", "", "Path to the document (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "out", "o", "", "Path to write the extracted text (default stdout)")
	extractCmd.Flags().StringVar(&extractMeta, "meta", "", "Path to write document metadata JSON")

	if err := extractCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	text, metadata, err := ingestion.IngestFromFile(cmd.Context(), ingestion.NewExtractor(), extractInput)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", extractInput, err)
	}

	if extractOutput == "" || extractOutput == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
	} else if err := os.WriteFile(extractOutput, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", extractOutput, err)
	}

	if extractMeta != "" {
		data, err := metadata.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		if err := os.WriteFile(extractMeta, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", extractMeta, err)
		}
	}
	return nil
}
