package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-memory/internal/observability"
	"github.com/jonathan/resume-memory/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a profile or resume JSON file against its schema",
	Long: `Validates a memory profile or resume document against the embedded JSON schemas and
lists every problem found. --schema validates against a schema file on disk instead.`,
	RunE:  runValidate,
}

var (
	validateInput  string
	validateKind   string
	validateSchema string
)

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to JSON file (required)")
	validateCmd.Flags().StringVarP(&validateKind, "kind", "k", "auto", "Document kind: profile, resume or auto")
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "", "Path to a JSON Schema file to validate against")

	if err := validateCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var name string
	var err error
	if validateSchema != "" {
		name = fmt.Sprintf("%s (%s)", filepath.Base(validateInput), filepath.Base(validateSchema))
		err = schemas.ValidateJSON(validateSchema, validateInput)
	} else {
		raw, readErr := readLooseJSON(validateInput)
		if readErr != nil {
			return readErr
		}
		kind, kindErr := resolveKind(validateKind, raw)
		if kindErr != nil {
			return kindErr
		}
		name = fmt.Sprintf("%s (%s)", filepath.Base(validateInput), kind)
		if kind == kindProfile {
			err = schemas.ValidateProfile(raw)
		} else {
			err = schemas.ValidateDocument(raw)
		}
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())

	var validationErr *schemas.ValidationError
	switch {
	case err == nil:
		printer.PrintValidation(name, nil)
		return nil
	case errors.As(err, &validationErr):
		printer.PrintValidation(name, validationErr.Problems())
		return fmt.Errorf("validation failed: %w", err)
	default:
		return fmt.Errorf("failed to validate: %w", err)
	}
}
