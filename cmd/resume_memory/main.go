// Package main provides the entry point for the resume memory server and its tooling.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_memory",
	Short: "Resume memory reconciliation service",
	Long: "resume_memory keeps a canonical career profile per user, reconciles new facts into it " +
		"through a language model, and projects it into tailored resumes via a REST API.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
