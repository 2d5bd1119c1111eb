package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-memory/internal/config"
	"github.com/jonathan/resume-memory/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local development",
	Long:  "Signs a JWT for --user with JWT_SECRET so the API can be exercised without an identity provider.",
	RunE:  runToken,
}

var tokenUser string

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "User ID to put in the token (required)")

	if err := tokenCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	token, err := server.NewJWTService(jwtConfig).GenerateToken(tokenUser)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
