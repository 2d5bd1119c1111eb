package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-memory/internal/config"
	"github.com/jonathan/resume-memory/internal/ingestion"
	"github.com/jonathan/resume-memory/internal/llm"
	"github.com/jonathan/resume-memory/internal/memory"
	"github.com/jonathan/resume-memory/internal/observability"
	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/sanitize"
	"github.com/jonathan/resume-memory/internal/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge text or documents into a profile file",
	Long: `Reconciles free text and/or documents into a memory profile through the model and writes
the new profile. Nothing already in the profile is ever dropped.`,
	RunE: runMerge,
}

var (
	mergeProfile string
	mergeText    string
	mergeFiles   []string
	mergeOutput  string
	mergeAPIKey  string
	mergeConfig  string
)

// openMergeOracle opens the oracle used by the merge command
var openMergeOracle = func(ctx context.Context, apiKey string, logger *zap.Logger) (*oracle.Adapter, error) {
	provider := &oracle.Provider{
		Factory:    llm.NewFactory(llm.DefaultConfig()),
		DefaultKey: os.Getenv("GEMINI_API_KEY"),
		Logger:     logger,
	}
	return provider.Open(ctx, apiKey)
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeProfile, "profile", "p", "", "Path to the existing profile JSON (omit to start empty)")
	mergeCmd.Flags().StringVarP(&mergeText, "text", "t", "", "Free text to merge")
	mergeCmd.Flags().StringSliceVarP(&mergeFiles, "file", "f", nil, "Document to merge (repeatable)")
	mergeCmd.Flags().StringVarP(&mergeOutput, "out", "o", "", "Path to output profile JSON (required)")
	mergeCmd.Flags().StringVar(&mergeAPIKey, "api-key", "", "Gemini API key (default GEMINI_API_KEY)")
	mergeCmd.Flags().StringVarP(&mergeConfig, "config", "c", "", "Path to a JSON config file")

	if err := mergeCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(mergeCmd)
}

func loadMergeConfig() (config.Config, error) {
	flags := config.Config{
		Profile: mergeProfile,
		APIKey:  mergeAPIKey,
	}
	defaults := config.Config{
		Concurrency:  ingestion.DefaultConcurrency,
		MaxFileBytes: ingestion.DefaultMaxBytes,
	}
	if mergeConfig == "" {
		return flags.MergeWithDefaults(defaults), nil
	}
	fileCfg, err := config.LoadConfig(mergeConfig)
	if err != nil {
		return config.Config{}, err
	}
	if err := fileCfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return flags.MergeWithDefaults(fileCfg.MergeWithDefaults(defaults)), nil
}

func runMerge(cmd *cobra.Command, _ []string) error {
	if strings.TrimSpace(mergeText) == "" && len(mergeFiles) == 0 {
		return fmt.Errorf("nothing to merge: pass --text or at least one --file")
	}

	cfg, err := loadMergeConfig()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	before := types.NewMemoryProfile(0)
	if cfg.Profile != "" {
		raw, err := readLooseJSON(cfg.Profile)
		if err != nil {
			return err
		}
		p := sanitize.Profile(raw)
		before = &p
	}

	var texts, names []string
	if len(mergeFiles) > 0 {
		files := make([]ingestion.File, 0, len(mergeFiles))
		for _, path := range mergeFiles {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			files = append(files, ingestion.File{Name: path, Data: data})
		}
		extractor := &ingestion.FormatExtractor{MaxBytes: int(cfg.MaxFileBytes)}
		docs, err := ingestion.ExtractAll(ctx, extractor, files, cfg.Concurrency)
		if err != nil {
			return err
		}
		texts, names = ingestion.Texts(docs)
	}

	o, err := openMergeOracle(ctx, cfg.APIKey, logger)
	if err != nil {
		return err
	}
	defer o.Close()

	reconciler := memory.NewReconciler(o, nil)
	var after *types.MemoryProfile
	if len(texts) > 0 {
		if strings.TrimSpace(mergeText) != "" {
			texts = append(texts, mergeText)
		}
		after, err = reconciler.MergeStructuredFiles(ctx, before, texts, names, memory.MergeOptions{})
	} else {
		after, err = reconciler.MergeFreeText(ctx, before, mergeText, memory.MergeOptions{})
	}
	if err != nil {
		return err
	}

	if err := writeJSON(cmd.OutOrStdout(), mergeOutput, after); err != nil {
		return err
	}
	observability.NewPrinter(cmd.ErrOrStderr()).PrintMergeSummary(before, after)
	return nil
}
