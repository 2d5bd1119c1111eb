package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-memory/internal/config"
	"github.com/jonathan/resume-memory/internal/db"
	"github.com/jonathan/resume-memory/internal/ingestion"
	"github.com/jonathan/resume-memory/internal/llm"
	"github.com/jonathan/resume-memory/internal/memory"
	"github.com/jonathan/resume-memory/internal/observability"
	"github.com/jonathan/resume-memory/internal/oracle"
	"github.com/jonathan/resume-memory/internal/repos"
	"github.com/jonathan/resume-memory/internal/resumes"
	"github.com/jonathan/resume-memory/internal/server"
	"github.com/jonathan/resume-memory/internal/server/ratelimit"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the memory profile and resume endpoints.
Configuration is read from the environment (see .env.example); --port overrides PORT.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

// profileStore is implemented by both *db.DB and *db.MemStore
type profileStore interface {
	memory.Store
	resumes.Store
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
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

	var store profileStore
	var health func(context.Context) error
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		store, health = database, database.Ping
	} else {
		logger.Warn("DATABASE_URL not set, profiles are kept in memory and lost on restart")
		store = db.NewMemStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewPrometheusObserver("", registry)
	if err != nil {
		return err
	}

	memOpts := []memory.Option{
		memory.WithLogger(logger),
		memory.WithObserver(metrics),
		memory.WithEnrichConcurrency(cfg.EnrichConcurrency),
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		if locker := memory.NewRedisLocker(client, cfg.MergeLockTTL); locker != nil {
			memOpts = append(memOpts, memory.WithLocker(locker))
		}
		logger.Info("profile locks shared through redis", zap.String("addr", cfg.RedisAddr))
	}
	mem := memory.NewService(store, memOpts...)
	res := resumes.NewService(store, mem, nil, logger)

	cache, err := llm.NewResponseCache(llm.CacheConfig{MaxSize: cfg.OracleCacheSize, TTL: cfg.OracleCacheTTL})
	if err != nil {
		return err
	}
	provider := &oracle.Provider{
		Factory:    llm.NewFactory(modelConfig(cfg)),
		DefaultKey: cfg.GeminiAPIKey,
		Cache:      cache,
		Limiter:    llm.NewRateLimiter(cfg.OracleRatePerMinute, cfg.OracleRateBurst),
		Logger:     logger,
	}

	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	jwtService := server.NewJWTService(jwtConfig)

	rateConfig, err := ratelimit.LoadConfig()
	if err != nil {
		return err
	}

	repoOpts := repos.DefaultOptions()
	repoOpts.BaseURL = cfg.GitHubAPIBase
	repoCache := repos.NewCache(256, cfg.GitHubCacheTTL)

	srv, err := server.New(server.Config{Port: cfg.Port}, server.Deps{
		Memory:  mem,
		Resumes: res,
		OpenOracle: func(ctx context.Context, apiKey string) (server.Oracle, error) {
			adapter, err := provider.Open(ctx, apiKey)
			if err != nil {
				return nil, err
			}
			return adapter, nil
		},
		Extractor: &ingestion.FormatExtractor{MaxBytes: int(cfg.MaxUploadBytes)},
		Repos: func(token string) server.RepoClient {
			return repos.NewClient(token, repoOpts, repoCache)
		},
		Tokens:         jwtService.AsTokenValidator(),
		RateLimiter:    ratelimit.NewLimiter(rateConfig),
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Health:         health,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// modelConfig applies the configured model overrides to the default tier mapping
func modelConfig(cfg *config.ServerConfig) *llm.Config {
	return llm.DefaultConfig().WithOverrides(map[llm.ModelTier]string{
		llm.TierLite:     cfg.ModelLite,
		llm.TierStandard: cfg.ModelStandard,
		llm.TierAdvanced: cfg.ModelAdvanced,
	}).WithTemperature(cfg.OracleTemperature)
}
