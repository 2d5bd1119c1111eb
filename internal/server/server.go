// Package server provides the HTTP REST API for the memory profile and resume services.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-memory/internal/ingestion"
	"github.com/jonathan/resume-memory/internal/llm"
	"github.com/jonathan/resume-memory/internal/memory"
	"github.com/jonathan/resume-memory/internal/observability"
	"github.com/jonathan/resume-memory/internal/resumes"
	"github.com/jonathan/resume-memory/internal/server/middleware"
	"github.com/jonathan/resume-memory/internal/server/ratelimit"
	"github.com/jonathan/resume-memory/internal/types"
)

// Request headers carrying per-user credentials
const (
	HeaderAPIKey      = "X-Gemini-Api-Key"
	HeaderGitHubToken = "X-GitHub-Token"
)

// DefaultMaxUploadBytes bounds a request body when Deps.MaxUploadBytes is unset
const DefaultMaxUploadBytes int64 = 5 << 20

// Oracle is every model operation the API drives. *oracle.Adapter implements it.
type Oracle interface {
	memory.Oracle
	resumes.Oracle
	ingestion.FactExtractor
	Close() error
}

// OracleOpener returns an oracle for apiKey, which may be empty to use the server key.
type OracleOpener func(ctx context.Context, apiKey string) (Oracle, error)

// RepoClient lists and reads a user's code repositories. *repos.Client implements it.
type RepoClient interface {
	ListRepos(ctx context.Context) ([]types.ExternalRepo, error)
	Readme(ctx context.Context, fullName string) (string, error)
}

// RepoClientFactory returns a RepoClient acting with token
type RepoClientFactory func(token string) RepoClient

// Deps are the services the server routes to. Memory, Resumes and Tokens are required.
type Deps struct {
	Memory             *memory.Service
	Resumes            *resumes.Service
	OpenOracle         OracleOpener
	Extractor          ingestion.Extractor
	Repos              RepoClientFactory
	Tokens             middleware.TokenValidator
	RateLimiter        *ratelimit.Limiter
	Metrics            *observability.PrometheusObserver
	MetricsHandler     http.Handler
	Health             func(ctx context.Context) error
	Logger             *zap.Logger
	MaxUploadBytes     int64
	ExtractConcurrency int
}

// Config holds server configuration
type Config struct {
	Port int
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	deps        Deps
	logger      *zap.Logger
	rateLimiter *ratelimit.Limiter
	handler     http.Handler
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Memory == nil || deps.Resumes == nil {
		return nil, fmt.Errorf("memory and resume services are required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("a token validator is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Extractor == nil {
		deps.Extractor = ingestion.NewExtractor()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	s := &Server{
		deps:        deps,
		logger:      deps.Logger,
		rateLimiter: deps.RateLimiter,
	}

	auth := middleware.AuthMiddleware(deps.Tokens)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	// Memory profile
	mux.Handle("GET /memory", auth(s.user(s.handleGetMemory)))
	mux.Handle("PUT /memory", auth(s.user(s.handlePutMemory)))
	mux.Handle("POST /memory/merge", auth(s.user(s.handleMergeText)))
	mux.Handle("POST /memory/qna", auth(s.user(s.handleMergeQnA)))
	mux.Handle("POST /memory/qna/answer", auth(s.user(s.handleAnswerQuestion)))
	mux.Handle("POST /memory/files", auth(s.user(s.handleMergeFiles)))
	mux.Handle("POST /memory/extract", auth(s.user(s.handleExtractFiles)))
	mux.Handle("POST /memory/records", auth(s.user(s.handleMergeRecords)))
	mux.Handle("POST /memory/questions", auth(s.user(s.handleGenerateQuestions)))
	mux.Handle("POST /memory/skills/optimize", auth(s.user(s.handleOptimizeSkills)))
	mux.Handle("POST /memory/external-projects", auth(s.user(s.handleImportProjects)))
	mux.Handle("POST /memory/external-projects/score", auth(s.user(s.handleScoreProjects)))

	// Code host
	mux.Handle("GET /repos", auth(s.user(s.handleListRepos)))

	// Resumes
	mux.Handle("GET /resumes", auth(s.user(s.handleListResumes)))
	mux.Handle("POST /resumes", auth(s.user(s.handleGenerateResume)))
	mux.Handle("GET /resumes/{id}", auth(s.user(s.handleGetResume)))
	mux.Handle("PUT /resumes/{id}", auth(s.user(s.handleSaveResume)))
	mux.Handle("DELETE /resumes/{id}", auth(s.user(s.handleDeleteResume)))
	mux.Handle("POST /resumes/{id}/tailor", auth(s.user(s.handleTailorResume)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // oracle calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped request handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM, then
// drains in-flight requests.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// userHandler is a handler for an authenticated user
type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// user resolves the authenticated user and tags the context for per-user oracle limits
func (s *Server) user(h userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := middleware.GetUserID(r)
		if err != nil {
			s.errorResponse(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
			return
		}
		h(w, r.WithContext(llm.WithUser(r.Context(), userID)), userID)
	})
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+HeaderAPIKey+", "+HeaderGitHubToken)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging and latency metrics
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.deps.Metrics.RecordRequest(r.Method, r.Pattern, rec.status, elapsed)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
			zap.String("remote", r.RemoteAddr),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", fields...)
			return
		}
		s.logger.Debug("request completed", fields...)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to its HTTP status. Internal errors are logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Info("rate limit exceeded",
		zap.String("client", s.extractClientID(r)),
		zap.String("path", r.URL.Path),
		zap.Int("limit", info.Limit))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
