// Package api implements the HTTP edge of repojudge. It resolves auth
// material from headers, delegates to the request pipeline, and maps the
// error taxonomy onto HTTP statuses. Rendering is the client's job.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/repojudge/repojudge/internal/github"
	"github.com/repojudge/repojudge/internal/models"
	"github.com/repojudge/repojudge/internal/pipeline"
)

// Service is the pipeline surface the handlers call.
type Service interface {
	GenerateReadme(ctx context.Context, req pipeline.Request) (*pipeline.ReadmeResult, error)
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.AnalysisOutcome, error)
	Chat(ctx context.Context, req pipeline.Request) (string, error)
	GenerateReport(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

// GitHubDirectory answers the user/repo-listing endpoints.
type GitHubDirectory interface {
	User(ctx context.Context) (*models.User, error)
	UserRepos(ctx context.Context) ([]models.UserRepo, error)
}

// DirectoryFactory builds a GitHubDirectory bound to a caller's token.
type DirectoryFactory func(token string) GitHubDirectory

// Server is the repojudge HTTP API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	server *http.Server

	svc          Service
	newDirectory DirectoryFactory

	// Server-level fallbacks for self-hosted single-user deployments.
	fallbackGitHubToken string
	fallbackGeminiKey   string
}

// Options configures the server beyond its collaborators.
type Options struct {
	Addr                string
	FallbackGitHubToken string
	FallbackGeminiKey   string
}

// New creates a new API server.
func New(svc Service, newDirectory DirectoryFactory, opts Options) *Server {
	s := &Server{
		addr:                opts.Addr,
		svc:                 svc,
		newDirectory:        newDirectory,
		fallbackGitHubToken: opts.FallbackGitHubToken,
		fallbackGeminiKey:   opts.FallbackGeminiKey,
	}
	s.mux = http.NewServeMux()
	s.registerRoutes()
	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/generate", s.handleGenerate)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/report", s.handleReport)
	s.mux.HandleFunc("GET /api/user", s.handleUser)
	s.mux.HandleFunc("GET /api/repos", s.handleRepos)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	logger.Infof("repojudge API server listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// githubToken resolves the caller's GitHub token: explicit header first,
// then bearer auth, then the server fallback. May be empty (public repos).
func (s *Server) githubToken(r *http.Request) string {
	if tok := r.Header.Get("X-GitHub-Token"); tok != "" {
		return tok
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return s.fallbackGitHubToken
}

// geminiKey resolves the caller's LLM key. Absence is a precondition
// failure checked before any outbound call.
func (s *Server) geminiKey(r *http.Request) string {
	if key := r.Header.Get("X-Gemini-Key"); key != "" {
		return key
	}
	return s.fallbackGeminiKey
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("json encode error: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// readJSON decodes a JSON request body into v.
func readJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps the pipeline error taxonomy onto HTTP statuses: client
// faults 4xx, upstream transport 502, everything else 500.
func statusFor(err error) int {
	var upstream *github.UpstreamError
	switch {
	case errors.Is(err, pipeline.ErrInvalidRepoURL), errors.Is(err, pipeline.ErrMissingAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, github.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, github.ErrEmptyRepository):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
