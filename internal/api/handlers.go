package api

import (
	"net/http"

	logger "github.com/sirupsen/logrus"

	"github.com/repojudge/repojudge/internal/models"
	"github.com/repojudge/repojudge/internal/pipeline"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Generate / Analyze / Report ---

type generateRequest struct {
	RepoURL      string `json:"repoUrl"`
	Language     string `json:"language"`
	ForceRefresh bool   `json:"forceRefresh"`
	Model        string `json:"model"`
}

func (s *Server) pipelineRequest(r *http.Request, req generateRequest) pipeline.Request {
	return pipeline.Request{
		RepoURL:      req.RepoURL,
		Language:     req.Language,
		Model:        req.Model,
		ForceRefresh: req.ForceRefresh,
		AuthToken:    s.githubToken(r),
		APIKey:       s.geminiKey(r),
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "Repository URL is required")
		return
	}

	result, err := s.svc.GenerateReadme(r.Context(), s.pipelineRequest(r, req))
	if err != nil {
		logger.Errorf("generate %s: %v", req.RepoURL, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"readme":  result.Readme,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "GitHub repository URL is required")
		return
	}

	outcome, err := s.svc.Analyze(r.Context(), s.pipelineRequest(r, req))
	if err != nil {
		logger.Errorf("analyze %s: %v", req.RepoURL, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"analysis": outcome.Analysis,
		"cached":   outcome.Cached,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "Repository URL is required")
		return
	}

	report, err := s.svc.GenerateReport(r.Context(), s.pipelineRequest(r, req))
	if err != nil {
		logger.Errorf("report %s: %v", req.RepoURL, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"readme":   report.Readme,
		"analysis": report.Analysis,
		"cached":   report.Cached,
	})
}

// --- Chat ---

type chatRequest struct {
	RepoURL  string            `json:"repoUrl"`
	Message  string            `json:"message"`
	History  []models.ChatTurn `json:"history"`
	Language string            `json:"language"`
	Model    string            `json:"model"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request: " + err.Error()})
		return
	}
	if req.RepoURL == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing repository URL or message"})
		return
	}

	reply, err := s.svc.Chat(r.Context(), pipeline.Request{
		RepoURL:   req.RepoURL,
		Language:  req.Language,
		Model:     req.Model,
		AuthToken: s.githubToken(r),
		APIKey:    s.geminiKey(r),
		Message:   req.Message,
		History:   req.History,
	})
	if err != nil {
		logger.Errorf("chat %s: %v", req.RepoURL, err)
		writeJSON(w, statusFor(err), map[string]any{"success": false, "error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"response": reply,
	})
}

// --- User / Repos / Status ---

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	token := s.githubToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	user, err := s.newDirectory(token).User(r.Context())
	if err != nil {
		logger.Warnf("fetching user: %v", err)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
	})
}

func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	token := s.githubToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]any{"repos": []models.UserRepo{}})
		return
	}

	repos, err := s.newDirectory(token).UserRepos(r.Context())
	if err != nil {
		logger.Warnf("fetching repos: %v", err)
		repos = []models.UserRepo{}
	}
	if repos == nil {
		repos = []models.UserRepo{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"repos": repos})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"geminiConfigured": s.geminiKey(r) != "",
	})
}
