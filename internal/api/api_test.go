package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repojudge/repojudge/internal/github"
	"github.com/repojudge/repojudge/internal/models"
	"github.com/repojudge/repojudge/internal/pipeline"
)

// --- doubles ---

type stubService struct {
	lastRequest pipeline.Request

	readme   *pipeline.ReadmeResult
	analysis *pipeline.AnalysisOutcome
	reply    string
	report   *pipeline.Report
	err      error
}

func (s *stubService) GenerateReadme(_ context.Context, req pipeline.Request) (*pipeline.ReadmeResult, error) {
	s.lastRequest = req
	return s.readme, s.err
}

func (s *stubService) Analyze(_ context.Context, req pipeline.Request) (*pipeline.AnalysisOutcome, error) {
	s.lastRequest = req
	return s.analysis, s.err
}

func (s *stubService) Chat(_ context.Context, req pipeline.Request) (string, error) {
	s.lastRequest = req
	return s.reply, s.err
}

func (s *stubService) GenerateReport(_ context.Context, req pipeline.Request) (*pipeline.Report, error) {
	s.lastRequest = req
	return s.report, s.err
}

type stubDirectory struct {
	user  *models.User
	repos []models.UserRepo
	err   error
}

func (d *stubDirectory) User(context.Context) (*models.User, error)            { return d.user, d.err }
func (d *stubDirectory) UserRepos(context.Context) ([]models.UserRepo, error) { return d.repos, d.err }

func newTestServer(svc *stubService, dir *stubDirectory) *Server {
	return New(svc, func(string) GitHubDirectory { return dir }, Options{Addr: ":0"})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- tests ---

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubService{}, &stubDirectory{})
	w := doJSON(t, srv, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestGenerateEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("should require a repository URL", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&stubService{}, &stubDirectory{})
		w := doJSON(t, srv, http.MethodPost, "/api/generate", map[string]any{}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, decode(t, w)["error"])
	})

	t.Run("should return the generated readme", func(t *testing.T) {
		t.Parallel()

		svc := &stubService{readme: &pipeline.ReadmeResult{Readme: "# Hello"}}
		srv := newTestServer(svc, &stubDirectory{})

		w := doJSON(t, srv, http.MethodPost, "/api/generate", map[string]any{
			"repoUrl":  "octocat/Hello-World",
			"language": "tr",
			"model":    "pro",
		}, map[string]string{
			"X-Gemini-Key":   "gk",
			"X-GitHub-Token": "ght",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "# Hello", resp["readme"])

		assert.Equal(t, "gk", svc.lastRequest.APIKey)
		assert.Equal(t, "ght", svc.lastRequest.AuthToken)
		assert.Equal(t, "tr", svc.lastRequest.Language)
		assert.Equal(t, "pro", svc.lastRequest.Model)
	})

	t.Run("should accept a bearer token as the GitHub credential", func(t *testing.T) {
		t.Parallel()

		svc := &stubService{readme: &pipeline.ReadmeResult{Readme: "# x"}}
		srv := newTestServer(svc, &stubDirectory{})

		doJSON(t, srv, http.MethodPost, "/api/generate", map[string]any{"repoUrl": "a/b"}, map[string]string{
			"Authorization": "Bearer session-token",
		})

		assert.Equal(t, "session-token", svc.lastRequest.AuthToken)
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("should return the analysis with its cache marker", func(t *testing.T) {
		t.Parallel()

		analysis := &models.AnalysisResult{OverallHealthScore: 77}
		analysis.Normalize()
		svc := &stubService{analysis: &pipeline.AnalysisOutcome{Analysis: analysis, Cached: true}}
		srv := newTestServer(svc, &stubDirectory{})

		w := doJSON(t, srv, http.MethodPost, "/api/analyze", map[string]any{"repoUrl": "octocat/Hello-World"}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, true, resp["cached"])
		got := resp["analysis"].(map[string]any)
		assert.Equal(t, float64(77), got["overall_health_score"])
	})

	t.Run("should map the error taxonomy onto statuses", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name string
			err  error
			want int
		}{
			{"missing key", pipeline.ErrMissingAPIKey, http.StatusBadRequest},
			{"invalid URL", pipeline.ErrInvalidRepoURL, http.StatusBadRequest},
			{"not found", github.ErrNotFound, http.StatusNotFound},
			{"empty repository", github.ErrEmptyRepository, http.StatusConflict},
			{"upstream", &github.UpstreamError{Op: "tree", Status: 503}, http.StatusBadGateway},
			{"anything else", assert.AnError, http.StatusInternalServerError},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				srv := newTestServer(&stubService{err: tc.err}, &stubDirectory{})
				w := doJSON(t, srv, http.MethodPost, "/api/analyze", map[string]any{"repoUrl": "a/b"}, nil)

				assert.Equal(t, tc.want, w.Code)
				assert.NotEmpty(t, decode(t, w)["error"])
			})
		}
	})
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("should require both repository URL and message", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&stubService{}, &stubDirectory{})
		w := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]any{"repoUrl": "a/b"}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, false, resp["success"])
	})

	t.Run("should return the reply and thread the history", func(t *testing.T) {
		t.Parallel()

		svc := &stubService{reply: "It judges repos."}
		srv := newTestServer(svc, &stubDirectory{})

		w := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]any{
			"repoUrl": "octocat/Hello-World",
			"message": "What is this?",
			"history": []map[string]string{{"role": "user", "content": "hi"}},
		}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, "It judges repos.", resp["response"])

		require.Len(t, svc.lastRequest.History, 1)
		assert.Equal(t, "hi", svc.lastRequest.History[0].Content)
		assert.Equal(t, "What is this?", svc.lastRequest.Message)
	})

	t.Run("should mark failures with success false", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&stubService{err: assert.AnError}, &stubDirectory{})
		w := doJSON(t, srv, http.MethodPost, "/api/chat", map[string]any{
			"repoUrl": "a/b",
			"message": "hi",
		}, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode(t, w)
		assert.Equal(t, false, resp["success"])
		assert.NotEmpty(t, resp["error"])
	})
}

func TestReportEndpoint(t *testing.T) {
	t.Parallel()

	analysis := &models.AnalysisResult{OverallHealthScore: 66}
	analysis.Normalize()
	svc := &stubService{report: &pipeline.Report{Readme: "# doc", Analysis: analysis}}
	srv := newTestServer(svc, &stubDirectory{})

	w := doJSON(t, srv, http.MethodPost, "/api/report", map[string]any{"repoUrl": "a/b"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "# doc", resp["readme"])
	assert.NotNil(t, resp["analysis"])
}

func TestUserEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("should report unauthenticated without a token", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(&stubService{}, &stubDirectory{})
		w := doJSON(t, srv, http.MethodGet, "/api/user", nil, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, decode(t, w)["authenticated"])
	})

	t.Run("should return the user for a valid token", func(t *testing.T) {
		t.Parallel()

		dir := &stubDirectory{user: &models.User{Login: "octocat"}}
		srv := newTestServer(&stubService{}, dir)

		w := doJSON(t, srv, http.MethodGet, "/api/user", nil, map[string]string{"X-GitHub-Token": "t"})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, true, resp["authenticated"])
		assert.Equal(t, "octocat", resp["user"].(map[string]any)["login"])
	})

	t.Run("should degrade the repo listing to empty on failure", func(t *testing.T) {
		t.Parallel()

		dir := &stubDirectory{err: assert.AnError}
		srv := newTestServer(&stubService{}, dir)

		w := doJSON(t, srv, http.MethodGet, "/api/repos", nil, map[string]string{"X-GitHub-Token": "t"})

		assert.Equal(t, http.StatusOK, w.Code)
		repos := decode(t, w)["repos"].([]any)
		assert.Empty(t, repos)
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubService{}, &stubDirectory{})

	w := doJSON(t, srv, http.MethodGet, "/api/status", nil, nil)
	assert.Equal(t, false, decode(t, w)["geminiConfigured"])

	w = doJSON(t, srv, http.MethodGet, "/api/status", nil, map[string]string{"X-Gemini-Key": "gk"})
	assert.Equal(t, true, decode(t, w)["geminiConfigured"])
}
