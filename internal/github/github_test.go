package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub serves both the REST API and raw content from one listener.
type fakeGitHub struct {
	defaultBranch string
	tree          []treeEntry
	files         map[string]string // path -> content; missing paths 404
	repoStatus    int               // non-zero overrides /repos/{o}/{r}
	treeStatus    int               // non-zero overrides the tree lookup

	rawHits atomic.Int64
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/octocat/Hello-World", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		if f.repoStatus != 0 {
			w.WriteHeader(f.repoStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"default_branch": f.defaultBranch})
	})

	mux.HandleFunc("/repos/octocat/Hello-World/git/trees/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		if f.treeStatus != 0 {
			w.WriteHeader(f.treeStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(treeResponse{Tree: f.tree})
	})

	// Raw content: /octocat/Hello-World/HEAD/<path>
	mux.HandleFunc("/octocat/Hello-World/HEAD/", func(w http.ResponseWriter, r *http.Request) {
		f.rawHits.Add(1)
		path := strings.TrimPrefix(r.URL.Path, "/octocat/Hello-World/HEAD/")
		content, ok := f.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, content)
	})

	return mux
}

func newTestClient(t *testing.T, f *fakeGitHub) (*Client, *httptest.Server) {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient("test-token", Options{
		APIBaseURL: srv.URL,
		RawBaseURL: srv.URL,
	}), srv
}

func TestClient_FetchContext(t *testing.T) {
	t.Parallel()

	t.Run("should assemble a bounded bundle in manifest order", func(t *testing.T) {
		t.Parallel()

		fake := &fakeGitHub{
			defaultBranch: "main",
			tree: []treeEntry{
				{Path: "logo.png", Type: "blob"},
				{Path: "package.json", Type: "blob"},
				{Path: "src", Type: "tree"},
				{Path: "src/index.js", Type: "blob"},
				{Path: "README.md", Type: "blob"},
			},
			files: map[string]string{
				"package.json": `{"name":"hello"}`,
				"src/index.js": "console.log('hi')",
				"README.md":    "# Hello",
			},
		}
		client, _ := newTestClient(t, fake)

		bundle, err := client.FetchContext(context.Background(), "octocat", "Hello-World", DefaultSelection)
		require.NoError(t, err)

		// Tree directories and excluded extensions never reach the manifest.
		assert.Equal(t, []string{"package.json", "src/index.js", "README.md"}, bundle.FileStructure)

		wantOrder := []string{
			"--- FILE: package.json ---",
			"--- FILE: src/index.js ---",
			"--- FILE: README.md ---",
		}
		last := -1
		for _, marker := range wantOrder {
			idx := strings.Index(bundle.FileContents, marker)
			require.NotEqual(t, -1, idx, "missing %s", marker)
			assert.Greater(t, idx, last, "%s out of order", marker)
			last = idx
		}
		assert.Contains(t, bundle.FileContents, `{"name":"hello"}`)
	})

	t.Run("should truncate each file to the byte cap", func(t *testing.T) {
		t.Parallel()

		fake := &fakeGitHub{
			defaultBranch: "main",
			tree:          []treeEntry{{Path: "main.go", Type: "blob"}},
			files:         map[string]string{"main.go": strings.Repeat("x", 10000)},
		}
		client, _ := newTestClient(t, fake)

		sel := Selection{MaxFiles: 5, MaxBytes: 5000}
		bundle, err := client.FetchContext(context.Background(), "octocat", "Hello-World", sel)
		require.NoError(t, err)

		assert.Equal(t, 5000, strings.Count(bundle.FileContents, "x"))
	})

	t.Run("should skip files that fail to fetch and keep the rest", func(t *testing.T) {
		t.Parallel()

		fake := &fakeGitHub{
			defaultBranch: "main",
			tree: []treeEntry{
				{Path: "main.go", Type: "blob"},
				{Path: "missing.go", Type: "blob"},
			},
			files: map[string]string{"main.go": "package main"},
		}
		client, _ := newTestClient(t, fake)

		bundle, err := client.FetchContext(context.Background(), "octocat", "Hello-World", DefaultSelection)
		require.NoError(t, err)

		assert.Contains(t, bundle.FileContents, "--- FILE: main.go ---")
		assert.NotContains(t, bundle.FileContents, "missing.go")
	})

	t.Run("should report not found distinctly", func(t *testing.T) {
		t.Parallel()

		fake := &fakeGitHub{repoStatus: http.StatusNotFound}
		client, _ := newTestClient(t, fake)

		_, err := client.FetchContext(context.Background(), "octocat", "Hello-World", DefaultSelection)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, fake.rawHits.Load())
	})

	t.Run("should report an empty repository distinctly", func(t *testing.T) {
		t.Parallel()

		fake := &fakeGitHub{defaultBranch: "main", treeStatus: http.StatusConflict}
		client, _ := newTestClient(t, fake)

		_, err := client.FetchContext(context.Background(), "octocat", "Hello-World", DefaultSelection)
		assert.ErrorIs(t, err, ErrEmptyRepository)
	})

	t.Run("should wrap other statuses as upstream errors", func(t *testing.T) {
		t.Parallel()

		fake := &fakeGitHub{repoStatus: http.StatusInternalServerError}
		client, _ := newTestClient(t, fake)

		_, err := client.FetchContext(context.Background(), "octocat", "Hello-World", DefaultSelection)

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusInternalServerError, upstream.Status)
	})
}

func TestClient_UserEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("should decode the authenticated user", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{
				"login":      "octocat",
				"name":       "The Octocat",
				"avatar_url": "https://example.com/a.png",
				"email":      "octo@example.com",
			})
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		client := NewClient("tok", Options{APIBaseURL: srv.URL, RawBaseURL: srv.URL})
		user, err := client.User(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "octocat", user.Login)
		assert.Equal(t, "The Octocat", user.Name)
	})

	t.Run("should list owned repositories sorted by update time", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "updated", r.URL.Query().Get("sort"))
			assert.Equal(t, "20", r.URL.Query().Get("per_page"))
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"name": "Hello-World", "full_name": "octocat/Hello-World", "html_url": "https://github.com/octocat/Hello-World"},
			})
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		client := NewClient("tok", Options{APIBaseURL: srv.URL, RawBaseURL: srv.URL})
		repos, err := client.UserRepos(context.Background())
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Equal(t, "octocat/Hello-World", repos[0].FullName)
	})
}
