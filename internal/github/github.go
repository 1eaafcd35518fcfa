package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/repojudge/repojudge/internal/models"
)

// Client is a thin wrapper around the GitHub REST API. It is purely
// functional given (owner, repo, token); the only side effects are the
// outbound calls themselves.
type Client struct {
	apiBase    string
	rawBase    string
	token      string
	httpClient *http.Client
	rawClient  *http.Client
}

// Options tunes the client. Zero values fall back to production defaults.
type Options struct {
	APIBaseURL   string
	RawBaseURL   string
	FetchTimeout time.Duration // metadata and tree lookups
	FileTimeout  time.Duration // raw content fetches
}

func NewClient(token string, opts Options) *Client {
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = "https://api.github.com"
	}
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = "https://raw.githubusercontent.com"
	}
	if opts.FetchTimeout == 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.FileTimeout == 0 {
		opts.FileTimeout = 10 * time.Second
	}
	return &Client{
		apiBase:    strings.TrimSuffix(opts.APIBaseURL, "/"),
		rawBase:    strings.TrimSuffix(opts.RawBaseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: opts.FetchTimeout},
		rawClient:  &http.Client{Timeout: opts.FileTimeout},
	}
}

type repoInfo struct {
	DefaultBranch string `json:"default_branch"`
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type treeResponse struct {
	Tree []treeEntry `json:"tree"`
}

// DefaultBranch resolves the repository's default branch from its metadata.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	var info repoInfo
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), "repo metadata", &info); err != nil {
		return "", err
	}
	if info.DefaultBranch == "" {
		return "", &UpstreamError{Op: "repo metadata", Err: fmt.Errorf("no default branch for %s/%s", owner, repo)}
	}
	return info.DefaultBranch, nil
}

// Tree returns every blob path of the branch's recursive tree, in API order.
func (c *Client) Tree(ctx context.Context, owner, repo, branch string) ([]string, error) {
	var tree treeResponse
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, url.PathEscape(branch))
	if err := c.getJSON(ctx, path, "tree", &tree); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(tree.Tree))
	for _, entry := range tree.Tree {
		if entry.Type == "blob" {
			paths = append(paths, entry.Path)
		}
	}
	return paths, nil
}

// RawContent fetches a file's raw content at HEAD, truncated to maxBytes.
func (c *Client) RawContent(ctx context.Context, owner, repo, path string, maxBytes int) (string, error) {
	rawURL := fmt.Sprintf("%s/%s/%s/HEAD/%s", c.rawBase, owner, repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.rawClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Op: "raw content", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Op: "raw content", Status: resp.StatusCode}
	}

	// Read one byte past the cap so truncation is detectable without
	// pulling the whole file.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return "", &UpstreamError{Op: "raw content", Err: err}
	}
	if len(body) > maxBytes {
		body = body[:maxBytes]
	}
	return string(body), nil
}

// User returns the authenticated user for the client's token.
func (c *Client) User(ctx context.Context) (*models.User, error) {
	var raw struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}
	if err := c.getJSON(ctx, "/user", "user", &raw); err != nil {
		return nil, err
	}
	return &models.User{
		Login:  raw.Login,
		Name:   raw.Name,
		Avatar: raw.AvatarURL,
		Email:  raw.Email,
	}, nil
}

// UserRepos lists the caller's most recently updated owned repositories.
func (c *Client) UserRepos(ctx context.Context) ([]models.UserRepo, error) {
	var raw []struct {
		Name        string `json:"name"`
		FullName    string `json:"full_name"`
		Private     bool   `json:"private"`
		HTMLURL     string `json:"html_url"`
		Description string `json:"description"`
		Language    string `json:"language"`
		UpdatedAt   string `json:"updated_at"`
	}
	if err := c.getJSON(ctx, "/user/repos?sort=updated&per_page=20&affiliation=owner", "user repos", &raw); err != nil {
		return nil, err
	}

	repos := make([]models.UserRepo, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, models.UserRepo{
			Name:        r.Name,
			FullName:    r.FullName,
			Private:     r.Private,
			URL:         r.HTMLURL,
			Description: r.Description,
			Language:    r.Language,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return repos, nil
}

func (c *Client) getJSON(ctx context.Context, path, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		// GitHub answers 409 on tree lookups against a repo with no commits.
		return ErrEmptyRepository
	default:
		return &UpstreamError{Op: op, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", op, err)
	}
	return nil
}
