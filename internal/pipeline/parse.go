package pipeline

import (
	"errors"
	"strings"

	"github.com/repojudge/repojudge/internal/models"
)

// ErrInvalidRepoURL means the submitted repository URL could not be parsed
// into owner/repo. Terminal input error, never retried.
var ErrInvalidRepoURL = errors.New("invalid repository URL format")

// ParseRepoURL accepts https://github.com/<owner>/<repo>[.git] (extra path
// segments and query strings ignored) or bare <owner>/<repo>, and returns
// the repository reference. Both forms yield identical results for the
// same owner/repo pair.
func ParseRepoURL(repoURL string) (models.RepositoryRef, error) {
	repoURL = strings.TrimSpace(repoURL)

	var owner, repo string
	if idx := strings.Index(repoURL, "github.com/"); idx != -1 {
		rest := repoURL[idx+len("github.com/"):]
		parts := strings.Split(rest, "/")
		owner = parts[0]
		if len(parts) > 1 {
			repo = parts[1]
		}
	} else {
		parts := strings.Split(repoURL, "/")
		owner = parts[0]
		if len(parts) > 1 {
			repo = parts[1]
		}
	}

	if i := strings.IndexAny(repo, "?#"); i != -1 {
		repo = repo[:i]
	}
	repo = strings.TrimSuffix(repo, ".git")

	if owner == "" || repo == "" {
		return models.RepositoryRef{}, ErrInvalidRepoURL
	}
	return models.RepositoryRef{Owner: owner, Repo: repo}, nil
}
