package github

import (
	"errors"
	"fmt"
)

// ErrNotFound means the repository or its default branch could not be
// resolved. Distinct from generic failures so the caller can tell the user
// to check the URL or log in for private repos.
var ErrNotFound = errors.New("repository not found")

// ErrEmptyRepository means the repository exists but has no commits, so
// there is no tree to read.
var ErrEmptyRepository = errors.New("repository is empty (no commits)")

// UpstreamError covers any other transport or HTTP failure talking to
// GitHub.
type UpstreamError struct {
	Status int
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("github %s: status %d", e.Op, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
