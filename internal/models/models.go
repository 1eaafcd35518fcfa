package models

import "strings"

// RepositoryRef identifies a GitHub repository. Both fields are non-empty
// for any value produced by a successful URL parse.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

// ContextBundle is the bounded slice of a repository handed to the LLM in
// place of the full tree: the filtered path manifest plus the concatenated,
// truncated contents of the selected important files.
type ContextBundle struct {
	FileStructure []string `json:"file_structure"`
	FileContents  string   `json:"file_contents"`
}

// ManifestExcerpt returns the first n manifest paths joined by newlines,
// for inlining into prompts.
func (c *ContextBundle) ManifestExcerpt(n int) string {
	paths := c.FileStructure
	if len(paths) > n {
		paths = paths[:n]
	}
	return strings.Join(paths, "\n")
}

// ChatTurn is one message in a chat session. Role is "user" or "model";
// history round-trips through the client on every request.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// User is the authenticated GitHub user, as relayed to the dashboard.
type User struct {
	Login  string `json:"login"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Email  string `json:"email"`
}

// UserRepo is one entry of the caller's repository listing.
type UserRepo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Private     bool   `json:"private"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	UpdatedAt   string `json:"updated_at"`
}
