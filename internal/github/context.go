package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/repojudge/repojudge/internal/models"
)

// Binary and non-informative files add no signal to an LLM context and
// waste the byte budget.
var excludedExt = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|svg|ico|lock|pdf)$`)

// Manifest and entry-point files carry the most "what does this project do"
// signal per byte.
var importantName = regexp.MustCompile(`(?i)(package\.json|requirements\.txt|main\.|index\.|app\.|server\.|Gemfile|cargo\.toml)`)

// Selection bounds the context regardless of repository size.
type Selection struct {
	MaxFiles int // important files fetched in full (truncated)
	MaxBytes int // per-file byte cap
}

// DefaultSelection mirrors the observed budget: 5 files, 5000 bytes each.
var DefaultSelection = Selection{MaxFiles: 5, MaxBytes: 5000}

// FilterManifest drops excluded extensions from a raw tree listing,
// preserving order.
func FilterManifest(paths []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if !excludedExt.MatchString(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

// SelectImportant picks up to sel.MaxFiles paths from the manifest, in
// manifest order. A path qualifies by matching an entry-point pattern or by
// sitting at depth < 3 from the repository root.
func SelectImportant(manifest []string, sel Selection) []string {
	var picked []string
	for _, p := range manifest {
		if importantName.MatchString(p) || strings.Count(p, "/") < 2 {
			picked = append(picked, p)
			if len(picked) == sel.MaxFiles {
				break
			}
		}
	}
	return picked
}

// FetchContext turns (owner, repo) into a bounded LLM-ready bundle:
// resolve the default branch, list the tree, filter, select important
// files, and fetch their truncated contents. A per-file fetch failure skips
// that file — partial context is acceptable, total failure is not.
func (c *Client) FetchContext(ctx context.Context, owner, repo string, sel Selection) (*models.ContextBundle, error) {
	branch, err := c.DefaultBranch(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	tree, err := c.Tree(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}

	manifest := FilterManifest(tree)
	important := SelectImportant(manifest, sel)

	contents := make([]string, len(important))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(5)

	for i, path := range important {
		g.Go(func() error {
			text, fetchErr := c.RawContent(gCtx, owner, repo, path, sel.MaxBytes)
			if fetchErr != nil {
				logger.Warnf("Skipping %s/%s:%s: %v", owner, repo, path, fetchErr)
				return nil
			}
			contents[i] = fmt.Sprintf("\n\n--- FILE: %s ---\n%s", path, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, part := range contents {
		sb.WriteString(part)
	}

	return &models.ContextBundle{
		FileStructure: manifest,
		FileContents:  sb.String(),
	}, nil
}
