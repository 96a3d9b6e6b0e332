// Package source has the commit sources: the local git repository and the GitHub REST API.
package source

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// ErrUnavailable is wrapped by every listing failure.
var ErrUnavailable = contract.ErrSourceUnavailable

// maxDiffChars caps the diff excerpt kept per commit, counted in characters.
const maxDiffChars = 4000

// truncationMarker is appended to a diff excerpt that was cut.
const truncationMarker = "..."

// New builds the commit source selected by the configuration.
func New(ctx context.Context, cfg *contract.Config, client contract.GitClient) (contract.CommitSource, error) {
	switch cfg.Source {
	case schema.LocalSource:
		return NewLocalSource(client, cfg.RepoPath), nil
	case schema.GitHubSource:
		return NewGitHubSource(ctx, GitHubOptions{
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Token:   cfg.GitHubToken,
			BaseURL: cfg.GitHubBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.Source)
	}
}

// truncateDiff keeps the first maxDiffChars characters of a diff and marks the cut.
func truncateDiff(diff string) string {
	if utf8.RuneCountInString(diff) <= maxDiffChars {
		return diff
	}
	count := 0
	for i := range diff {
		if count == maxDiffChars {
			return diff[:i] + truncationMarker
		}
		count++
	}
	return diff
}
