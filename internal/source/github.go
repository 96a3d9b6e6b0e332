package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/google/go-github/v61/github"
	"golang.org/x/oauth2"
)

const (
	userAgent        = "lmcache-leaderboard"
	maxRateLimitWait = 2 * time.Minute
)

// GitHubOptions selects the repository and credentials of a GitHubSource.
type GitHubOptions struct {
	Owner   string
	Repo    string
	Token   string
	BaseURL string // Enterprise API endpoint, empty for github.com
}

// GitHubSource reads commits through the GitHub REST API.
type GitHubSource struct {
	client *github.Client
	owner  string
	repo   string
}

var _ contract.CommitSource = &GitHubSource{} // Compile-time check

// NewGitHubSource creates an authenticated client if a token is provided; otherwise unauthenticated.
func NewGitHubSource(ctx context.Context, opts GitHubOptions) (*GitHubSource, error) {
	var httpClient *http.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(httpClient)
	client.UserAgent = userAgent
	if opts.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", opts.BaseURL, err)
		}
	}
	return &GitHubSource{client: client, owner: opts.Owner, repo: opts.Repo}, nil
}

// Name implements the CommitSource interface.
func (s *GitHubSource) Name() string { return string(schema.GitHubSource) }

// Repository implements the CommitSource interface.
func (s *GitHubSource) Repository() string { return s.owner + "/" + s.repo }

// ListCommits pages through the commits since the given time, skipping merges.
func (s *GitHubSource) ListCommits(ctx context.Context, since time.Time) ([]schema.Commit, error) {
	opt := &github.CommitsListOptions{Since: since, ListOptions: github.ListOptions{PerPage: 100}}
	var commits []schema.Commit
	for {
		page, resp, err := s.client.Repositories.ListCommits(ctx, s.owner, s.repo, opt)
		if err != nil {
			if resp != nil && waitIfRateLimited(ctx, resp) {
				continue // retry same page after waiting
			}
			return nil, fmt.Errorf("%w: listing commits of %s: %v", ErrUnavailable, s.Repository(), err)
		}
		for _, rc := range page {
			if len(rc.Parents) > 1 {
				continue
			}
			commits = append(commits, commitFromGitHub(rc))
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return commits, nil
}

// GetStats sums the per-file additions and deletions of one commit and joins its patches.
func (s *GitHubSource) GetStats(ctx context.Context, hash string) (schema.CommitStats, error) {
	for {
		rc, resp, err := s.client.Repositories.GetCommit(ctx, s.owner, s.repo, hash, nil)
		if err != nil {
			if resp != nil && waitIfRateLimited(ctx, resp) {
				continue
			}
			return schema.CommitStats{}, fmt.Errorf("getting commit %s: %w", hash, err)
		}
		return statsFromGitHub(rc), nil
	}
}

func commitFromGitHub(rc *github.RepositoryCommit) schema.Commit {
	author := rc.GetCommit().GetAuthor()
	name := author.GetName()
	if name == "" {
		name = rc.GetAuthor().GetLogin()
	}
	return schema.Commit{
		Hash:        rc.GetSHA(),
		AuthorName:  name,
		AuthorEmail: author.GetEmail(),
		Timestamp:   author.GetDate().Time.UTC(),
		Message:     strings.TrimSpace(rc.GetCommit().GetMessage()),
	}
}

func statsFromGitHub(rc *github.RepositoryCommit) schema.CommitStats {
	stats := schema.CommitStats{FilesList: []string{}}
	patches := make([]string, 0, len(rc.Files))
	for _, f := range rc.Files {
		stats.FilesChanged++
		stats.FilesList = append(stats.FilesList, f.GetFilename())
		stats.Insertions += f.GetAdditions()
		stats.Deletions += f.GetDeletions()
		patches = append(patches, f.GetPatch())
	}
	stats.DiffExcerpt = truncateDiff(strings.Join(patches, "\n"))
	return stats
}

// waitIfRateLimited sleeps for the duration indicated by Retry-After or Rate.Reset.
// Returns true if it waited and the caller should retry; false otherwise.
func waitIfRateLimited(ctx context.Context, resp *github.Response) bool {
	if !isRateLimitResponse(resp) {
		return false
	}
	var wait time.Duration
	if v := resp.Response.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			wait = time.Duration(secs) * time.Second
		}
	}
	if wait == 0 {
		if resp.Rate.Reset.Time.IsZero() {
			return false
		}
		wait = time.Until(resp.Rate.Reset.Time)
		if wait <= 0 {
			wait = 5 * time.Second
		}
	}
	wait = min(wait, maxRateLimitWait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// isRateLimitResponse determines whether the response indicates hitting rate limits.
func isRateLimitResponse(resp *github.Response) bool {
	if resp == nil || resp.Response == nil {
		return false
	}
	switch resp.Response.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		// Only treat as rate limit if remaining is 0
		return resp.Response.Header.Get("X-RateLimit-Remaining") == "0"
	default:
		return false
	}
}
