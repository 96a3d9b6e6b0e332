package source

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commitsPage1 = `[
  {"sha": "aaaa1111", "commit": {"author": {"name": "Ada", "email": "ada@example.com", "date": "2025-03-10T10:00:00Z"}, "message": "feat: paging\n"}, "parents": [{"sha": "p0"}]},
  {"sha": "mmmm0000", "commit": {"author": {"name": "Ada", "email": "ada@example.com", "date": "2025-03-10T11:00:00Z"}, "message": "Merge branch"}, "parents": [{"sha": "p1"}, {"sha": "p2"}]}
]`

const commitsPage2 = `[
  {"sha": "bbbb2222", "commit": {"author": {"name": "", "email": "bot@example.com", "date": "2025-03-11T10:00:00Z"}, "message": "chore: deps"}, "author": {"login": "renovate"}, "parents": [{"sha": "aaaa1111"}]}
]`

const commitDetail = `{
  "sha": "aaaa1111",
  "files": [
    {"filename": "core/score.go", "additions": 90, "deletions": 10, "patch": "@@ -1 +1 @@\n+scored"},
    {"filename": "README.md", "additions": 5, "deletions": 0}
  ]
}`

func newTestGitHubSource(t *testing.T, handler http.Handler) *GitHubSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	src, err := NewGitHubSource(t.Context(), GitHubOptions{
		Owner:   "octo",
		Repo:    "lmcache",
		Token:   "test-token",
		BaseURL: server.URL + "/",
	})
	require.NoError(t, err)
	return src
}

func TestGitHubSourceListCommits(t *testing.T) {
	var sinceParam, authHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/octo/lmcache/commits", func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_, _ = fmt.Fprint(w, commitsPage2)
			return
		}
		sinceParam = r.URL.Query().Get("since")
		next := fmt.Sprintf("<http://%s%s?page=2&per_page=100>; rel=\"next\"", r.Host, r.URL.Path)
		w.Header().Set("Link", next)
		_, _ = fmt.Fprint(w, commitsPage1)
	})
	src := newTestGitHubSource(t, mux)

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	commits, err := src.ListCommits(t.Context(), since)

	require.NoError(t, err)
	require.Len(t, commits, 2, "merge commits are skipped")
	assert.Equal(t, "aaaa1111", commits[0].Hash)
	assert.Equal(t, "feat: paging", commits[0].Message)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), commits[0].Timestamp)
	assert.Equal(t, "renovate", commits[1].AuthorName, "falls back to the login")
	assert.Equal(t, "2025-03-01T00:00:00Z", sinceParam)
	assert.Equal(t, "Bearer test-token", authHeader)
	assert.Equal(t, "octo/lmcache", src.Repository())
	assert.Equal(t, "github", src.Name())
}

func TestGitHubSourceListCommitsUnavailable(t *testing.T) {
	src := newTestGitHubSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))

	_, err := src.ListCommits(t.Context(), time.Now())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGitHubSourceGetStats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/octo/lmcache/commits/aaaa1111", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, commitDetail)
	})
	src := newTestGitHubSource(t, mux)

	stats, err := src.GetStats(t.Context(), "aaaa1111")

	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesChanged)
	assert.Equal(t, 95, stats.Insertions)
	assert.Equal(t, 10, stats.Deletions)
	assert.Equal(t, []string{"core/score.go", "README.md"}, stats.FilesList)
	assert.True(t, strings.HasPrefix(stats.DiffExcerpt, "@@ -1 +1 @@"))
}

func TestGitHubSourceRetriesAfterRateLimit(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/octo/lmcache/commits/aaaa1111", func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, `{"message": "slow down"}`, http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, commitDetail)
	})
	src := newTestGitHubSource(t, mux)

	stats, err := src.GetStats(t.Context(), "aaaa1111")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesChanged)
	assert.Equal(t, 2, calls)
}

func TestTruncateDiff(t *testing.T) {
	exact := strings.Repeat("x", maxDiffChars)
	tests := []struct {
		name     string
		diff     string
		expected string
	}{
		{"short", "short", "short"},
		{"exactly at limit", exact, exact},
		{"ascii over limit", strings.Repeat("x", maxDiffChars+500), exact + truncationMarker},
		{"multibyte at cut", strings.Repeat("x", maxDiffChars-1) + "缓存层", exact[:maxDiffChars-1] + "缓" + truncationMarker},
		{"multibyte within limit", strings.Repeat("缓", maxDiffChars), strings.Repeat("缓", maxDiffChars)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateDiff(tt.diff)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
