package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// LocalSource reads commits from a git repository on disk.
type LocalSource struct {
	client   contract.GitClient
	repoPath string
}

var _ contract.CommitSource = &LocalSource{} // Compile-time check

// NewLocalSource creates a source over the repository at repoPath.
func NewLocalSource(client contract.GitClient, repoPath string) *LocalSource {
	return &LocalSource{client: client, repoPath: repoPath}
}

// Name implements the CommitSource interface.
func (s *LocalSource) Name() string { return string(schema.LocalSource) }

// Repository implements the CommitSource interface.
func (s *LocalSource) Repository() string { return filepath.Base(s.repoPath) }

// ListCommits implements the CommitSource interface.
func (s *LocalSource) ListCommits(ctx context.Context, since time.Time) ([]schema.Commit, error) {
	out, err := s.client.GetCommitLog(ctx, s.repoPath, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parseCommitLog(out), nil
}

// GetStats implements the CommitSource interface.
func (s *LocalSource) GetStats(ctx context.Context, hash string) (schema.CommitStats, error) {
	out, err := s.client.GetCommitNumstat(ctx, s.repoPath, hash)
	if err != nil {
		return schema.CommitStats{}, err
	}
	return parseNumstat(out), nil
}

// parseCommitLog splits the output of contract.CommitLogFormat into commits.
// Malformed records are skipped.
func parseCommitLog(out []byte) []schema.Commit {
	var commits []schema.Commit
	for record := range strings.SplitSeq(string(out), contract.RecordSeparator) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		if c, ok := parseCommitRecord(record); ok {
			commits = append(commits, c)
		}
	}
	return commits
}

// parseCommitRecord parses hash, author, email, unix time and body.
func parseCommitRecord(record string) (schema.Commit, bool) {
	parts := strings.SplitN(record, contract.FieldSeparator, 5)
	if len(parts) != 5 {
		return schema.Commit{}, false
	}
	hash := strings.TrimSpace(parts[0])
	unix, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64)
	if hash == "" || err != nil {
		return schema.Commit{}, false
	}
	return schema.Commit{
		Hash:        hash,
		AuthorName:  strings.TrimSpace(parts[1]),
		AuthorEmail: strings.TrimSpace(parts[2]),
		Timestamp:   time.Unix(unix, 0).UTC(),
		Message:     strings.TrimSpace(parts[4]),
	}, true
}

// parseNumstat reads the numstat lines and the patch that follows them.
func parseNumstat(out []byte) schema.CommitStats {
	text := string(out)
	numstat, patch := text, ""
	if i := strings.Index(text, "diff --git"); i >= 0 {
		numstat, patch = text[:i], text[i:]
	}

	stats := schema.CommitStats{FilesList: []string{}}
	for line := range strings.SplitSeq(numstat, "\n") {
		parts := strings.SplitN(strings.TrimRight(line, "\r"), "\t", 3)
		if len(parts) < 3 {
			continue
		}
		stats.Insertions += parseChurnValue(parts[0])
		stats.Deletions += parseChurnValue(parts[1])
		stats.FilesChanged++
		_, newPath := parseRenamePath(parts[2])
		stats.FilesList = append(stats.FilesList, newPath)
	}
	stats.DiffExcerpt = truncateDiff(patch)
	return stats
}

// parseChurnValue converts a numstat count to int. Binary files report "-".
func parseChurnValue(s string) int {
	if val, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && val >= 0 {
		return val
	}
	return 0
}

// parseRenamePath extracts old and new paths from a numstat path, which may be
// "old => new" or "prefix{old => new}suffix". Plain paths return themselves twice.
func parseRenamePath(path string) (string, string) {
	if !strings.Contains(path, " => ") {
		return path, path
	}

	braceStart := strings.Index(path, "{")
	braceEnd := strings.Index(path, "}")
	if braceStart == -1 || braceEnd == -1 || braceStart >= braceEnd {
		parts := strings.SplitN(path, " => ", 2)
		return parts[0], parts[1]
	}

	prefix := path[:braceStart]
	renamePart := path[braceStart+1 : braceEnd]
	suffix := path[braceEnd+1:]
	renameParts := strings.SplitN(renamePart, " => ", 2)
	if len(renameParts) != 2 {
		return path, path
	}
	clean := func(p string) string { return strings.ReplaceAll(p, "//", "/") }
	return clean(prefix + renameParts[0] + suffix), clean(prefix + renameParts[1] + suffix)
}
