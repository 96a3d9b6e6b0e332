package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Separators used by the commit log format. They never appear in git metadata.
const (
	RecordSeparator = "\x1e"
	FieldSeparator  = "\x1f"
)

// CommitLogFormat is the pretty format consumed by the local commit source:
// hash, author name, author email, author unix time, raw body.
const CommitLogFormat = "--pretty=format:%x1e%H%x1f%an%x1f%ae%x1f%at%x1f%B"

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetCommitLog implements the GitClient interface.
func (c *LocalGitClient) GetCommitLog(ctx context.Context, repoPath string, since time.Time) ([]byte, error) {
	args := []string{
		"log",
		"--no-merges",
		CommitLogFormat,
	}
	if !since.IsZero() {
		args = append(args, "--since="+since.UTC().Format(DateTimeFormat))
	}
	return c.Run(ctx, repoPath, args...)
}

// GetCommitNumstat implements the GitClient interface.
// The output lists numstat lines first, followed by the patch.
func (c *LocalGitClient) GetCommitNumstat(ctx context.Context, repoPath string, hash string) ([]byte, error) {
	return c.Run(ctx, repoPath, "show", "--format=", "--numstat", "--patch", "--no-color", hash)
}
