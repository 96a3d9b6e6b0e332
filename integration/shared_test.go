//go:build integration || database

package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a leaderboard binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the leaderboard binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "leaderboard-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "leaderboard")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build leaderboard: %v\n%s", err, out))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// testCommit is one commit of a generated repository.
type testCommit struct {
	author  string
	message string
	daysAgo int
	lines   int
	files   int
}

// testWorkspace is a generated git repository plus a private home and snapshot location.
type testWorkspace struct {
	repo     string
	home     string
	snapshot string
	env      []string
}

// newTestWorkspace creates a git repository with the given commits, oldest first.
func newTestWorkspace(t *testing.T, commits []testCommit) *testWorkspace {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	root := t.TempDir()
	ws := &testWorkspace{
		repo:     filepath.Join(root, "repo"),
		home:     filepath.Join(root, "home"),
		snapshot: filepath.Join(root, "leaderboard-data.json"),
	}
	require.NoError(t, os.MkdirAll(ws.repo, 0o755))
	require.NoError(t, os.MkdirAll(ws.home, 0o755))
	ws.env = append(os.Environ(),
		"HOME="+ws.home,
		"LEADERBOARD_SNAPSHOT_PATH="+ws.snapshot,
		"LEADERBOARD_MANUAL_FILE="+filepath.Join(root, "manual-contributions.json"),
		"LEADERBOARD_CACHE_DB_CONNECT="+filepath.Join(root, "cache.db"),
		"LEADERBOARD_RUNS_DB_CONNECT="+filepath.Join(root, "runs.db"),
	)

	git := func(env []string, args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = ws.repo
		cmd.Env = append(os.Environ(), env...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	git(nil, "init", "-q")

	now := time.Now().UTC()
	for i, c := range commits {
		for f := range c.files {
			path := filepath.Join(ws.repo, fmt.Sprintf("file_%d_%d.txt", i, f))
			var content []byte
			for l := range max(1, c.lines/max(1, c.files)) {
				content = fmt.Appendf(content, "line %d of commit %d\n", l, i)
			}
			require.NoError(t, os.WriteFile(path, content, 0o644))
		}
		git(nil, "add", "-A")

		when := now.AddDate(0, 0, -c.daysAgo).Format(time.RFC3339)
		email := fmt.Sprintf("%s@example.com", c.author)
		git([]string{
			"GIT_AUTHOR_NAME=" + c.author, "GIT_AUTHOR_EMAIL=" + email, "GIT_AUTHOR_DATE=" + when,
			"GIT_COMMITTER_NAME=" + c.author, "GIT_COMMITTER_EMAIL=" + email, "GIT_COMMITTER_DATE=" + when,
		}, "commit", "-q", "-m", c.message)
	}
	return ws
}

// run executes the leaderboard binary inside the workspace repository.
func (ws *testWorkspace) run(t *testing.T, extraEnv []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = ws.repo
	cmd.Env = append(append([]string{}, ws.env...), extraEnv...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}

// loadSnapshot reads the workspace snapshot file.
func (ws *testWorkspace) loadSnapshot(t *testing.T) *schema.Snapshot {
	t.Helper()
	data, err := os.ReadFile(ws.snapshot)
	require.NoError(t, err)
	var snap schema.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	return &snap
}

// sampleCommits spans several weeks with two authors.
func sampleCommits() []testCommit {
	return []testCommit{
		{author: "ada", message: "feat: add cache engine", daysAgo: 40, lines: 120, files: 6},
		{author: "bob", message: "fix(api): handle empty keys", daysAgo: 33, lines: 30, files: 2},
		{author: "ada", message: "docs: update readme", daysAgo: 20, lines: 5, files: 1},
		{author: "bob", message: "refactor!: split storage layer", daysAgo: 12, lines: 80, files: 5},
		{author: "carol", message: "test: cover eviction", daysAgo: 3, lines: 25, files: 2},
	}
}
