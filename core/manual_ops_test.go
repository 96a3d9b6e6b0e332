package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/manual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualEditContribution(t *testing.T) {
	tests := []struct {
		name    string
		edit    ManualEdit
		present bool
		wantErr bool
	}{
		{"contributor only", ManualEdit{Name: "Ada", Email: "ada@example.com"}, false, false},
		{"score only", ManualEdit{Name: "Ada", Score: 5}, true, false},
		{"notes only", ManualEdit{Name: "Ada", Notes: "  reviewed docs "}, true, false},
		{"dated", ManualEdit{Name: "Ada", Score: 5, StartDate: "2025-03-10", EndDate: "2025-03-16"}, true, false},
		{"bad start", ManualEdit{Name: "Ada", StartDate: "03/10/2025"}, false, true},
		{"bad end", ManualEdit{Name: "Ada", StartDate: "2025-03-10", EndDate: "soon"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, present, err := tt.edit.contribution()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.edit.Score, c.Score)
		})
	}
}

func TestManualOps(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &contract.Config{ManualFile: filepath.Join(dir, "manual-contributions.json")}
	store := manual.NewFileStore(cfg.ManualFile)

	// Removing from a missing file fails
	assert.ErrorIs(t, ExecuteManualRemove(ctx, cfg, ManualEdit{Name: "Ada", Index: -1}), contract.ErrManualNotFound)

	require.NoError(t, ExecuteManualAdd(ctx, cfg, ManualEdit{Name: "Ada", Email: "ada@example.com"}))
	require.NoError(t, ExecuteManualAdd(ctx, cfg, ManualEdit{Name: "ada", Score: 10, Notes: "release notes", StartDate: "2025-03-10"}))
	require.NoError(t, ExecuteManualAdd(ctx, cfg, ManualEdit{Name: "Bob", Score: 4}))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Contributors, 2)
	ada := doc.Contributors["Ada"]
	assert.Equal(t, "ada@example.com", ada.Email)
	require.Len(t, ada.Contributions, 1)
	assert.Equal(t, "release notes", ada.Contributions[0].Notes)
	assert.Equal(t, "2025-03-10", ada.Contributions[0].StartDate.String())

	assert.Error(t, ExecuteManualAdd(ctx, cfg, ManualEdit{Name: "Ada", Score: 1, EndDate: "2025-03-01"}))

	require.NoError(t, ExecuteManualRemove(ctx, cfg, ManualEdit{Name: "Ada", Index: 0}))
	require.NoError(t, ExecuteManualRemove(ctx, cfg, ManualEdit{Name: "Bob", Index: -1}))
	assert.Error(t, ExecuteManualRemove(ctx, cfg, ManualEdit{Name: "Carol", Index: -1}))

	doc, err = store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, doc.Contributors, "Ada")
	assert.Empty(t, doc.Contributors["Ada"].Contributions)
	assert.NotContains(t, doc.Contributors, "Bob")

	backups := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backups, 0o755))
	require.NoError(t, ExecuteManualBackup(ctx, cfg, backups))
	entries, err := os.ReadDir(backups)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExecuteManualList(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &contract.Config{
		ManualFile: filepath.Join(dir, "manual-contributions.json"),
		OutputFile: filepath.Join(dir, "manual.txt"),
	}
	require.NoError(t, ExecuteManualAdd(ctx, cfg, ManualEdit{Name: "Ada", Score: 7, Notes: "mentoring"}))
	require.NoError(t, ExecuteManualList(ctx, cfg))

	out, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "mentoring")
	assert.Contains(t, string(out), "1 contributors, 7 manual points")
}
