package manual

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/manual-contributions.json
var manualData []byte

func mustDate(t *testing.T, s string) schema.Date {
	t.Helper()
	d, err := schema.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestDecodeBothShapes(t *testing.T) {
	doc, err := Decode(manualData)
	require.NoError(t, err)
	require.Len(t, doc.Contributors, 2)

	ada := doc.Contributors["Ada"]
	assert.Equal(t, "ada@example.com", ada.Email)
	require.Len(t, ada.Contributions, 2)
	assert.True(t, ada.Contributions[0].Dated())
	assert.Equal(t, "2025-03-12", ada.Contributions[0].EndDate.String())
	assert.False(t, ada.Contributions[1].Dated())
	assert.Equal(t, 25, ada.TotalScore())

	bob := doc.Contributors["Bob"]
	require.Len(t, bob.Contributions, 1, "legacy entry becomes one undated contribution")
	assert.Equal(t, 15, bob.Contributions[0].Score)
	assert.Equal(t, "docs review", bob.Contributions[0].Notes)
	assert.False(t, bob.Contributions[0].Dated())
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode([]byte(`{"contributors": {"Ada": {"contributions": [{"score": 1, "start_date": "03/10/2025"}]}}}`))
	assert.Error(t, err)

	doc, err := Decode([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, doc.Contributors)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual-contributions.json")
	store := NewFileStore(path)
	assert.Equal(t, path, store.Location())

	_, err := store.Load(t.Context())
	require.ErrorIs(t, err, ErrNotFound)

	empty, err := store.LoadOrEmpty(t.Context())
	require.NoError(t, err)
	assert.Empty(t, empty.Contributors)

	doc, err := Decode(manualData)
	require.NoError(t, err)
	require.NoError(t, store.Save(t.Context(), doc))

	loaded, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)

	// Legacy entries are written back in the list shape.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"start_date": null`)
	assert.Equal(t, 2, strings.Count(string(raw), `"contributions"`))
}

func TestAddContributor(t *testing.T) {
	doc := &schema.ManualContributions{}
	require.NoError(t, AddContributor(doc, " Ada ", "ada@example.com"))
	assert.Contains(t, doc.Contributors, "Ada")

	err := AddContributor(doc, "ada", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.Error(t, AddContributor(doc, "  ", ""))
}

func TestAddContribution(t *testing.T) {
	doc := &schema.ManualContributions{}
	require.NoError(t, AddContribution(doc, "Ada", schema.ManualContribution{Score: 10, Notes: "talk"}))
	require.NoError(t, AddContribution(doc, "ADA", schema.ManualContribution{
		Score:     5,
		Notes:     "blog",
		StartDate: mustDate(t, "2025-03-10"),
		EndDate:   mustDate(t, "2025-03-11"),
	}))
	require.Len(t, doc.Contributors, 1)
	assert.Len(t, doc.Contributors["Ada"].Contributions, 2)

	tests := []struct {
		name string
		c    schema.ManualContribution
	}{
		{"end without start", schema.ManualContribution{EndDate: mustDate(t, "2025-03-11")}},
		{"end before start", schema.ManualContribution{StartDate: mustDate(t, "2025-03-11"), EndDate: mustDate(t, "2025-03-10")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, AddContribution(doc, "Ada", tt.c))
		})
	}
	assert.Len(t, doc.Contributors["Ada"].Contributions, 2)
}

func TestRemove(t *testing.T) {
	doc, err := Decode(manualData)
	require.NoError(t, err)

	require.NoError(t, RemoveContribution(doc, "ada", 0))
	ada := doc.Contributors["Ada"]
	require.Len(t, ada.Contributions, 1)
	assert.Equal(t, "triage", ada.Contributions[0].Notes)

	assert.Error(t, RemoveContribution(doc, "Ada", 1))
	assert.Error(t, RemoveContribution(doc, "Ada", -1))
	assert.Error(t, RemoveContribution(doc, "Eve", 0))

	require.NoError(t, RemoveContributor(doc, "BOB"))
	assert.Equal(t, []string{"Ada"}, SortedNames(doc))
	assert.Error(t, RemoveContributor(doc, "Bob"))
}

func TestExportBackup(t *testing.T) {
	doc, err := Decode(manualData)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := ExportBackup(doc, dir, time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manual-contributions-backup-2025-03-14.json"), path)

	restored, err := NewFileStore(path).Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, doc, restored)
}
