// Package manual manages the canonical manual contributions document.
package manual

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/snapshot"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// ErrNotFound means the manual contributions file does not exist.
var ErrNotFound = contract.ErrManualNotFound

// backupPrefix names exported backups, e.g. manual-contributions-backup-2025-03-14.json.
const backupPrefix = "manual-contributions-backup-"

// FileStore reads and writes the manual contributions JSON file.
type FileStore struct {
	path string
}

var _ contract.ManualStore = &FileStore{} // Compile-time check

// NewFileStore creates a store for the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Location implements the ManualStore interface.
func (s *FileStore) Location() string { return s.path }

// Load implements the ManualStore interface. Legacy contributor entries are normalized.
func (s *FileStore) Load(_ context.Context) (*schema.ManualContributions, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save implements the ManualStore interface. The file is replaced atomically.
func (s *FileStore) Save(_ context.Context, doc *schema.ManualContributions) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return snapshot.WriteFileAtomic(s.path, data)
}

// LoadOrEmpty returns the document, or an empty one when the file does not exist yet.
func (s *FileStore) LoadOrEmpty(ctx context.Context) (*schema.ManualContributions, error) {
	doc, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return &schema.ManualContributions{Contributors: map[string]schema.ManualContributor{}}, nil
	}
	return doc, err
}

// Decode parses a manual contributions document.
func Decode(data []byte) (*schema.ManualContributions, error) {
	var doc schema.ManualContributions
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid manual contributions: %w", err)
	}
	if doc.Contributors == nil {
		doc.Contributors = map[string]schema.ManualContributor{}
	}
	return &doc, nil
}

// Encode serializes a manual contributions document as indented JSON.
func Encode(doc *schema.ManualContributions) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ExportBackup writes a dated copy of the document into dir and returns its path.
func ExportBackup(doc *schema.ManualContributions, dir string, now time.Time) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, backupPrefix+now.UTC().Format(schema.DateLayout)+".json")
	if err := snapshot.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// findContributor returns the stored name matching name case-insensitively.
func findContributor(doc *schema.ManualContributions, name string) (string, bool) {
	for stored := range doc.Contributors {
		if strings.EqualFold(stored, name) {
			return stored, true
		}
	}
	return "", false
}

// AddContributor registers a contributor. Names are unique case-insensitively.
func AddContributor(doc *schema.ManualContributions, name, email string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("contributor name is required")
	}
	if stored, ok := findContributor(doc, name); ok {
		return fmt.Errorf("contributor %q already exists", stored)
	}
	if doc.Contributors == nil {
		doc.Contributors = map[string]schema.ManualContributor{}
	}
	doc.Contributors[name] = schema.ManualContributor{
		Email:         strings.TrimSpace(email),
		Contributions: []schema.ManualContribution{},
	}
	return nil
}

// AddContribution appends a contribution, creating the contributor when needed.
func AddContribution(doc *schema.ManualContributions, name string, c schema.ManualContribution) error {
	if !c.EndDate.IsZero() && c.StartDate.IsZero() {
		return errors.New("end date requires a start date")
	}
	if !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate.Time) {
		return fmt.Errorf("end date %s is before start date %s", c.EndDate, c.StartDate)
	}
	stored, ok := findContributor(doc, name)
	if !ok {
		if err := AddContributor(doc, name, ""); err != nil {
			return err
		}
		stored = strings.TrimSpace(name)
	}
	contributor := doc.Contributors[stored]
	contributor.Contributions = append(slices.Clone(contributor.Contributions), c)
	doc.Contributors[stored] = contributor
	return nil
}

// RemoveContributor deletes a contributor and all their contributions.
func RemoveContributor(doc *schema.ManualContributions, name string) error {
	stored, ok := findContributor(doc, name)
	if !ok {
		return fmt.Errorf("contributor %q not found", name)
	}
	delete(doc.Contributors, stored)
	return nil
}

// RemoveContribution deletes the contribution at index (zero-based).
func RemoveContribution(doc *schema.ManualContributions, name string, index int) error {
	stored, ok := findContributor(doc, name)
	if !ok {
		return fmt.Errorf("contributor %q not found", name)
	}
	contributor := doc.Contributors[stored]
	if index < 0 || index >= len(contributor.Contributions) {
		return fmt.Errorf("contribution index %d out of range for %q (has %d)", index, stored, len(contributor.Contributions))
	}
	contributor.Contributions = slices.Delete(slices.Clone(contributor.Contributions), index, index+1)
	doc.Contributors[stored] = contributor
	return nil
}

// SortedNames returns the contributor names in order.
func SortedNames(doc *schema.ManualContributions) []string {
	names := make([]string, 0, len(doc.Contributors))
	for name := range doc.Contributors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
