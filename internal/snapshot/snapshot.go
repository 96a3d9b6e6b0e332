// Package snapshot persists the leaderboard snapshot to a local file or an S3 object.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// Sentinel errors returned by Load.
var (
	ErrNotFound = contract.ErrSnapshotNotFound
	ErrCorrupt  = contract.ErrSnapshotCorrupt
)

// New builds the snapshot store selected by the configuration.
func New(ctx context.Context, cfg *contract.Config) (contract.SnapshotStore, error) {
	switch cfg.SnapshotBackend {
	case schema.FileSnapshot, "":
		return NewFileStore(cfg.SnapshotPath), nil
	case schema.S3Snapshot:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported snapshot backend: %s", cfg.SnapshotBackend)
	}
}

// Decode parses and validates a snapshot document.
func Decode(data []byte) (*schema.Snapshot, error) {
	var snap schema.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for _, pt := range schema.AllPeriodTypes {
		if snap.Leaderboards.Board(pt) == nil {
			snap.Leaderboards.SetBoard(pt, schema.PeriodBoard{})
		}
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &snap, nil
}

// Encode validates and serializes a snapshot as indented JSON.
func Encode(snap *schema.Snapshot) ([]byte, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to write invalid snapshot: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
