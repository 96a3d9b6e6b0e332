package contract

import "errors"

// Sentinel errors shared by the stores, the sources and the analysis pipeline.
var (
	// ErrSnapshotNotFound means no snapshot has been saved yet. It starts a first run.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotCorrupt means a stored snapshot failed to parse or validate.
	ErrSnapshotCorrupt = errors.New("snapshot is corrupt")

	// ErrManualNotFound means there is no manual contributions document.
	ErrManualNotFound = errors.New("manual contributions not found")

	// ErrSourceUnavailable means the commit source could not list commits.
	ErrSourceUnavailable = errors.New("commit source unavailable")

	// ErrRunAborted means the run was cancelled or exceeded its time budget.
	ErrRunAborted = errors.New("analysis run aborted")
)
