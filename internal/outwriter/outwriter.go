// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteLeaderboard prints one period of a leaderboard using the configured output format.
func (ow *OutWriter) WriteLeaderboard(view schema.LeaderboardView, cfg *contract.Config, duration time.Duration) error {
	return WriteLeaderboard(view, cfg, duration)
}

// WriteContributor prints a contributor's records across periods using the configured output format.
func (ow *OutWriter) WriteContributor(view schema.ContributorView, cfg *contract.Config) error {
	return WriteContributor(view, cfg)
}

// WritePeriods prints the period buckets of a board using the configured output format.
func (ow *OutWriter) WritePeriods(periods []schema.PeriodSummary, cfg *contract.Config) error {
	return WritePeriods(periods, cfg)
}

// WriteRunSummary prints the outcome of an analysis run.
func (ow *OutWriter) WriteRunSummary(w io.Writer, summary schema.RunSummary) error {
	return WriteRunSummary(w, summary)
}

// ExportLeaderboards writes every board of the snapshot as Parquet files.
func (ow *OutWriter) ExportLeaderboards(w io.Writer, boards schema.Leaderboards, outputFile string) error {
	return ExportLeaderboards(w, boards, outputFile)
}

// WriteManualContributions prints the manual contributions document.
func (ow *OutWriter) WriteManualContributions(doc *schema.ManualContributions, cfg *contract.Config) error {
	return WriteManualContributions(doc, cfg)
}

// WriteScoringRules prints the commit scoring table.
func (ow *OutWriter) WriteScoringRules(rules []schema.ScoringRule, cfg *contract.Config) error {
	return WriteScoringRules(rules, cfg)
}
