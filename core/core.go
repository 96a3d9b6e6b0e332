// Package core has core logic for scoring, aggregation, merging and reconciliation.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/manual"
	"github.com/cdc542559455/lmcache-leaderboard/internal/outwriter"
	"github.com/cdc542559455/lmcache-leaderboard/internal/rater"
	"github.com/cdc542559455/lmcache-leaderboard/internal/snapshot"
	"github.com/cdc542559455/lmcache-leaderboard/internal/source"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteAnalyze runs the analysis pipeline and prints the latest period of the configured board.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	p, err := buildPipeline(ctx, cfg, mgr, contract.NewLocalGitClient())
	if err != nil {
		return err
	}
	result, err := RunAnalysis(ctx, cfg, p)
	if err != nil {
		return err
	}
	if shouldSuppressOutput(ctx) {
		return nil
	}

	summary := schema.RunSummary{
		FirstRun:         result.FirstRun,
		Since:            result.Since,
		CommitsAnalyzed:  result.CommitsAnalyzed,
		TotalCommits:     result.Snapshot.TotalCommitsAnalyzed,
		LatestCommit:     result.LatestCommit,
		SnapshotLocation: p.Snapshot.Location(),
		Duration:         result.Duration,
	}
	if err := outwriter.WriteRunSummary(os.Stderr, summary); err != nil {
		return err
	}

	view, err := BuildLeaderboardView(result.Snapshot, cfg.PeriodType, cfg.Period, cfg.Hidden, cfg.ResultLimit)
	if errors.Is(err, ErrPeriodNotFound) {
		contract.LogWarn("Nothing to show", err)
		return nil
	}
	if err != nil {
		return err
	}
	return outwriter.WriteLeaderboard(view, cfg, result.Duration)
}

// buildPipeline wires the configured collaborators of an analysis run.
func buildPipeline(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, client contract.GitClient) (Pipeline, error) {
	src, err := source.New(ctx, cfg, client)
	if err != nil {
		return Pipeline{}, err
	}
	store, err := snapshot.New(ctx, cfg)
	if err != nil {
		return Pipeline{}, err
	}

	var ratings contract.CacheStore
	var runs contract.RunStore
	if mgr != nil {
		ratings = mgr.GetRatingStore()
		runs = mgr.GetRunStore()
	}

	p := Pipeline{
		Source:   src,
		Scorer:   NewScorer(rater.New(cfg), ratings, cfg.RaterTimeout),
		Snapshot: store,
		Runs:     runs,
	}
	if cfg.ManualFile != "" {
		p.Manual = manual.NewFileStore(cfg.ManualFile)
	}
	return p, nil
}

// ExecuteMerge merges two snapshot files. The result goes to --output-file when set,
// otherwise to the configured snapshot store.
func ExecuteMerge(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	if len(cfg.MergeInputs) != 2 {
		return fmt.Errorf("merge needs an existing and a new snapshot file (received %d)", len(cfg.MergeInputs))
	}
	existing, err := snapshot.NewFileStore(cfg.MergeInputs[0]).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.MergeInputs[0], err)
	}
	fresh, err := snapshot.NewFileStore(cfg.MergeInputs[1]).Load(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.MergeInputs[1], err)
	}

	merged := Merge(existing, fresh)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid snapshot: %w", err)
	}

	var store contract.SnapshotStore
	if cfg.OutputFile != "" {
		store = snapshot.NewFileStore(cfg.OutputFile)
	} else if store, err = snapshot.New(ctx, cfg); err != nil {
		return err
	}
	if err := store.Save(ctx, merged); err != nil {
		return fmt.Errorf("saving snapshot to %s: %w", store.Location(), err)
	}
	if !shouldSuppressOutput(ctx) {
		_, _ = fmt.Fprintf(os.Stderr, "💾 Merged %d existing and %d new commits into %d at %s\n",
			existing.TotalCommitsAnalyzed, fresh.TotalCommitsAnalyzed, merged.TotalCommitsAnalyzed, store.Location())
	}
	return nil
}

// ExecuteReconcile reapplies the manual contributions file to the stored snapshot.
func ExecuteReconcile(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	snap, store, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return err
	}
	manualStore := manual.NewFileStore(cfg.ManualFile)
	doc, err := manualStore.Load(ctx)
	if err != nil {
		return err
	}
	reconciled, err := Reconcile(snap, doc)
	if err != nil {
		return err
	}
	if err := reconciled.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid snapshot: %w", err)
	}
	if err := store.Save(ctx, reconciled); err != nil {
		return fmt.Errorf("saving snapshot to %s: %w", store.Location(), err)
	}
	if !shouldSuppressOutput(ctx) {
		_, _ = fmt.Fprintf(os.Stderr, "💾 Applied %d manual contributors from %s to %s\n",
			len(doc.Contributors), manualStore.Location(), store.Location())
	}
	return nil
}

// GetLeaderboardResults loads the stored snapshot and selects the configured period.
func GetLeaderboardResults(ctx context.Context, cfg *contract.Config) (schema.LeaderboardView, error) {
	snap, _, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return schema.LeaderboardView{}, err
	}
	return BuildLeaderboardView(snap, cfg.PeriodType, cfg.Period, cfg.Hidden, cfg.ResultLimit)
}

// ExecuteShow prints one period of the stored leaderboard.
func ExecuteShow(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	view, err := GetLeaderboardResults(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.WriteLeaderboard(view, cfg, 0)
}

// GetContributorResults loads the stored snapshot and collects the configured contributor.
func GetContributorResults(ctx context.Context, cfg *contract.Config) (schema.ContributorView, error) {
	if cfg.Contributor == "" {
		return schema.ContributorView{}, errors.New("a contributor name is required")
	}
	snap, _, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return schema.ContributorView{}, err
	}
	return BuildContributorView(snap, cfg.PeriodType, cfg.Contributor, cfg.Hidden), nil
}

// ExecuteContributor prints a contributor's records across the periods of the configured type.
func ExecuteContributor(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	view, err := GetContributorResults(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.WriteContributor(view, cfg)
}

// GetPeriodResults loads the stored snapshot and summarizes the periods of the configured type.
func GetPeriodResults(ctx context.Context, cfg *contract.Config) ([]schema.PeriodSummary, error) {
	snap, _, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return SummarizePeriods(snap, cfg.PeriodType, cfg.Hidden), nil
}

// ExecutePeriods prints the periods of the configured board.
func ExecutePeriods(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	periods, err := GetPeriodResults(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.WritePeriods(periods, cfg)
}

// ExecuteExport writes every board of the stored snapshot as Parquet files.
func ExecuteExport(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	snap, _, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return err
	}
	visible := FilterHidden(snap, cfg.Hidden)
	return outwriter.ExportLeaderboards(os.Stdout, visible.Leaderboards, cfg.OutputFile)
}

// loadSnapshot reads the snapshot from the configured store.
func loadSnapshot(ctx context.Context, cfg *contract.Config) (*schema.Snapshot, contract.SnapshotStore, error) {
	store, err := snapshot.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	snap, err := store.Load(ctx)
	if errors.Is(err, contract.ErrSnapshotNotFound) {
		return nil, nil, fmt.Errorf("no leaderboard at %s, run analyze first: %w", store.Location(), err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading snapshot from %s: %w", store.Location(), err)
	}
	return snap, store, nil
}

// ExecuteRules prints the commit scoring table.
func ExecuteRules(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.WriteScoringRules(ScoringRules(), cfg)
}
