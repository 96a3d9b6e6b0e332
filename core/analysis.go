package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"golang.org/x/sync/errgroup"
)

// Pipeline errors.
var (
	ErrSnapshotCorrupt = contract.ErrSnapshotCorrupt
	ErrRunAborted      = contract.ErrRunAborted
)

// Pipeline holds the collaborators of one analysis run.
type Pipeline struct {
	Source   contract.CommitSource
	Scorer   *Scorer
	Snapshot contract.SnapshotStore
	Manual   contract.ManualStore // optional
	Runs     contract.RunStore    // optional
	Now      func() time.Time
}

// RunResult summarizes a completed analysis run.
type RunResult struct {
	Snapshot        *schema.Snapshot
	FirstRun        bool
	Since           time.Time
	CommitsAnalyzed int
	LatestCommit    string
	Duration        time.Duration
}

func (p Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// RunAnalysis executes load, list, score, aggregate, merge, reconcile and save in
// that order. The snapshot is saved only when every stage succeeds and the run was
// neither cancelled nor timed out.
func RunAnalysis(ctx context.Context, cfg *contract.Config, p Pipeline) (*RunResult, error) {
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	start := p.now()
	runID := beginRun(p.Runs, start, p.Source.Name(), cfg)

	result, err := runPipeline(ctx, cfg, p, start)

	outcome := schema.RunOutcome{EndTime: p.now(), Success: err == nil}
	if result != nil {
		outcome.CommitsAnalyzed = result.CommitsAnalyzed
		outcome.LatestCommit = result.LatestCommit
	}
	if err != nil {
		outcome.ErrorMessage = err.Error()
	}
	endRun(p.Runs, runID, outcome)
	if err != nil {
		return nil, err
	}

	recordStandings(p.Runs, runID, result.Snapshot, outcome.EndTime)
	result.Duration = outcome.EndTime.Sub(start)
	return result, nil
}

func runPipeline(ctx context.Context, cfg *contract.Config, p Pipeline, now time.Time) (*RunResult, error) {
	// --- 1. Prior snapshot ---
	prior, err := p.Snapshot.Load(ctx)
	switch {
	case errors.Is(err, contract.ErrSnapshotNotFound):
		prior = nil
	case errors.Is(err, contract.ErrSnapshotCorrupt) && cfg.ForceFull:
		contract.LogWarn("Ignoring unreadable snapshot for a full run", err)
		prior = nil
	case err != nil:
		return nil, fmt.Errorf("loading snapshot from %s: %w", p.Snapshot.Location(), err)
	}

	result := &RunResult{FirstRun: prior == nil}
	window := cfg.AnalysisWindow(prior != nil)
	result.Since = now.Add(-window)

	// --- 2. Commit listing ---
	commits, err := p.Source.ListCommits(ctx, result.Since)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrRunAborted, ctx.Err())
		}
		return nil, fmt.Errorf("listing commits from %s: %w", p.Source.Repository(), err)
	}
	result.CommitsAnalyzed = len(commits)
	result.LatestCommit = latestCommitHash(commits)

	// --- 3. Stats and scoring ---
	scored, err := scoreCommits(ctx, cfg.Workers, p.Source, p.Scorer, commits)
	if err != nil {
		return nil, err
	}

	// --- 4. Aggregate and merge ---
	snap := BuildSnapshot(scored, SnapshotInfo{
		AnalysisDays: int(window / (24 * time.Hour)),
		Source:       p.Source.Name(),
		Repository:   p.Source.Repository(),
		Now:          now,
	})
	if prior != nil {
		snap = Merge(prior, snap)
	}

	// --- 5. Reconcile manual contributions ---
	if p.Manual != nil {
		manual, err := p.Manual.Load(ctx)
		switch {
		case errors.Is(err, contract.ErrManualNotFound):
		case err != nil:
			return nil, fmt.Errorf("loading manual contributions from %s: %w", p.Manual.Location(), err)
		default:
			if snap, err = Reconcile(snap, manual); err != nil {
				return nil, err
			}
		}
	}

	// --- 6. Validate and persist ---
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to save invalid snapshot: %w", err)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunAborted, ctx.Err())
	}
	if err := p.Snapshot.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving snapshot to %s: %w", p.Snapshot.Location(), err)
	}

	result.Snapshot = snap
	return result, nil
}

// scoreCommits fetches stats and scores every commit with at most workers in flight.
// A commit whose stats cannot be fetched is scored with zeroed stats.
func scoreCommits(
	ctx context.Context,
	workers int,
	src contract.CommitSource,
	scorer *Scorer,
	commits []schema.Commit,
) ([]schema.ScoredCommit, error) {
	scored := make([]schema.ScoredCommit, len(commits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, c := range commits {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stats, err := src.GetStats(gctx, c.Hash)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				contract.LogWarn(fmt.Sprintf("Cannot read stats of %s", shortHash(c.Hash)), err)
				stats = schema.CommitStats{}
			}
			scored[i] = scorer.Score(gctx, c, stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunAborted, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRunAborted, err)
	}
	return scored, nil
}

func latestCommitHash(commits []schema.Commit) string {
	var latest schema.Commit
	for _, c := range commits {
		if latest.Hash == "" || c.Timestamp.After(latest.Timestamp) {
			latest = c
		}
	}
	return latest.Hash
}

// beginRun starts run tracking. Tracking failures never fail the run.
func beginRun(runs contract.RunStore, start time.Time, source string, cfg *contract.Config) int64 {
	if runs == nil {
		return 0
	}
	configParams := map[string]any{
		"source":           string(cfg.Source),
		"repo_path":        cfg.RepoPath,
		"days":             cfg.AnalysisDays,
		"incremental_days": cfg.IncrementalDays,
		"workers":          cfg.Workers,
		"rater":            string(cfg.Rater),
		"force_full":       cfg.ForceFull,
	}
	runID, err := runs.BeginRun(start, source, configParams)
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	return runID
}

func endRun(runs contract.RunStore, runID int64, outcome schema.RunOutcome) {
	if runs == nil || runID <= 0 {
		return
	}
	if err := runs.EndRun(runID, outcome); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// recordStandings stores the latest period of every period type.
func recordStandings(runs contract.RunStore, runID int64, snap *schema.Snapshot, at time.Time) {
	if runs == nil || runID <= 0 || snap == nil {
		return
	}
	standings := StandingsOf(runID, snap, at)
	if len(standings) == 0 {
		return
	}
	if err := runs.RecordStandings(runID, standings); err != nil {
		contract.LogWarn("Failed to record standings", err)
	}
}

// StandingsOf flattens the latest period of each period type into standing records.
func StandingsOf(runID int64, snap *schema.Snapshot, at time.Time) []schema.StandingRecord {
	var out []schema.StandingRecord
	for _, pt := range schema.AllPeriodTypes {
		board := snap.Leaderboards.Board(pt)
		key := LatestPeriodKey(board)
		if key == "" {
			continue
		}
		for _, r := range board[key] {
			out = append(out, schema.StandingRecord{
				RunID:       runID,
				PeriodType:  string(pt),
				PeriodKey:   key,
				Contributor: r.Name,
				Rank:        int32(r.Rank),
				Tier:        string(r.Tier),
				CommitScore: int32(r.CommitScore),
				TotalScore:  int32(r.TotalScore),
				RecordedAt:  at,
			})
		}
	}
	return out
}
