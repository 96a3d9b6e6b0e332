package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/parquet"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// WritePeriods outputs the period buckets of a board, dispatching based on the output format configured.
func WritePeriods(periods []schema.PeriodSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, periods)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeriodsCSV(w, periods)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errors.New("parquet output is not available for period lists; use export instead")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeriodsTable(w, periods)
		}, "Wrote table")
	}
	return nil
}

func writePeriodsTable(w io.Writer, periods []schema.PeriodSummary) error {
	var data [][]string
	for _, p := range periods {
		data = append(data, []string{
			p.PeriodKey,
			strconv.Itoa(p.Contributors),
			strconv.Itoa(p.Commits),
			strconv.Itoa(p.TotalScore),
			p.Leader,
		})
	}
	if err := writeTable(w, []string{"Period", "Contributors", "Commits", "Total Score", "Leader"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d periods\n", len(periods))
	return err
}

func writePeriodsCSV(w io.Writer, periods []schema.PeriodSummary) error {
	header := []string{"period_type", "period_key", "contributors", "commits", "total_score", "leader"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range periods {
			rec := []string{
				string(p.PeriodType),
				p.PeriodKey,
				strconv.Itoa(p.Contributors),
				strconv.Itoa(p.Commits),
				strconv.Itoa(p.TotalScore),
				p.Leader,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteRunSummary prints the outcome of an analysis run.
func WriteRunSummary(w io.Writer, s schema.RunSummary) error {
	kind := "incremental"
	if s.FirstRun {
		kind = "full"
	}
	if _, err := fmt.Fprintf(w, "📊 Analyzed %d commits since %s (%s run)\n",
		s.CommitsAnalyzed, s.Since.Format(contract.DateTimeFormat), kind); err != nil {
		return err
	}
	if s.LatestCommit != "" {
		if _, err := fmt.Fprintf(w, "Latest commit: %s\n", shortHash(s.LatestCommit)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "💾 Saved %d commits to %s in %v\n", s.TotalCommits, s.SnapshotLocation, s.Duration)
	return err
}

// ExportLeaderboards writes each board to <outputFile>.<period type>.parquet,
// newest period first.
func ExportLeaderboards(w io.Writer, boards schema.Leaderboards, outputFile string) error {
	if outputFile == "" {
		return errParquetNeedsFile
	}
	for _, pt := range schema.AllPeriodTypes {
		board := boards.Board(pt)
		keys := slices.Sorted(maps.Keys(board))
		slices.Reverse(keys)

		rows := parquet.ConvertBoard(pt, keys, board)
		path := fmt.Sprintf("%s.%s.parquet", outputFile, pt)
		if err := parquet.WriteContributorPeriodsParquet(rows, path); err != nil {
			return fmt.Errorf("failed to write %s parquet: %w", pt, err)
		}
		if _, err := fmt.Fprintf(w, "Exported %d %s records across %d periods to %s\n", len(rows), pt, len(keys), path); err != nil {
			return err
		}
	}
	return nil
}
