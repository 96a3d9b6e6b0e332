package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/parquet"
)

// ExecuteRunsExport exports the run history to two Parquet files next to outputFile.
func ExecuteRunsExport(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is disabled")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total standing records: %d\n", status.TableSizes[standingsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	standings, err := store.GetAllStandings()
	if err != nil {
		return fmt.Errorf("failed to retrieve standings: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	parquetRuns := parquet.ConvertRunRecords(runs)
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	standingsFile := outputFile + ".standings.parquet"
	parquetStandings := parquet.ConvertStandingRecords(standings)
	if err := parquet.WriteStandingsParquet(parquetStandings, standingsFile); err != nil {
		return fmt.Errorf("failed to write standings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d standing records to: %s\n", len(parquetStandings), standingsFile)
	return nil
}
