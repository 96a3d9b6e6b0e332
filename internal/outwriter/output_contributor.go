package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/parquet"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// WriteContributor outputs a contributor's records across periods, dispatching based on the output format configured.
func WriteContributor(view schema.ContributorView, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, view)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeContributorCSV(w, view, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeContributorParquet(view, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeContributorTable(w, view, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
	return nil
}

// selectedPeriod returns the period whose commits are listed: the configured
// period when the contributor has one there, otherwise the newest.
func selectedPeriod(view schema.ContributorView, period string) (schema.ContributorPeriod, bool) {
	if len(view.Periods) == 0 {
		return schema.ContributorPeriod{}, false
	}
	for _, p := range view.Periods {
		if p.PeriodKey == period {
			return p, true
		}
	}
	return view.Periods[0], true
}

// writeContributorTable writes the per-period table followed by the commits of one period.
func writeContributorTable(
	w io.Writer,
	view schema.ContributorView,
	cfg *contract.Config,
	fmtFloat func(float64) string,
	intFmt string,
) error {
	if len(view.Periods) == 0 {
		_, err := fmt.Fprintf(w, "No %s records for %s\n", view.PeriodType, view.Name)
		return err
	}

	headers := []string{"Period", "Rank", "Tier", "Commits", "Sig", "Ratio", "Commit Score", "Manual", "Total"}
	var data [][]string
	for _, p := range view.Periods {
		r := p.Record
		data = append(data, []string{
			p.PeriodKey,
			strconv.Itoa(r.Rank),
			tierLabel(r.Tier, cfg.UseColors),
			fmt.Sprintf(intFmt, r.TotalCommits),
			fmt.Sprintf(intFmt, r.SignificantCommits),
			fmtFloat(r.SignificanceRatio),
			fmt.Sprintf(intFmt, r.CommitScore),
			fmt.Sprintf(intFmt, r.AdditionalContributionScore),
			fmt.Sprintf(intFmt, r.TotalScore),
		})
	}
	if _, err := fmt.Fprintf(w, "%s (%s)\n", view.Name, view.PeriodType); err != nil {
		return err
	}
	if err := writeTable(w, headers, data); err != nil {
		return err
	}

	selected, _ := selectedPeriod(view, cfg.Period)
	record := selected.Record
	for _, c := range record.AdditionalContributions {
		line := fmt.Sprintf("Manual %+d %s", c.Score, c.Notes)
		if c.Dated() {
			line += fmt.Sprintf(" (%s..%s)", c.StartDate, c.EndDate)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	commits := record.Commits
	if cfg.ResultLimit > 0 && len(commits) > cfg.ResultLimit {
		commits = commits[:cfg.ResultLimit]
	}
	if len(commits) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Commits in %s (%d of %d)\n", selected.PeriodKey, len(commits), len(record.Commits)); err != nil {
		return err
	}
	msgWidth := GetMaxTableMessageWidth(cfg)
	var commitRows [][]string
	for _, c := range commits {
		commitRows = append(commitRows, []string{
			c.Date.Format("2006-01-02"),
			shortHash(c.Hash),
			fmt.Sprintf(intFmt, c.Scores.Total),
			string(c.Classification),
			contract.TruncateText(c.Message, msgWidth),
		})
	}
	return writeTable(w, []string{"Date", "Hash", "Score", "Class", "Message"}, commitRows)
}

// writeContributorCSV writes one row per period in the leaderboard CSV layout.
func writeContributorCSV(w io.Writer, view schema.ContributorView, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, leaderboardCSVHeader, func(cw *csv.Writer) error {
		for _, p := range view.Periods {
			if err := cw.Write(recordCSVRow(view.PeriodType, p.PeriodKey, p.Record, fmtFloat, intFmt)); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeContributorParquet writes one row per period to a Parquet file.
func writeContributorParquet(view schema.ContributorView, outputFile string) error {
	if outputFile == "" {
		return errParquetNeedsFile
	}
	board := make(schema.PeriodBoard, len(view.Periods))
	keys := make([]string, 0, len(view.Periods))
	for _, p := range view.Periods {
		board[p.PeriodKey] = []schema.ContributorPeriodRecord{p.Record}
		keys = append(keys, p.PeriodKey)
	}
	rows := parquet.ConvertBoard(view.PeriodType, keys, board)
	if err := parquet.WriteContributorPeriodsParquet(rows, outputFile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}
