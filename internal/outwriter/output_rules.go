package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// WriteScoringRules outputs the commit scoring table, dispatching based on the output format configured.
func WriteScoringRules(rules []schema.ScoringRule, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rules)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"component", "condition", "points"}, func(cw *csv.Writer) error {
				for _, r := range rules {
					if err := cw.Write([]string{r.Component, r.Condition, strconv.Itoa(r.Points)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return errors.New("parquet output is not available for scoring rules")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRulesTable(w, rules)
		}, "Wrote table")
	}
}

func writeRulesTable(w io.Writer, rules []schema.ScoringRule) error {
	data := make([][]string, len(rules))
	for i, r := range rules {
		data[i] = []string{r.Component, r.Condition, strconv.Itoa(r.Points)}
	}
	if err := writeTable(w, []string{"Component", "Condition", "Points"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Commits totalling at least %d points are significant. Keyword rules apply first match wins.\n",
		schema.SignificantThreshold)
	return err
}
