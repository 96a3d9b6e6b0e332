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
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// WriteManualContributions outputs the manual contributions document, dispatching based on the output format configured.
func WriteManualContributions(doc *schema.ManualContributions, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, doc)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeManualCSV(w, doc)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return errors.New("parquet output is not available for manual contributions")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeManualTable(w, doc)
		}, "Wrote table")
	}
	return nil
}

func writeManualTable(w io.Writer, doc *schema.ManualContributions) error {
	var data [][]string
	total := 0
	for _, name := range slices.Sorted(maps.Keys(doc.Contributors)) {
		contributor := doc.Contributors[name]
		if len(contributor.Contributions) == 0 {
			data = append(data, []string{name, "-", "0", "", "", ""})
			continue
		}
		for i, c := range contributor.Contributions {
			data = append(data, []string{
				name,
				strconv.Itoa(i),
				strconv.Itoa(c.Score),
				c.Notes,
				c.StartDate.String(),
				c.EndDate.String(),
			})
			total += c.Score
		}
	}
	if err := writeTable(w, []string{"Contributor", "#", "Score", "Notes", "Start", "End"}, data); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d contributors, %d manual points\n", len(doc.Contributors), total)
	return err
}

func writeManualCSV(w io.Writer, doc *schema.ManualContributions) error {
	header := []string{"name", "email", "index", "score", "notes", "start_date", "end_date"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, name := range slices.Sorted(maps.Keys(doc.Contributors)) {
			contributor := doc.Contributors[name]
			for i, c := range contributor.Contributions {
				rec := []string{
					name,
					contributor.Email,
					strconv.Itoa(i),
					strconv.Itoa(c.Score),
					c.Notes,
					c.StartDate.String(),
					c.EndDate.String(),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
