package core

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/internal/manual"
	"github.com/cdc542559455/lmcache-leaderboard/internal/outwriter"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// ManualEdit describes a change to the manual contributions file.
// With Score, Notes and the dates empty, an add registers the contributor only.
type ManualEdit struct {
	Name      string
	Email     string
	Score     int
	Notes     string
	StartDate string // YYYY-MM-DD, optional
	EndDate   string // YYYY-MM-DD, optional
	Index     int    // contribution to remove; negative removes the contributor
}

// contribution parses the contribution part of the edit.
func (e ManualEdit) contribution() (schema.ManualContribution, bool, error) {
	c := schema.ManualContribution{Score: e.Score, Notes: strings.TrimSpace(e.Notes)}
	var err error
	if e.StartDate != "" {
		if c.StartDate, err = schema.ParseDate(e.StartDate); err != nil {
			return c, false, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if e.EndDate != "" {
		if c.EndDate, err = schema.ParseDate(e.EndDate); err != nil {
			return c, false, fmt.Errorf("invalid end date: %w", err)
		}
	}
	present := c.Score != 0 || c.Notes != "" || !c.StartDate.IsZero() || !c.EndDate.IsZero()
	return c, present, nil
}

// ExecuteManualList prints the manual contributions file.
func ExecuteManualList(ctx context.Context, cfg *contract.Config) error {
	doc, err := manual.NewFileStore(cfg.ManualFile).LoadOrEmpty(ctx)
	if err != nil {
		return err
	}
	return outwriter.WriteManualContributions(doc, cfg)
}

// ExecuteManualAdd adds a contributor or one of their contributions and saves the file.
func ExecuteManualAdd(ctx context.Context, cfg *contract.Config, edit ManualEdit) error {
	store := manual.NewFileStore(cfg.ManualFile)
	doc, err := store.LoadOrEmpty(ctx)
	if err != nil {
		return err
	}

	c, present, err := edit.contribution()
	if err != nil {
		return err
	}
	if present {
		err = manual.AddContribution(doc, edit.Name, c)
	} else {
		err = manual.AddContributor(doc, edit.Name, edit.Email)
	}
	if err != nil {
		return err
	}
	if err := store.Save(ctx, doc); err != nil {
		return fmt.Errorf("saving %s: %w", store.Location(), err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Updated %s in %s\n", strings.TrimSpace(edit.Name), store.Location())
	return nil
}

// ExecuteManualRemove removes a contributor or one of their contributions and saves the file.
func ExecuteManualRemove(ctx context.Context, cfg *contract.Config, edit ManualEdit) error {
	store := manual.NewFileStore(cfg.ManualFile)
	doc, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if edit.Index < 0 {
		err = manual.RemoveContributor(doc, edit.Name)
	} else {
		err = manual.RemoveContribution(doc, edit.Name, edit.Index)
	}
	if err != nil {
		return err
	}
	if err := store.Save(ctx, doc); err != nil {
		return fmt.Errorf("saving %s: %w", store.Location(), err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Updated %s in %s\n", edit.Name, store.Location())
	return nil
}

// ExecuteManualBackup writes a dated copy of the manual contributions file into dir.
func ExecuteManualBackup(ctx context.Context, cfg *contract.Config, dir string) error {
	doc, err := manual.NewFileStore(cfg.ManualFile).Load(ctx)
	if err != nil {
		return err
	}
	path, err := manual.ExportBackup(doc, dir, time.Now())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote backup to %s\n", path)
	return nil
}
