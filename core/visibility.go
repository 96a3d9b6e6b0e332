package core

import (
	"strings"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// FilterHidden returns a copy of the snapshot without the hidden contributors.
// Remaining records are re-ranked, so tiers reflect the visible set only.
// Names match case-insensitively.
func FilterHidden(snap *schema.Snapshot, hidden []string) *schema.Snapshot {
	out := cloneSnapshot(snap)
	if out == nil || len(hidden) == 0 {
		return out
	}

	set := make(map[string]struct{}, len(hidden))
	for _, name := range hidden {
		set[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	for _, pt := range schema.AllPeriodTypes {
		board := out.Leaderboards.Board(pt)
		for key, records := range board {
			kept := records[:0]
			for _, r := range records {
				if _, drop := set[strings.ToLower(r.Name)]; !drop {
					kept = append(kept, r)
				}
			}
			if len(kept) == 0 {
				delete(board, key)
				continue
			}
			RankRecords(kept)
			board[key] = kept
		}
	}
	return out
}

// FindContributor returns the records of a contributor in every period of one type,
// keyed by period. Names match case-insensitively.
func FindContributor(snap *schema.Snapshot, pt schema.PeriodType, name string) map[string]schema.ContributorPeriodRecord {
	out := make(map[string]schema.ContributorPeriodRecord)
	if snap == nil {
		return out
	}
	for key, records := range snap.Leaderboards.Board(pt) {
		for _, r := range records {
			if strings.EqualFold(r.Name, name) {
				out[key] = r
			}
		}
	}
	return out
}
