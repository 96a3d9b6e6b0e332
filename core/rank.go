package core

import (
	"sort"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// Rank cutoffs of each tier, inclusive.
const (
	eliteMaxRank        = 5
	advancedMaxRank     = 12
	intermediateMaxRank = 22
)

// TierForRank maps a 1-based rank position to its tier.
func TierForRank(rank int) schema.Tier {
	switch {
	case rank <= eliteMaxRank:
		return schema.TierElite
	case rank <= advancedMaxRank:
		return schema.TierAdvanced
	case rank <= intermediateMaxRank:
		return schema.TierIntermediate
	default:
		return schema.TierContributing
	}
}

// RankRecords sorts records by total score descending, breaking ties by name,
// and assigns rank and tier from the resulting position. Records are updated in place.
func RankRecords(records []schema.ContributorPeriodRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].TotalScore != records[j].TotalScore {
			return records[i].TotalScore > records[j].TotalScore
		}
		return records[i].Name < records[j].Name
	})
	for i := range records {
		rank := i + 1
		records[i].Rank = rank
		records[i].Tier = TierForRank(rank)
		records[i].TierName = schema.TierNames[records[i].Tier]
	}
}

// RankBoard ranks every period of a board.
func RankBoard(board schema.PeriodBoard) {
	for _, records := range board {
		RankRecords(records)
	}
}

// SortedPeriodKeys returns the keys of a board in ascending order.
// All key formats sort chronologically as strings.
func SortedPeriodKeys(board schema.PeriodBoard) []string {
	keys := make([]string, 0, len(board))
	for k := range board {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LatestPeriodKey returns the most recent period of a board, or "" when it is empty.
func LatestPeriodKey(board schema.PeriodBoard) string {
	keys := SortedPeriodKeys(board)
	if len(keys) == 0 {
		return ""
	}
	return keys[len(keys)-1]
}
