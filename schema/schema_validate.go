package schema

import (
	"fmt"
	"regexp"
)

var periodKeyPatterns = map[PeriodType]*regexp.Regexp{
	Weekly:    regexp.MustCompile(`^\d{4}-W(0[1-9]|[1-4]\d|5[0-3])$`),
	Monthly:   regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`),
	Quarterly: regexp.MustCompile(`^\d{4}-Q[1-4]$`),
}

// ValidPeriodKey reports whether key is well formed for the period type.
func ValidPeriodKey(pt PeriodType, key string) bool {
	re, ok := periodKeyPatterns[pt]
	return ok && re.MatchString(key)
}

// Validate checks the structural invariants of a snapshot: well formed period keys,
// unique contributors per period, consistent counters and score totals.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	if s.TotalCommitsAnalyzed < 0 {
		return fmt.Errorf("total_commits_analyzed is negative: %d", s.TotalCommitsAnalyzed)
	}
	for _, pt := range AllPeriodTypes {
		for key, records := range s.Leaderboards.Board(pt) {
			if !ValidPeriodKey(pt, key) {
				return fmt.Errorf("invalid %s period key %q", pt, key)
			}
			names := make(map[string]struct{}, len(records))
			for _, r := range records {
				if err := r.validate(); err != nil {
					return fmt.Errorf("%s %s: %w", pt, key, err)
				}
				if _, dup := names[r.Name]; dup {
					return fmt.Errorf("%s %s: duplicate contributor %q", pt, key, r.Name)
				}
				names[r.Name] = struct{}{}
			}
		}
	}
	return nil
}

func (r ContributorPeriodRecord) validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("record without a contributor name")
	case r.TotalCommits != r.SignificantCommits+r.SimpleCommits:
		return fmt.Errorf("%s: total_commits %d != significant %d + simple %d",
			r.Name, r.TotalCommits, r.SignificantCommits, r.SimpleCommits)
	case r.TotalScore != r.CommitScore+r.AdditionalContributionScore:
		return fmt.Errorf("%s: total_score %d != commit_score %d + additional %d",
			r.Name, r.TotalScore, r.CommitScore, r.AdditionalContributionScore)
	}
	for _, c := range r.Commits {
		if c.Hash == "" {
			return fmt.Errorf("%s: commit without a hash", r.Name)
		}
	}
	return nil
}
