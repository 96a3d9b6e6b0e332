package core

import (
	"fmt"
	"strings"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// ScoringRules lists the commit scoring table in evaluation order.
func ScoringRules() []schema.ScoringRule {
	var rules []schema.ScoringRule
	rules = append(rules, bracketRules("loc", "lines changed", locBrackets)...)
	rules = append(rules, bracketRules("files", "files changed", fileBrackets)...)
	for _, r := range keywordRules {
		rules = append(rules, schema.ScoringRule{
			Component: "keyword",
			Condition: strings.Join(r.keywords, ", "),
			Points:    r.score,
		})
	}
	rules = append(rules,
		schema.ScoringRule{Component: "keyword", Condition: "no keyword matched", Points: defaultKeywordScore},
		schema.ScoringRule{Component: "ai", Condition: "rater reply, 0-25", Points: MaxAIScore},
		schema.ScoringRule{Component: "ai", Condition: "fallback: lines changed / 10, capped", Points: MaxAIScore},
		schema.ScoringRule{Component: "significant", Condition: "total at least", Points: schema.SignificantThreshold},
	)
	return rules
}

func bracketRules(component, unit string, brackets []bracket) []schema.ScoringRule {
	rules := make([]schema.ScoringRule, len(brackets))
	for i, b := range brackets {
		cond := fmt.Sprintf("%s >= %d", unit, b.least)
		if b.least == 0 {
			cond = "otherwise"
		}
		rules[i] = schema.ScoringRule{Component: component, Condition: cond, Points: b.score}
	}
	return rules
}
