package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
)

// Sub-score bounds.
const (
	MaxLOCScore     = 30
	MaxFilesScore   = 20
	MaxKeywordScore = 25
	MaxAIScore      = 25

	defaultKeywordScore = 12
	diffPreviewChars    = 1000
)

// keywordRule assigns a score to messages matching any of its keywords.
type keywordRule struct {
	keywords []string
	score    int
	pattern  *regexp.Regexp
}

// newKeywordRule compiles a conventional-commit style matcher such as
// "feat:", "feat(api):" or "feat!:" for each keyword. Keywords match anywhere,
// so "hotfix:" counts as "fix:".
func newKeywordRule(score int, keywords ...string) keywordRule {
	expr := `(?:` + strings.Join(keywords, "|") + `)(?:\([^)]*\))?!?:`
	return keywordRule{keywords: keywords, score: score, pattern: regexp.MustCompile(expr)}
}

// keywordRules is evaluated in order and the first matching rule wins.
var keywordRules = []keywordRule{
	newKeywordRule(25, "feat", "feature", "refactor", "perf", "breaking"),
	newKeywordRule(15, "fix", "bug", "improve", "enhance", "update"),
	newKeywordRule(5, "docs", "doc", "typo", "style", "format"),
	newKeywordRule(10, "test", "chore", "ci"),
}

// bracket awards score to values of at least least.
type bracket struct {
	least int
	score int
}

// locBrackets and fileBrackets are ordered from the highest threshold down.
var (
	locBrackets  = []bracket{{100, 30}, {50, 15}, {20, 8}, {0, 3}}
	fileBrackets = []bracket{{5, 20}, {2, 10}, {0, 5}}
)

func bracketScore(brackets []bracket, v int) int {
	for _, b := range brackets {
		if v >= b.least {
			return b.score
		}
	}
	return brackets[len(brackets)-1].score
}

// locScore rewards larger diffs up to a cap.
func locScore(totalLines int) int {
	return bracketScore(locBrackets, totalLines)
}

// filesScore rewards commits touching more files.
func filesScore(filesChanged int) int {
	return bracketScore(fileBrackets, filesChanged)
}

// keywordScore classifies the commit message with the keyword rule table.
func keywordScore(message string) int {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		if rule.pattern.MatchString(lower) {
			return rule.score
		}
	}
	return defaultKeywordScore
}

// fallbackAIScore is used when no rater is configured or the rater fails.
func fallbackAIScore(totalLines int) int {
	return clampAI(totalLines / 10)
}

func clampAI(v int) int {
	return max(0, min(MaxAIScore, v))
}

var firstIntegerRE = regexp.MustCompile(`-?\d+`)

// parseRating extracts the first integer of a rater reply and clamps it to the AI range.
func parseRating(reply string) (int, error) {
	match := firstIntegerRE.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("no integer in rater reply %q", contract.TruncateText(reply, 40))
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("malformed rater reply %q: %w", match, err)
	}
	return clampAI(v), nil
}

// BuildRatingPrompt renders the significance question for one commit.
func BuildRatingPrompt(commit schema.Commit, stats schema.CommitStats) string {
	diff := stats.DiffExcerpt
	if r := []rune(diff); len(r) > diffPreviewChars {
		diff = string(r[:diffPreviewChars])
	}

	var b strings.Builder
	b.WriteString("Analyze this git commit and rate its significance from 0-25 points.\n\n")
	fmt.Fprintf(&b, "Commit message: %s\n", commit.Message)
	fmt.Fprintf(&b, "Files changed: %d\n", stats.FilesChanged)
	fmt.Fprintf(&b, "Lines changed: +%d/-%d\n\n", stats.Insertions, stats.Deletions)
	b.WriteString("Criteria:\n")
	b.WriteString("- New features or major functionality: 20-25 points\n")
	b.WriteString("- Significant refactoring or performance improvements: 15-20 points\n")
	b.WriteString("- Bug fixes with substantial impact: 10-15 points\n")
	b.WriteString("- Minor fixes, tests or configuration: 5-10 points\n")
	b.WriteString("- Documentation, typos or formatting: 0-5 points\n\n")
	fmt.Fprintf(&b, "Diff preview:\n%s\n\n", diff)
	b.WriteString("Respond with ONLY a number from 0-25.")
	return b.String()
}

// Scorer turns commits and their stats into scored commits.
// The rater and cache are optional.
type Scorer struct {
	rater   contract.SignificanceRater
	cache   contract.CacheStore
	timeout time.Duration
}

// NewScorer creates a scorer. A nil rater selects the fallback AI score for every commit.
func NewScorer(rater contract.SignificanceRater, cache contract.CacheStore, timeout time.Duration) *Scorer {
	return &Scorer{rater: rater, cache: cache, timeout: timeout}
}

// Score computes the four sub-scores, their total and the significance flag.
// Rater failures are logged and replaced by the fallback; Score never fails.
func (s *Scorer) Score(ctx context.Context, commit schema.Commit, stats schema.CommitStats) schema.ScoredCommit {
	totalLines := max(0, stats.TotalLines())
	scores := schema.Scores{
		LOC:     locScore(totalLines),
		Files:   filesScore(stats.FilesChanged),
		Keyword: keywordScore(commit.Message),
		AI:      s.aiScore(ctx, commit, stats),
	}
	scores.Total = scores.LOC + scores.Files + scores.Keyword + scores.AI

	return schema.ScoredCommit{
		Commit:      commit,
		Stats:       stats,
		Scores:      scores,
		Significant: scores.Total >= schema.SignificantThreshold,
	}
}

// aiScore asks the rater, consulting the rating cache first.
func (s *Scorer) aiScore(ctx context.Context, commit schema.Commit, stats schema.CommitStats) int {
	fallback := fallbackAIScore(max(0, stats.TotalLines()))
	if s == nil || s.rater == nil {
		return fallback
	}

	key := ratingCacheKey(s.rater.Model(), commit.Hash)
	if rating, ok := checkRatingCache(s.cache, key); ok {
		return rating
	}

	rateCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		rateCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.rater.Rate(rateCtx, BuildRatingPrompt(commit, stats))
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Rating commit %s failed, using fallback", shortHash(commit.Hash)), err)
		return fallback
	}
	rating, err := parseRating(reply)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Rating commit %s unreadable, using fallback", shortHash(commit.Hash)), err)
		return fallback
	}

	storeRating(s.cache, key, rating)
	return rating
}

// shortHash returns the abbreviated form of a commit hash for messages.
func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
