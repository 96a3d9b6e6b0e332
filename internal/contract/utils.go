package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/fatih/color"
)

// Color variables for console output, one per tier.
var (
	EliteColor        = color.New(color.FgYellow, color.Bold)  // T0
	AdvancedColor     = color.New(color.FgMagenta, color.Bold) // T1
	IntermediateColor = color.New(color.FgCyan)                // T2
	ContributingColor = color.New(color.FgWhite)               // T3
)

// GetPlainTierLabel returns the tier code and name, such as "T0 Elite".
func GetPlainTierLabel(tier schema.Tier) string {
	name, ok := schema.TierNames[tier]
	if !ok {
		return string(tier)
	}
	return string(tier) + " " + name
}

// GetColorTierLabel returns the tier label colored for table output.
func GetColorTierLabel(tier schema.Tier) string {
	text := GetPlainTierLabel(tier)

	switch tier {
	case schema.TierElite:
		return EliteColor.Sprint(text)
	case schema.TierAdvanced:
		return AdvancedColor.Sprint(text)
	case schema.TierIntermediate:
		return IntermediateColor.Sprint(text)
	default:
		return ContributingColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the rating cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".leaderboard_cache.db"
	}
	return filepath.Join(homeDir, ".leaderboard_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".leaderboard_runs.db"
	}
	return filepath.Join(homeDir, ".leaderboard_runs.db")
}

// TruncateText shortens s to at most maxWidth runes, marking the cut with "...".
// Only the first line of s is kept.
func TruncateText(s string, maxWidth int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return string(runes)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
