package outwriter

import (
	"os"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"golang.org/x/term"
)

// terminalWidth returns the configured width override or the detected terminal width.
func terminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// GetMaxTableNameWidth calculates the maximum width for contributor names in
// leaderboard tables based on terminal width.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	// Rank + Tier + Commits + Sig + Ratio + Score + Avg + Manual + Total with borders/padding
	baseWidth := 75

	// Reserve generous space for table borders, separators, and padding
	baseWidth += 20

	available := terminalWidth(cfg) - baseWidth
	return max(12, min(available, 40))
}

// GetMaxTableMessageWidth calculates the maximum width for commit messages in
// the commit listing of a contributor.
func GetMaxTableMessageWidth(cfg *contract.Config) int {
	// Date + Hash + Score + Class with borders/padding
	baseWidth := 50
	available := terminalWidth(cfg) - baseWidth
	return max(20, min(available, 90))
}
