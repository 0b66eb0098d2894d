package memory

import (
	"fmt"
	"regexp"
	"strings"

	"setup-memory/internal/models"
)

// Warning policy. Fixed, not configurable.
const (
	MinTradesForWarning = 3
	WarningWinRate      = 40.0
)

// UnknownSetup is the label used when no classification was found.
const UnknownSetup = "Unknown"

var nonKeyChars = regexp.MustCompile(`[^a-z0-9\s]`)

// comparisonKey lowercases label and strips everything outside [a-z0-9\s].
func comparisonKey(label string) string {
	return nonKeyChars.ReplaceAllString(strings.ToLower(label), "")
}

// Evaluate returns a warning when candidate fuzzy-matches a setup in history
// with at least MinTradesForWarning decided trades and a win rate below
// WarningWinRate. It returns "" when nothing qualifies.
//
// Two labels match when either comparison key contains the other. History is
// visited in key order and the last qualifying match wins.
func Evaluate(candidate string, history models.StatsMapping) string {
	if candidate == "" || candidate == UnknownSetup || len(history) == 0 {
		return ""
	}

	candidateKey := comparisonKey(candidate)
	if strings.TrimSpace(candidateKey) == "" {
		return ""
	}

	var warning string
	for _, label := range history.Keys() {
		record := history[label]
		if record == nil {
			continue
		}

		historicalKey := comparisonKey(label)
		if strings.TrimSpace(historicalKey) == "" {
			continue
		}
		if !strings.Contains(candidateKey, historicalKey) && !strings.Contains(historicalKey, candidateKey) {
			continue
		}

		if record.Decided() >= MinTradesForWarning && record.WinRate() < WarningWinRate {
			warning = formatWarning(label, record)
		}
	}

	return warning
}

func formatWarning(label string, record *models.SetupRecord) string {
	return fmt.Sprintf(
		"You have a poor track record with \"%s\" setups: %d wins vs %d losses (%.1f%% win rate). Consider extra caution or skipping this trade.",
		label, record.Wins, record.Losses, record.WinRate(),
	)
}
