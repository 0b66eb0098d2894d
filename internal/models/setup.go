// Package models provides domain models for the setup memory application.
package models

import (
	"sort"
	"strings"
	"time"
)

// Outcome represents the result of a closed trade.
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakEven Outcome = "be"
)

// ParseOutcome converts user input into an Outcome.
// Accepts the stored forms plus a few common spellings of break-even.
func ParseOutcome(s string) (Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "w":
		return OutcomeWin, true
	case "loss", "l":
		return OutcomeLoss, true
	case "be", "breakeven", "break-even", "break_even":
		return OutcomeBreakEven, true
	default:
		return "", false
	}
}

// IsValid reports whether o is one of the known outcomes.
func (o Outcome) IsValid() bool {
	return o == OutcomeWin || o == OutcomeLoss || o == OutcomeBreakEven
}

// TradeEntry is a single logged trade outcome. Immutable once appended.
type TradeEntry struct {
	Outcome   Outcome   `json:"outcome"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// SetupRecord aggregates every logged trade for one normalized setup label.
// Wins + Losses + BreakEven always equals len(Trades).
type SetupRecord struct {
	Wins           int          `json:"wins"`
	Losses         int          `json:"losses"`
	BreakEven      int          `json:"breakEven"`
	Trades         []TradeEntry `json:"trades"`
	CommonMistakes []string     `json:"commonMistakes"`
}

// NewSetupRecord returns an empty record ready for its first trade.
func NewSetupRecord() *SetupRecord {
	return &SetupRecord{
		Trades:         []TradeEntry{},
		CommonMistakes: []string{},
	}
}

// Decided returns the number of trades that were not break-even.
func (r *SetupRecord) Decided() int {
	return r.Wins + r.Losses
}

// WinRate returns wins as a percentage of decided trades, or 0 with no decided trades.
func (r *SetupRecord) WinRate() float64 {
	total := r.Decided()
	if total == 0 {
		return 0
	}
	return float64(r.Wins) / float64(total) * 100
}

// StatsMapping maps a normalized setup label to its record.
type StatsMapping map[string]*SetupRecord

// Keys returns the labels in ascending order.
func (m StatsMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetupSummary is a SetupRecord without its trade history, used for prompt context.
type SetupSummary struct {
	Wins           int      `json:"wins"`
	Losses         int      `json:"losses"`
	BreakEven      int      `json:"breakEven"`
	CommonMistakes []string `json:"commonMistakes"`
}

// SetupBreakdown is one row of the display summary.
type SetupBreakdown struct {
	SetupType   string  `json:"setupType"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	BreakEven   int     `json:"breakEven"`
	WinRate     float64 `json:"winRate"`
	TotalTrades int     `json:"totalTrades"`
}

// DisplaySummary holds totals across all setups for reporting.
type DisplaySummary struct {
	TotalTrades    int              `json:"totalTrades"`
	TotalWins      int              `json:"totalWins"`
	TotalLosses    int              `json:"totalLosses"`
	TotalBreakEven int              `json:"totalBE"`
	OverallWinRate float64          `json:"overallWinRate"`
	SetupBreakdown []SetupBreakdown `json:"setupBreakdown"`
}

// AnalysisResult is the parsed output of an AI chart analysis.
type AnalysisResult struct {
	SetupType    string    `json:"setupType"`
	FullAnalysis string    `json:"fullAnalysis"`
	Warning      string    `json:"warning,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// HasWarning returns true if a history warning was attached.
func (r *AnalysisResult) HasWarning() bool {
	return r.Warning != ""
}
