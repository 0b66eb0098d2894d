package memory

import (
	"strings"
	"testing"

	"setup-memory/internal/models"
)

func record(wins, losses, be int) *models.SetupRecord {
	r := models.NewSetupRecord()
	r.Wins, r.Losses, r.BreakEven = wins, losses, be
	return r
}

func TestEvaluatePoorRecordWarns(t *testing.T) {
	history := models.StatsMapping{"Head And Shoulders": record(1, 4, 0)}

	warning := Evaluate("Head And Shoulders", history)
	if warning == "" {
		t.Fatal("expected a warning")
	}
	for _, want := range []string{`"Head And Shoulders"`, "1 wins", "4 losses", "20.0%"} {
		if !strings.Contains(warning, want) {
			t.Errorf("warning %q missing %q", warning, want)
		}
	}
}

func TestEvaluateNoWarning(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		history   models.StatsMapping
	}{
		{"good win rate", "Bull Flag", models.StatsMapping{"Bull Flag": record(7, 3, 0)}},
		{"too few trades", "Bull Flag", models.StatsMapping{"Bull Flag": record(0, 2, 0)}},
		{"break-even excluded from total", "Bull Flag", models.StatsMapping{"Bull Flag": record(0, 2, 5)}},
		{"exactly forty percent", "Bull Flag", models.StatsMapping{"Bull Flag": record(2, 3, 0)}},
		{"unknown candidate", "Unknown", models.StatsMapping{"Unknown": record(0, 5, 0)}},
		{"empty candidate", "", models.StatsMapping{"Bull Flag": record(0, 5, 0)}},
		{"empty history", "Bull Flag", models.StatsMapping{}},
		{"nil history", "Bull Flag", nil},
		{"no match", "Ascending Triangle", models.StatsMapping{"Bull Flag": record(0, 5, 0)}},
		{"punctuation-only candidate", "???", models.StatsMapping{"Bull Flag": record(0, 5, 0)}},
		{"punctuation-only stored label", "Bull Flag", models.StatsMapping{"???": record(0, 5, 0)}},
		{"nil record", "Bull Flag", models.StatsMapping{"Bull Flag": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.candidate, tt.history); got != "" {
				t.Errorf("expected no warning, got %q", got)
			}
		})
	}
}

func TestEvaluateFuzzyMatching(t *testing.T) {
	history := models.StatsMapping{"Bull Flag": record(1, 3, 0)}

	for _, candidate := range []string{
		"bull flag",
		"BULL FLAG!",
		"Bull Flag (continuation)",
		"Flag",
		"bull-flag breakout on Bull Flag",
	} {
		if Evaluate(candidate, history) == "" {
			t.Errorf("expected %q to match Bull Flag", candidate)
		}
	}
}

func TestEvaluateLastQualifyingMatchWins(t *testing.T) {
	history := models.StatsMapping{
		"Bear Flag": record(0, 3, 0),
		"Bull Flag": record(1, 4, 0),
		"Flag":      record(9, 1, 0),
	}

	// Keys are visited in order: Bear Flag, Bull Flag, Flag. Flag matches but
	// does not qualify, so Bull Flag's warning is kept.
	warning := Evaluate("Flag", history)
	if !strings.Contains(warning, `"Bull Flag"`) {
		t.Errorf("expected Bull Flag warning, got %q", warning)
	}
}

func TestEvaluateRoundsWinRate(t *testing.T) {
	history := models.StatsMapping{"Wedge": record(1, 2, 0)}

	warning := Evaluate("wedge", history)
	if !strings.Contains(warning, "33.3%") {
		t.Errorf("expected 33.3%% in %q", warning)
	}
}

func TestComparisonKey(t *testing.T) {
	tests := map[string]string{
		"Bull Flag":       "bull flag",
		"H&S (inverse)":   "hs inverse",
		"Hỗ trợ bật lên":  "h tr bt ln",
		"1-2-3 Reversal!": "123 reversal",
	}
	for in, want := range tests {
		if got := comparisonKey(in); got != want {
			t.Errorf("comparisonKey(%q) = %q, want %q", in, got, want)
		}
	}
}
