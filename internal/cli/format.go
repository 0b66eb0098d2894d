// Package cli provides the command-line interface for the setup memory.
package cli

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// FormatWinRate formats a win rate, or "n/a" when no trade was decided.
func FormatWinRate(rate float64, decided int) string {
	if decided == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", rate)
}

// FormatRecord formats win/loss/break-even counts as "W-L-BE".
func FormatRecord(wins, losses, breakEven int) string {
	return fmt.Sprintf("%d-%d-%d", wins, losses, breakEven)
}

// FormatDateTime formats a datetime in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02-Jan-2006 15:04")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

// TruncateString truncates a string to max runes with ellipsis.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// wrapLines splits text into lines no wider than width, breaking on spaces.
func wrapLines(text string, width int) []string {
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) > width {
				out = append(out, line)
				line = word
				continue
			}
			line += " " + word
		}
		out = append(out, line)
	}
	return out
}
