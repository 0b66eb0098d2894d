package agents

import (
	"fmt"
	"sort"
	"strings"

	"setup-memory/internal/memory"
	"setup-memory/internal/models"
)

// PromptInput carries the chart context and the trader's history summary.
type PromptInput struct {
	Asset       string
	Timeframe   string
	SourceTitle string
	History     map[string]models.SetupSummary
}

const defaultSourceTitle = "Chart"

// BuildPrompt renders the instruction sent alongside the chart image.
// The reply must open with a SETUP_TYPE line so ParseResponse can classify it.
func BuildPrompt(in PromptInput) string {
	source := strings.TrimSpace(in.SourceTitle)
	if source == "" {
		source = defaultSourceTitle
	}

	var sb strings.Builder

	sb.WriteString("You are a technical analysis expert. Analyze this chart and answer BRIEFLY.\n\n")
	sb.WriteString("**Context:**\n")
	fmt.Fprintf(&sb, "- Asset: %s\n", in.Asset)
	fmt.Fprintf(&sb, "- Timeframe: %s\n", in.Timeframe)
	fmt.Fprintf(&sb, "- Source: %s\n\n", source)

	sb.WriteString("**REQUIREMENTS:**\n")
	sb.WriteString("1. First line: \"SETUP_TYPE: [pattern classification]\" (e.g. \"Bull Flag\", \"Support Bounce\")\n\n")
	sb.WriteString("2. Answer these questions BRIEFLY (3-5 sentences):\n\n")
	sb.WriteString("**ACTION:** BUY, SELL or NO TRADE?\n\n")
	sb.WriteString("**TRADE ZONE:**\n")
	sb.WriteString("   - Where to enter?\n")
	sb.WriteString("   - Where to place the stop loss?\n")
	sb.WriteString("   - Profit target?\n\n")
	sb.WriteString("**RISK/REWARD:** What is the R/R ratio? (e.g. 1:2, 1:3)\n\n")

	if len(in.History) > 0 {
		writeHistory(&sb, in.History)
	}

	sb.WriteString("\n**NOTES:**\n")
	sb.WriteString("- For EDUCATIONAL purposes only, NOT financial advice\n")
	sb.WriteString("- Keep the answer SHORT (3-5 sentences)\n")
	sb.WriteString("- Focus on: BUY/SELL/NO TRADE? WHERE? STOP WHERE? R/R?\n\n")
	sb.WriteString("Analyze now.")

	return sb.String()
}

func writeHistory(sb *strings.Builder, history map[string]models.SetupSummary) {
	labels := make([]string, 0, len(history))
	for label := range history {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	sb.WriteString("\n**YOUR TRADING HISTORY:**\n")
	for _, label := range labels {
		s := history[label]
		total := s.Wins + s.Losses
		winRate := 0.0
		if total > 0 {
			winRate = float64(s.Wins) / float64(total) * 100
		}

		fmt.Fprintf(sb, "- %s: %d wins / %d losses (%.1f%% win rate)\n", label, s.Wins, s.Losses, winRate)
		if len(s.CommonMistakes) > 0 {
			fmt.Fprintf(sb, "  Common mistakes: %s\n", strings.Join(s.CommonMistakes, ", "))
		}
	}

	fmt.Fprintf(sb, "\n**IMPORTANT:** If the current pattern resembles a setup you often lose on (win rate < %.0f%%), WARN CLEARLY:\n", memory.WarningWinRate)
	sb.WriteString("\"WARNING: You have a losing history with the [name] pattern - [X] wins / [Y] losses ([Z]% win rate). Be cautious or skip this trade.\"\n\n")
}
