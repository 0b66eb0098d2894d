package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"setup-memory/internal/errors"
	"setup-memory/internal/memory"
	"setup-memory/internal/models"
)

// addJournalCommands adds the trade outcome journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLogCmd(app))
}

func newLogCmd(app *App) *cobra.Command {
	var note, at string

	cmd := &cobra.Command{
		Use:   "log <setup> <win|loss|be>",
		Short: "Record a trade outcome for a setup",
		Long: `Record the outcome of a trade taken on a setup. The setup label is normalized,
so "bull flag" and "Bull Flag" share one record. Notes on losses are scanned for
common mistakes such as FOMO or a stop loss that was too tight.`,
		Example: `  setup-memory log "bull flag" win
  setup-memory log head and shoulders loss --note "entered too early, FOMO"
  setup-memory log wedge be --at 2024-05-02`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			setup := strings.Join(args[:len(args)-1], " ")
			outcome, ok := models.ParseOutcome(args[len(args)-1])
			if !ok {
				return errors.NewValidationError("outcome", args[len(args)-1], "must be one of win, loss, be")
			}

			timestamp, err := parseTimestamp(at)
			if err != nil {
				return err
			}

			mem, err := app.OpenMemory()
			if err != nil {
				return err
			}

			if err := mem.LogTrade(ctx, memory.TradeInput{
				SetupType: setup,
				Outcome:   outcome,
				Note:      note,
				Timestamp: timestamp,
			}); err != nil {
				return err
			}

			record, _ := mem.GetStatsForSetup(ctx, setup)
			warning := mem.Check(ctx, setup)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"setupType": memory.Normalize(setup),
					"outcome":   outcome,
					"record":    record,
					"warning":   warning,
				})
			}

			output.Success("✓ Logged %s on %s", outcome, memory.Normalize(setup))
			if record != nil {
				output.Printf("  Record:   %s (W-L-BE)\n", FormatRecord(record.Wins, record.Losses, record.BreakEven))
				output.Printf("  Win rate: %s\n", output.WinRate(record.WinRate(), record.Decided(), memory.WarningWinRate))
				if len(record.CommonMistakes) > 0 {
					output.Printf("  Mistakes: %s\n", strings.Join(record.CommonMistakes, ", "))
				}
			}
			if warning != "" {
				output.Println()
				output.Warning("⚠ %s", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "free-text note, scanned for mistakes on losses")
	cmd.Flags().StringVar(&at, "at", "", "trade time (RFC3339 or YYYY-MM-DD, default now)")

	return cmd
}

// parseTimestamp accepts RFC3339 or a plain date; empty means now.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.NewValidationError("at", s, "expected RFC3339 or YYYY-MM-DD")
}
