package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"setup-memory/internal/errors"
	"setup-memory/internal/memory"
)

// addStatsCommands adds the statistics, export, import and clear commands.
func addStatsCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "stats [setup]",
		Short: "Show per-setup statistics",
		Long: `Show totals and a per-setup breakdown sorted by number of decided trades.
With a setup label, show that setup's full trade history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			mem, err := app.OpenMemory()
			if err != nil {
				return err
			}

			if len(args) > 0 {
				return showSetup(ctx, output, mem, strings.Join(args, " "))
			}
			return showSummary(ctx, output, mem)
		},
	}

	cmd.AddCommand(newStatsExportCmd(app))
	cmd.AddCommand(newStatsImportCmd(app))
	cmd.AddCommand(newStatsClearCmd(app))

	rootCmd.AddCommand(cmd)
}

func showSummary(ctx context.Context, output *Output, mem *memory.Memory) error {
	summary := mem.GetDisplaySummary(ctx)
	if output.IsJSON() {
		return output.JSON(summary)
	}

	if summary.TotalTrades == 0 {
		output.Info("No trades logged yet. Use 'setup-memory log <setup> <win|loss|be>' to start.")
		return nil
	}

	output.Bold("Trading Statistics")
	output.Printf("  Total trades: %d (%d W / %d L / %d BE)\n",
		summary.TotalTrades, summary.TotalWins, summary.TotalLosses, summary.TotalBreakEven)
	output.Printf("  Win rate:     %s\n",
		output.WinRate(summary.OverallWinRate, summary.TotalWins+summary.TotalLosses, memory.WarningWinRate))
	output.Println()

	table := NewTable(output, "SETUP", "TRADES", "W", "L", "BE", "WIN RATE")
	for _, row := range summary.SetupBreakdown {
		table.AddRow(
			TruncateString(row.SetupType, 32),
			fmt.Sprintf("%d", row.TotalTrades),
			fmt.Sprintf("%d", row.Wins),
			fmt.Sprintf("%d", row.Losses),
			fmt.Sprintf("%d", row.BreakEven),
			output.WinRate(row.WinRate, row.TotalTrades, memory.WarningWinRate),
		)
	}
	table.Render()
	return nil
}

func showSetup(ctx context.Context, output *Output, mem *memory.Memory, setup string) error {
	record, found := mem.GetStatsForSetup(ctx, setup)
	if !found {
		return errors.NewValidationError("setup", setup, "no trades logged for this setup")
	}
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"setupType": memory.Normalize(setup),
			"record":    record,
		})
	}

	output.Bold("%s", memory.Normalize(setup))
	output.Printf("  Record:   %s (W-L-BE)\n", FormatRecord(record.Wins, record.Losses, record.BreakEven))
	output.Printf("  Win rate: %s\n", output.WinRate(record.WinRate(), record.Decided(), memory.WarningWinRate))
	if len(record.CommonMistakes) > 0 {
		output.Printf("  Mistakes: %s\n", strings.Join(record.CommonMistakes, ", "))
	}
	output.Println()

	table := NewTable(output, "DATE", "OUTCOME", "NOTE")
	for _, trade := range record.Trades {
		table.AddRow(FormatDateTime(trade.Timestamp), string(trade.Outcome), TruncateString(trade.Note, 60))
	}
	table.Render()
	return nil
}

func newStatsExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export all statistics as JSON",
		Long:  "Write the full statistics mapping as indented JSON to a file, or to stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			mem, err := app.OpenMemory()
			if err != nil {
				return err
			}

			data, err := mem.ExportStats(ctx)
			if err != nil {
				return err
			}

			if len(args) == 0 || args[0] == "-" {
				output.Println(data)
				return nil
			}

			if err := os.WriteFile(args[0], []byte(data+"\n"), 0644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": args[0]})
			}
			output.Success("✓ Exported statistics to %s", args[0])
			return nil
		},
	}
}

func newStatsImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all statistics from a JSON export",
		Long:  "Replace the stored statistics with a previous export. Use '-' to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading import: %w", err)
			}

			mem, err := app.OpenMemory()
			if err != nil {
				return err
			}
			if err := mem.ImportStats(ctx, string(data)); err != nil {
				return err
			}

			count := len(mem.GetAll(ctx))
			if output.IsJSON() {
				return output.JSON(map[string]int{"setups": count})
			}
			output.Success("✓ Imported %d setups", count)
			return nil
		},
	}
}

func newStatsClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if !yes {
				return errors.NewValidationError("yes", false, "refusing to clear statistics without --yes")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			mem, err := app.OpenMemory()
			if err != nil {
				return err
			}
			if err := mem.ClearAll(ctx); err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]bool{"cleared": true})
			}
			output.Success("✓ All statistics cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every record")
	return cmd
}
