package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"setup-memory/internal/agents"
	"setup-memory/internal/logging"
	"setup-memory/internal/memory"
	"setup-memory/internal/models"
)

const commandTimeout = 30 * time.Second

// addAnalyzeCommands adds the chart analysis and warning check commands.
func addAnalyzeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newCheckCmd(app))
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var asset, timeframe, title string

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Classify a chart screenshot with AI",
		Long: `Send a chart screenshot to the configured vision provider, classify the setup
and warn when your history with that setup is poor.`,
		Example: `  setup-memory analyze chart.png --asset BTC/USD --timeframe 4H
  setup-memory analyze eurusd.jpg --asset EUR/USD --timeframe 1H --title "TradingView"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			timeout := app.Config.AI.Timeout
			if timeout <= 0 {
				timeout = commandTimeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			image, mediaType, err := agents.LoadChartImage(args[0])
			if err != nil {
				return err
			}

			vision, err := app.NewVisionClient(agents.VisionConfigFrom(app.Config))
			if err != nil {
				return err
			}

			mem, err := app.OpenMemory()
			if err != nil {
				return err
			}

			if !output.IsJSON() {
				output.Dim("Analyzing with %s (%s)...", vision.Provider(), vision.Model())
			}

			start := time.Now()
			result, err := agents.NewAnalyzer(vision, mem, logging.FromContext(ctx)).AnalyzeChart(ctx, agents.ChartRequest{
				ImageBase64: image,
				MediaType:   mediaType,
				Asset:       asset,
				Timeframe:   timeframe,
				SourceTitle: title,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			renderAnalysis(output, result, time.Since(start))
			return nil
		},
	}

	cmd.Flags().StringVar(&asset, "asset", "Unknown", "asset symbol shown on the chart")
	cmd.Flags().StringVar(&timeframe, "timeframe", "Unknown", "chart timeframe (e.g. 15m, 4H, 1D)")
	cmd.Flags().StringVar(&title, "title", "", "source title passed to the model")

	return cmd
}

func renderAnalysis(output *Output, result *models.AnalysisResult, took time.Duration) {
	output.Println()
	output.Bold("Setup: %s", result.SetupType)
	output.Dim("%s · %s", FormatDateTime(result.Timestamp), FormatDuration(took))
	output.Println()

	if result.HasWarning() {
		output.Warning("⚠ %s", result.Warning)
		output.Println()
	}

	output.Box("Analysis", wrapLines(result.FullAnalysis, 76))
	output.Println()
	output.Dim("Educational use only. Not financial advice.")
}

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check <setup>",
		Short: "Check a setup against your history",
		Long:  "Run the history warning for a setup label without calling any AI provider.",
		Example: `  setup-memory check "head and shoulders"
  setup-memory check bull flag`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			mem, err := app.OpenMemory()
			if err != nil {
				return err
			}

			setup := strings.Join(args, " ")
			warning := mem.Check(ctx, setup)
			record, found := mem.GetStatsForSetup(ctx, setup)

			if output.IsJSON() {
				result := map[string]interface{}{
					"setupType":  setup,
					"normalized": memory.Normalize(setup),
					"warning":    warning,
				}
				if found {
					result["record"] = record
				}
				return output.JSON(result)
			}

			if found {
				output.Printf("%s: %s (%s win rate)\n", memory.Normalize(setup),
					FormatRecord(record.Wins, record.Losses, record.BreakEven),
					output.WinRate(record.WinRate(), record.Decided(), memory.WarningWinRate))
			}
			if warning != "" {
				output.Warning("⚠ %s", warning)
				return nil
			}
			output.Success("✓ No warning for %q", setup)
			return nil
		},
	}
}
