package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"setup-memory/internal/agents"
	"setup-memory/internal/config"
	"setup-memory/internal/logging"
	"setup-memory/internal/memory"
	"setup-memory/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.KVStore
	Memory *memory.Memory

	// NewVisionClient builds the provider client for analyze.
	NewVisionClient func(agents.VisionConfig) (agents.VisionClient, error)
}

// NewApp creates an App wired to the real vision providers.
func NewApp() *App {
	return &App{
		Logger:          zerolog.Nop(),
		NewVisionClient: agents.NewVisionClient,
	}
}

// OpenMemory opens the configured store on first use.
func (a *App) OpenMemory() (*memory.Memory, error) {
	if a.Memory != nil {
		return a.Memory, nil
	}

	kv, err := store.Open(a.Config.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", a.Config.Storage.Backend, err)
	}
	a.Logger.Debug().Str("backend", a.Config.Storage.Backend).Msg("Store initialized")

	a.Store = kv
	a.Memory = memory.New(kv, a.Logger)
	return a.Memory, nil
}

// Close releases the store, if one was opened.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	a.Memory = nil
	return err
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "setup-memory",
		Short: "Setup Memory - remembers how your chart setups actually play out",
		Long: `Setup Memory records the outcome of every trade per chart setup, learns the
mistakes you keep repeating and warns you when an AI chart analysis classifies
a setup you have a poor track record with.

Use 'setup-memory analyze <chart.png>' to classify a chart screenshot.
Use 'setup-memory log <setup> <win|loss|be>' to record an outcome.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				configDir, _ := cmd.Flags().GetString("config")
				cfg, err := config.Load(configDir)
				if err != nil {
					return err
				}
				app.Config = cfg
				app.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())
			}

			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			cmd.SetContext(logging.WithLogger(cmd.Context(), app.Logger))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/setup-memory)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	addAnalyzeCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)
	addStatsCommands(rootCmd, app)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Setup Memory v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(configView(app.Config))
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.Dir()})
			}
			output.Println(app.Config.Dir())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			keyErr := config.ValidateAPIKey(app.Config.AI.Provider, app.Config.APIKey())

			if output.IsJSON() {
				result := map[string]interface{}{"valid": true, "api_key_valid": keyErr == nil}
				if keyErr != nil {
					result["api_key_error"] = keyErr.Error()
				}
				return output.JSON(result)
			}

			output.Success("✓ Configuration is valid")
			if keyErr != nil {
				output.Warning("⚠ %v", keyErr)
			} else {
				output.Success("✓ API key looks valid for %s", app.Config.AI.Provider)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "providers",
		Short: "List supported vision providers and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			providers := config.Providers()
			if output.IsJSON() {
				return output.JSON(providers)
			}

			table := NewTable(output, "PROVIDER", "MODEL", "NAME", "KEY PREFIX")
			for _, p := range providers {
				for _, m := range p.Models {
					table.AddRow(p.ID, m.ID, m.Name, p.APIKeyPrefix)
				}
			}
			table.Render()
			return nil
		},
	})

	return cmd
}

// configView is the printable configuration with the API key masked.
func configView(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"dir":     cfg.Dir(),
		"ai":      cfg.AI,
		"model":   cfg.Model(),
		"api_key": config.MaskAPIKey(cfg.APIKey()),
		"storage": map[string]interface{}{
			"backend":      cfg.Storage.Backend,
			"sqlite_path":  cfg.Storage.SQLitePath,
			"badger_dir":   cfg.Storage.BadgerDir,
			"redis_addr":   cfg.Storage.RedisAddr,
			"redis_db":     cfg.Storage.RedisDB,
			"redis_prefix": cfg.Storage.RedisPrefix,
		},
		"logging": cfg.Logging,
	}
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("AI Configuration")
	output.Printf("  Provider:     %s\n", cfg.AI.Provider)
	output.Printf("  Model:        %s\n", cfg.Model())
	output.Printf("  API Key:      %s\n", config.MaskAPIKey(cfg.APIKey()))
	output.Printf("  Max Tokens:   %d\n", cfg.AI.MaxTokens)
	output.Printf("  Temperature:  %.1f\n", cfg.AI.Temperature)
	output.Printf("  Timeout:      %s\n", cfg.AI.Timeout)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Backend:      %s\n", cfg.Storage.Backend)
	switch cfg.Storage.Backend {
	case store.BackendSQLite:
		output.Printf("  Path:         %s\n", cfg.Storage.SQLitePath)
	case store.BackendBadger:
		output.Printf("  Directory:    %s\n", cfg.Storage.BadgerDir)
	case store.BackendRedis:
		output.Printf("  Address:      %s (db %d)\n", cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
		output.Printf("  Prefix:       %s\n", cfg.Storage.RedisPrefix)
	}
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:        %s\n", cfg.Logging.Level)
	output.Printf("  File:         %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)
}
