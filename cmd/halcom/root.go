package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcom/halcom/internal/config"
	"github.com/halcom/halcom/internal/oracle"
	"github.com/halcom/halcom/internal/store"
	"github.com/halcom/halcom/internal/ui"
)

var (
	cfgFile string
	dbPath  string
	noColor bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "halcom",
	Short: "Natural-language task and people management",
	Long: `halcom manages a roster of people and tasks through plain-language
commands. Tell it things like "add a task to prepare the quarterly
report, due next Friday" and it classifies the intent, extracts the
fields, and applies the change to a local SQLite database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if noColor {
			ui.SetColorEnabled(false)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to database file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")
}

// openStore opens the configured database and ensures the schema exists.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	s, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", cfg.Database.Path, err)
	}
	if err := s.InitSchema(cmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// buildOracle constructs the configured language model backend.
func buildOracle() (oracle.Oracle, error) {
	switch cfg.Oracle.Provider {
	case "ollama":
		return oracle.NewOllama(cfg.Oracle.OllamaURL, cfg.Oracle.OllamaModel), nil
	case "anthropic":
		return oracle.NewAnthropic("", cfg.Oracle.AnthropicModel), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
