// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/talon/internal/config"
	"github.com/aidanlsb/talon/internal/ui"
)

var (
	// Global flags
	configPath string

	// Resolved configuration
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tln",
	Short: "Talon - rules-dump extraction and compendium resolution",
	Long: `Talon turns the combined 4e rules XML dump into a relational SQLite
store and reconciles its internal ids against the compendium catalog.

Two passes: 'extract' parses the dump standalone; 'resolve' verifies
every referenced id against the catalog and records the outcome.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ui.SetAccent(cfg.UI.Accent)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.config/talon/config.toml)")
}

// pick returns the flag value when set, otherwise the config default.
func pick(flag, fromConfig string) string {
	if flag != "" {
		return flag
	}
	return fromConfig
}

// requirePath resolves a path from flag or config and fails with guidance
// when neither is set.
func requirePath(flag, fromConfig, what, key string) (string, error) {
	if p := pick(flag, fromConfig); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no %s specified\n\nEither pass --%s or set %s in %s",
		what, key, key, config.DefaultPath())
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		return err
	}
	return nil
}
