// Package cli wires the cobra-based command surface from spec.md §6
// "External interfaces": a root command plus `build` and `watch`
// subcommands, with ambient `--config`, `--verbose`, and `--json-logs`
// flags that configure logging and config loading rather than engine
// semantics.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/loomweave/loom/internal/config"
	"github.com/loomweave/loom/internal/logging"
)

// Flags holds the persistent flag values shared by every subcommand.
type Flags struct {
	ConfigPath string
	Verbose    bool
	JSONLogs   bool
}

// NewRootCommand builds the `loom` root command.
func NewRootCommand() *cobra.Command {
	flags := &Flags{ConfigPath: "loom.config.yaml"}

	root := &cobra.Command{
		Use:           "loom",
		Short:         "loom builds a static site from a typed, incremental dependency graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", flags.ConfigPath, "path to loom.config.yaml")
	root.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "enable debug-level logging")
	root.PersistentFlags().BoolVar(&flags.JSONLogs, "json-logs", false, "emit logs as JSON lines")

	root.AddCommand(newBuildCommand(flags))
	root.AddCommand(newWatchCommand(flags))

	return root
}

func loadConfigAndLogger(flags *Flags) (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	level := logging.LevelInfo
	if flags.Verbose {
		level = logging.LevelDebug
	}
	log := logging.New(logging.Config{JSON: flags.JSONLogs, Level: level})

	return cfg, log, nil
}
