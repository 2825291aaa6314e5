package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rizesync/internal/config"
	"rizesync/internal/log"
)

// globalFlags are shared by every command through persistent flags.
type globalFlags struct {
	configPath string
	vaultPath  string
	logLevel   string
}

// NewRootCmd creates the top-level "rizesync" command and registers all
// subcommands.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "rizesync",
		Short: "Sync Rize time-tracking metrics into Obsidian notes",
		Long: `rizesync fetches daily metrics from the Rize API and writes them into the
daily and weekly notes of an Obsidian vault. The metrics section of a note is
replaced in place on every run; everything else in the note is left alone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultConfigFile, "Path to the YAML config file")
	root.PersistentFlags().StringVar(&g.vaultPath, "vault", "", "Obsidian vault path (overrides config)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newSyncCmd(g),
		newWatchCmd(g),
		newStatusCmd(g),
		newConfigCmd(g),
		newEventsCmd(g),
	)

	return root
}

// selectionFlags are the flags that narrow what a pass syncs.
type selectionFlags struct {
	days   int
	mode   string
	weekly bool
}

func (s *selectionFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&s.days, "days", 0, "Also sync this many days before today (overrides config)")
	fs.StringVar(&s.mode, "mode", "", "Which notes to write: daily, weekly or both (overrides config)")
	fs.BoolVar(&s.weekly, "weekly", false, "Write weekly notes (shorthand for --mode weekly)")
}

// overrides collects the flags the user actually set.
func (g *globalFlags) overrides(cmd *cobra.Command, sel *selectionFlags) config.Overrides {
	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("vault") {
		o.VaultPath = &g.vaultPath
	}
	if sel != nil {
		if flags.Changed("days") {
			o.Days = &sel.days
		}
		if flags.Changed("mode") {
			o.Mode = &sel.mode
		}
		o.Weekly = sel.weekly
	}
	return o
}

// setup resolves and validates the configuration, then builds the logger
// at the configured level.
func (g *globalFlags) setup(cmd *cobra.Command, sel *selectionFlags) (*config.Config, *log.Logger, error) {
	cfg, err := LoadAndValidateConfig(g.configPath, cmd.Flags().Changed("config"), g.overrides(cmd, sel))
	if err != nil {
		return nil, nil, err
	}
	level := cfg.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger, err := SetupLogger(level, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
