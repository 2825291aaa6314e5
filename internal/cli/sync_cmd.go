package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"rizesync/internal/core"
	"rizesync/internal/services"
)

// ErrNotesFailed is returned after a pass in which at least one note could
// not be written.
var ErrNotesFailed = errors.New("one or more notes failed to sync")

func newSyncCmd(g *globalFlags) *cobra.Command {
	var (
		sel     selectionFlags
		dateArg string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Write metrics into the daily and weekly notes once",
		Example: `  rizesync sync
  rizesync sync --days 7 --mode both
  rizesync sync --date 2026-10-12 --weekly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var date time.Time
			if dateArg != "" {
				d, err := core.ParseDay(dateArg, time.Local)
				if err != nil {
					return err
				}
				date = d
			}

			cfg, logger, err := g.setup(cmd, &sel)
			if err != nil {
				return err
			}

			ctx, cancel := GracefulShutdown(commandContext(cmd), logger)
			defer cancel()

			app := NewApp(ctx, cfg, logger)
			defer app.Close()

			sum, err := app.Sync.Run(ctx, services.SyncRequest{
				Mode:     cfg.Mode,
				Date:     date,
				Lookback: cfg.DaysLookback,
			})
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), sum)
			if sum.HasFailures() {
				return ErrNotesFailed
			}
			return nil
		},
	}

	sel.register(cmd.Flags())
	cmd.Flags().StringVar(&dateArg, "date", "", "Sync only this date (YYYY-MM-DD); ignores --days")

	return cmd
}

func printSummary(w io.Writer, sum services.RunSummary) {
	for _, d := range sum.FutureDates {
		fmt.Fprintf(w, "skipped   %s (in the future)\n", core.DayKey(d))
	}
	for _, n := range sum.Notes {
		line := fmt.Sprintf("%-9s %-6s %-10s %s", n.Status, n.Target.Kind, n.Target.Key, n.Path)
		if n.Err != nil {
			line += "  (" + n.Err.Error() + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "Run %s: %d written, %d skipped, %d failed\n",
		sum.RunID, sum.Written, sum.Skipped, sum.Failed)
}
