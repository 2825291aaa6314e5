package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"rizesync/internal/services"
	"rizesync/internal/worker"
)

// stopTimeout bounds how long a stop waits for the running pass.
const stopTimeout = 30 * time.Second

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		sel      selectionFlags
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync now and then again on every interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup(cmd, &sel)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.WatchInterval = interval
			}

			ctx, cancel := GracefulShutdown(commandContext(cmd), logger)
			defer cancel()

			app := NewApp(ctx, cfg, logger)
			defer app.Close()

			w := worker.NewWatcher(app.Sync, app.Sweeper, worker.WatcherConfig{
				Interval: cfg.WatchInterval,
				Request: services.SyncRequest{
					Mode:     cfg.Mode,
					Lookback: cfg.DaysLookback,
				},
			})
			if err := w.Start(ctx); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
			case <-w.Done():
			}

			stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
			defer stopCancel()
			return w.Stop(stopCtx)
		},
	}

	sel.register(cmd.Flags())
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between passes (overrides config)")

	return cmd
}
