package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"rizesync/internal/amqp"
	"rizesync/internal/log"
	"rizesync/internal/worker"
)

func newEventsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print note.synced events from the AMQP queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup(cmd, nil)
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP is not configured (set AMQP_URL or amqp_url)")
			}

			ctx, cancel := GracefulShutdown(commandContext(cmd), logger)
			defer cancel()

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return err
			}
			defer client.Close()

			printer := worker.NewNoteEventPrinter(cmd.OutOrStdout())
			logger.InfoContext(ctx, "Waiting for note events", "queue", cfg.AMQPQueue)

			err = client.ConsumeNoteSynced(ctx, func(msg *amqp.NoteSyncedMessage) error {
				return printer.Handle(ctx, msg)
			})
			if ctx.Err() != nil {
				logger.InfoContext(ctx, "Stopped consuming note events", log.FieldOperation, log.OpShutdown)
				return nil
			}
			return err
		},
	}
}
