package cmd

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func sweep(config *config.Config) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "route stored videos that were never picked up",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(config)
			defer cancel()

			waker, closeWaker := oneShotWaker(ctx, config)
			defer closeWaker()

			app, err := server.NewApp(ctx, config, waker)
			if err != nil {
				return err
			}
			defer app.Close()

			total := 0
			for {
				n, err := app.Router.Sweep(ctx, batch)
				if err != nil {
					return err
				}
				total += n
				if n < batch {
					break
				}
			}
			zerolog.Ctx(ctx).Info().Int("routed", total).Msg("sweep finished")
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", config.Pipeline.SweepBatch, "rows per sweep pass")
	return cmd
}
