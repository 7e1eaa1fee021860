package cmd

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/server"
	"clipnest-pipeline/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func drain(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "process every queued job until all stages are idle, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(config)
			defer cancel()

			app, err := server.NewApp(ctx, config, service.NopWaker{})
			if err != nil {
				return err
			}
			defer app.Close()

			totals, err := service.DrainAll(ctx, app.Pipeline.Workers())
			event := zerolog.Ctx(ctx).Info()
			for stage, n := range totals {
				event = event.Int(stage.String(), n)
			}
			event.Msg("drain finished")
			return err
		},
	}
}
