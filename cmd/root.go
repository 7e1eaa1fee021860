package cmd

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/pkg/rabbitmq"
	"clipnest-pipeline/server"
	"clipnest-pipeline/service"
	"context"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"os/signal"
	"syscall"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "clipnest-pipeline",
		Short:        "video ingest and enrichment pipeline",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serverCmd(config),
		migrate(config),
		drain(config),
		sweep(config),
		submit(config),
	)
	return rootCmd
}

func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(server.SetupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
}

// oneShotWaker publishes wakes to running servers when RabbitMQ is
// configured. Without it a running server still finds the work on its next
// idle poll.
func oneShotWaker(ctx context.Context, cfg *config.Config) (service.Waker, func()) {
	if !cfg.Queue.Enabled() {
		return service.NopWaker{}, func() {}
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("rabbitmq unavailable, not waking servers")
		return service.NopWaker{}, func() {}
	}
	waker, err := rabbitmq.NewWaker(conn, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("rabbitmq unavailable, not waking servers")
		_ = conn.Close()
		return service.NopWaker{}, func() {}
	}
	return waker, func() {
		_ = waker.Close()
		_ = conn.Close()
	}
}
