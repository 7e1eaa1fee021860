package cmd

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/repository"
	"github.com/spf13/cobra"
)

func migrate(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(config)
			defer cancel()

			return repository.Migrate(ctx, config.DB)
		},
	}
}
