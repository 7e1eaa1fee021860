package cmd

import (
	"clipnest-pipeline/config"
	server2 "clipnest-pipeline/server"
	"github.com/spf13/cobra"
)

func serverCmd(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and stage workers",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
