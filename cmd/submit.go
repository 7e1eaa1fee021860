package cmd

import (
	"clipnest-pipeline/config"
	"clipnest-pipeline/constant"
	"clipnest-pipeline/dto"
	"clipnest-pipeline/entities"
	"clipnest-pipeline/server"
	"fmt"
	"github.com/spf13/cobra"
)

func submit(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <video-url>",
		Short: "store a video url and route it into the pipeline",
		Args:  cobra.ExactArgs(1),
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

			videoURL := args[0]
			video := &entities.Video{VideoUrl: &videoURL}
			if err := app.Repo.CreateVideo(ctx, video); err != nil {
				return err
			}

			outcome, err := app.Router.Route(ctx, dto.Notification{
				Type:   constant.EventTypeInsert,
				Table:  video.TableName(),
				Record: dto.NotificationRecord{Id: video.ID, VideoUrl: &videoURL},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", video.ID, outcome)
			return nil
		},
	}
}
