package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/romariotrain/shortfeed/internal/video/playback"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <video-id>",
		Short: "Save a video file to disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid video id %q", args[0])
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			v, err := client.GetVideo(cmd.Context(), id)
			if err != nil {
				return err
			}
			path, err := playback.NewDownloader(nil, dir).Download(cmd.Context(), *v)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Destination directory")
	return cmd
}
