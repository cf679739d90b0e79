package main

import (
	"github.com/spf13/cobra"

	"github.com/romariotrain/shortfeed/internal/video/feed"
	"github.com/romariotrain/shortfeed/internal/video/moderation"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List videos awaiting review, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			ctrl := moderation.NewController(client, ctx.logger())
			videos, err := ctrl.LoadQueue(cmd.Context())
			if err != nil {
				return err
			}
			printVideos(cmd.OutOrStdout(), videos, "Queue is empty")
			return nil
		},
	}
}

func newFeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "List the public feed, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			videos, err := feed.NewLoader(client).Load(cmd.Context())
			if err != nil {
				return err
			}
			printVideos(cmd.OutOrStdout(), videos, "Feed is empty")
			return nil
		},
	}
}
