package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/romariotrain/shortfeed/internal/logging"
	"github.com/romariotrain/shortfeed/internal/video/storeclient"
)

type commandContext struct {
	server   string
	token    string
	logLevel string
}

func (c *commandContext) client() (*storeclient.Client, error) {
	return storeclient.New(storeclient.Config{
		BaseURL:        c.server,
		ModeratorToken: c.token,
	})
}

func (c *commandContext) logger() zerolog.Logger {
	return logging.New("moderate", c.logLevel)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "moderate",
		Short:         "Review and decide on uploaded videos",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&ctx.server, "server", envOr("SHORTFEED_SERVER_URL", "http://localhost:8081"), "Base URL of the shortfeed API")
	rootCmd.PersistentFlags().StringVar(&ctx.token, "token", os.Getenv("SHORTFEED_MODERATOR_TOKEN"), "Moderator token")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newFeedCommand(ctx))
	rootCmd.AddCommand(newDecisionCommand(ctx, "approve", "Approve pending videos for the public feed"))
	rootCmd.AddCommand(newDecisionCommand(ctx, "ban", "Ban pending videos"))
	rootCmd.AddCommand(newDownloadCommand(ctx))

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
