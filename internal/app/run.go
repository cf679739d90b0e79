package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context) error

// Run executes run until it returns or the process receives SIGINT/SIGTERM,
// and converts the outcome into an exit code.
func Run(log zerolog.Logger, run Runner) int {
	log.Info().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("failed")
		return 1
	}

	log.Info().Msg("stopped")
	return 0
}
