package main

import (
	"context"
	"fmt"
	"os"

	"github.com/romariotrain/shortfeed/internal/app"
	"github.com/romariotrain/shortfeed/internal/config"
	"github.com/romariotrain/shortfeed/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logging.New("shortfeed", cfg.LogLevel)
	os.Exit(app.Run(log, func(ctx context.Context) error {
		return run(ctx, cfg, log)
	}))
}
