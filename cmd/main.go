package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/desertthunder/autospoty/internal/shared"
	"github.com/desertthunder/autospoty/internal/ui"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger, Prompter: ui.NewTerminal()})
	app := newApp(runner)

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, ui.ErrInterrupted), errors.Is(err, context.Canceled):
			runner.logger.Info("interrupted")
			os.Exit(130)
		default:
			runner.logger.Fatalf("application error: %v", err)
		}
	}
}
