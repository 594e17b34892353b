package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// application is the part of *fx.App that run drives.
type application interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Done() <-chan os.Signal
}

// run starts app and blocks until ctx is cancelled or fx observes a signal.
// Stopping gets a fresh context bounded by stopTimeout so hooks still run
// after ctx is gone.
func run(ctx context.Context, app application, stopTimeout time.Duration) error {
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down", slog.String("reason", context.Cause(ctx).Error()))
	case sig := <-app.Done():
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}
