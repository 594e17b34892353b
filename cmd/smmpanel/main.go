package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"

	"github.com/polkiloo/smmpanel/internal/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	app := fx.New(
		fx.Provide(func() context.Context { return ctx }),
		di.Module(),
	)

	err := run(ctx, app, app.StopTimeout())
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "smmpanel: %v\n", err)
		os.Exit(1)
	}
}
