package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/smmpanel/internal/adapter/events"
	"github.com/polkiloo/smmpanel/internal/config"
	"github.com/polkiloo/smmpanel/internal/observability"
	"github.com/polkiloo/smmpanel/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewPanelFacade,
		newHTTPServer,
		newOrderProcessor,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type workerParams struct {
	fx.In

	Facade    *PanelFacade
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Publisher events.Publisher
}

func newOrderProcessor(p workerParams) *worker.OrderProcessor {
	settings := worker.Settings{
		CycleInterval:   p.Config.CycleInterval,
		ErrorBackoff:    p.Config.ErrorBackoff,
		MinStep:         p.Config.MinStep,
		MaxStep:         p.Config.MaxStep,
		MinPause:        p.Config.MinPause,
		MaxPause:        p.Config.MaxPause,
		RecoverStranded: p.Config.RecoverStranded,
	}
	return worker.NewOrderProcessor(p.Facade, settings, p.Logger,
		worker.WithRandomizer(worker.NewRandomizer(p.Config.RandomSeed)),
		worker.WithMetrics(p.Metrics),
		worker.WithPublisher(p.Publisher),
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Worker     *worker.OrderProcessor
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting smm panel",
				slog.String("addr", p.Server.Addr),
				slog.String("storage", p.Config.StorageDriver))
			p.Worker.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("smm panel stopped")
			return nil
		},
	})
}
