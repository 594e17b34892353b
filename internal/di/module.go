package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/smmpanel/internal/adapter/events"
	"github.com/polkiloo/smmpanel/internal/app"
	"github.com/polkiloo/smmpanel/internal/config"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
	"github.com/polkiloo/smmpanel/internal/jobs"
	"github.com/polkiloo/smmpanel/internal/logger"
	"github.com/polkiloo/smmpanel/internal/observability"
	"github.com/polkiloo/smmpanel/internal/server/http/handlers"
	"github.com/polkiloo/smmpanel/internal/server/http/router"
	"github.com/polkiloo/smmpanel/internal/storage"
	"github.com/polkiloo/smmpanel/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		observability.Module,
		storage.Module,
		events.Module,
		usecase.Module,
		fx.Provide(func(f repository.Factory) app.HealthChecker { return f }),
		fx.Provide(func(f *app.PanelFacade) handlers.PanelFacade { return f }),
		jobs.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
