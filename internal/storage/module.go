package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/smmpanel/internal/config"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
	"github.com/polkiloo/smmpanel/internal/storage/cache"
	"github.com/polkiloo/smmpanel/internal/storage/postgres"
	"github.com/polkiloo/smmpanel/internal/storage/sqlite"
)

// Module wires the configured storage backend and its repositories.
var Module = fx.Options(
	fx.Provide(NewFactory),
	fx.Provide(
		func(f repository.Factory) repository.OrderRepository { return f.Orders() },
		newServiceRepository,
	),
	fx.Invoke(registerLifecycle),
)

type factoryParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewFactory opens the storage backend selected by configuration.
func NewFactory(p factoryParams) (repository.Factory, error) {
	switch p.Config.StorageDriver {
	case config.StoragePostgres:
		s, err := postgres.New(p.Ctx, p.Config.DatabaseURI, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Logger.Info("storage opened", slog.String("driver", config.StoragePostgres))
		return s, nil
	case config.StorageSQLite, "":
		s, err := sqlite.New(p.Ctx, p.Config.SQLitePath, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Logger.Info("storage opened", slog.String("driver", config.StorageSQLite), slog.String("path", p.Config.SQLitePath))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", p.Config.StorageDriver)
	}
}

func newServiceRepository(f repository.Factory, cfg *config.Config) (repository.ServiceRepository, error) {
	if cfg.CatalogCacheSize <= 0 {
		return f.Services(), nil
	}
	return cache.NewCatalog(f.Services(), cfg.CatalogCacheSize)
}

func registerLifecycle(lc fx.Lifecycle, f repository.Factory, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			f.Close()
			logger.Info("storage closed")
			return nil
		},
	})
}
