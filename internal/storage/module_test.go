package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/smmpanel/internal/config"
	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
	"github.com/polkiloo/smmpanel/internal/storage/cache"
	"github.com/polkiloo/smmpanel/internal/storage/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewFactorySelectsSQLite(t *testing.T) {
	f, err := NewFactory(factoryParams{
		Ctx:    context.Background(),
		Config: &config.Config{StorageDriver: config.StorageSQLite, SQLitePath: sqlite.MemoryPath},
		Logger: testLogger(),
	})
	require.NoError(t, err)
	defer f.Close()

	_, ok := f.(*sqlite.Storage)
	assert.True(t, ok)
	assert.NoError(t, f.HealthCheck(context.Background()))
}

func TestNewFactoryRejectsUnknownDriver(t *testing.T) {
	_, err := NewFactory(factoryParams{
		Ctx:    context.Background(),
		Config: &config.Config{StorageDriver: "mysql"},
		Logger: testLogger(),
	})
	assert.Error(t, err)
}

func TestNewFactoryPostgresParseError(t *testing.T) {
	_, err := NewFactory(factoryParams{
		Ctx:    context.Background(),
		Config: &config.Config{StorageDriver: config.StoragePostgres, DatabaseURI: ":://bad"},
		Logger: testLogger(),
	})
	assert.Error(t, err)
}

func TestModuleWiresCachedCatalog(t *testing.T) {
	cfg := &config.Config{
		StorageDriver:    config.StorageSQLite,
		SQLitePath:       filepath.Join(t.TempDir(), "smm.db"),
		CatalogCacheSize: 8,
	}

	var (
		orders   repository.OrderRepository
		services repository.ServiceRepository
	)
	app := fxtest.New(t,
		fx.Supply(cfg, testLogger()),
		fx.Provide(func() context.Context { return context.Background() }),
		Module,
		fx.Populate(&orders, &services),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, ok := services.(*cache.Catalog)
	assert.True(t, ok)

	list, err := services.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8)

	all, err := orders.List(context.Background(), model.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestModuleSkipsCatalogCacheWhenDisabled(t *testing.T) {
	cfg := &config.Config{
		StorageDriver: config.StorageSQLite,
		SQLitePath:    filepath.Join(t.TempDir(), "smm.db"),
	}

	var services repository.ServiceRepository
	app := fxtest.New(t,
		fx.Supply(cfg, testLogger()),
		fx.Provide(func() context.Context { return context.Background() }),
		Module,
		fx.Populate(&services),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, cached := services.(*cache.Catalog)
	assert.False(t, cached)

	list, err := services.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8)
}
