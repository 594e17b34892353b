package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	db, err := Open(MemoryPath)
	require.NoError(t, err)

	storage, err := NewWithDB(context.Background(), db, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(storage.Close)
	return storage
}

func newOrder(target string) model.NewOrder {
	return model.NewOrder{ServiceType: "Instagram Likes", Platform: "Instagram", TargetURL: target, Quantity: 100}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestNewOnFileMigratesAndSeedsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "smm.db")
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	first, err := New(context.Background(), path, logger)
	require.NoError(t, err)
	created, err := first.Orders().Create(context.Background(), newOrder("http://x"))
	require.NoError(t, err)
	first.Close()

	second, err := New(context.Background(), path, logger)
	require.NoError(t, err)
	defer second.Close()

	services, err := second.Services().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, services, len(model.DefaultCatalog()))

	got, err := second.Orders().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://x", got.TargetURL)
}

func TestSchemaVersion(t *testing.T) {
	storage := newTestStorage(t)

	version, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestServiceCatalogSeeded(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	services, err := storage.Services().List(ctx)
	require.NoError(t, err)
	require.Len(t, services, 8)

	platforms := map[string]int{}
	for _, svc := range services {
		platforms[svc.Platform]++
	}
	assert.Equal(t, 3, platforms["Instagram"])
	assert.Equal(t, 3, platforms["TikTok"])
	assert.Equal(t, 2, platforms["Telegram"])

	svc, err := storage.Services().GetByID(ctx, services[0].ID)
	require.NoError(t, err)
	assert.Equal(t, services[0], *svc)

	_, err = storage.Services().GetByID(ctx, 999)
	assert.ErrorIs(t, err, domainErrors.ErrServiceNotFound)
}

func TestOrderCreateAndGet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	repo := storage.Orders()

	first, err := repo.Create(ctx, newOrder("http://a"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, newOrder("http://b"))
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
	assert.Equal(t, model.OrderStatusPending, first.Status)
	assert.Equal(t, model.ProgressStart, first.Progress)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://a", got.TargetURL)
	assert.Equal(t, 100, got.Quantity)
	assert.Equal(t, model.OrderStatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestOrderListOrdering(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	repo := storage.Orders()

	empty, err := repo.List(ctx, model.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	var ids []int64
	for _, target := range []string{"http://1", "http://2", "http://3"} {
		o, err := repo.Create(ctx, newOrder(target))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	require.NoError(t, repo.Transition(ctx, ids[1], model.Transition{From: model.OrderStatusPending, To: model.OrderStatusProcessing}))

	all, err := repo.List(ctx, model.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	pending, err := repo.List(ctx, model.OrderFilter{Status: model.OrderStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[0], pending[0].ID)
	assert.Equal(t, ids[2], pending[1].ID)
}

func TestOrderTransitionLifecycle(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	repo := storage.Orders()

	o, err := repo.Create(ctx, newOrder("http://x"))
	require.NoError(t, err)

	require.NoError(t, repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusPending, To: model.OrderStatusProcessing, Progress: 0}))
	require.NoError(t, repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusProcessing, Progress: 40}))

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, got.Status)
	assert.Equal(t, 40, got.Progress)

	err = repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusProcessing, Progress: 20})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	err = repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusPending, To: model.OrderStatusProcessing, Progress: 0})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	require.NoError(t, repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusCompleted, Progress: 100}))

	got, err = repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	err = repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusCompleted, Progress: 100})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	err = repo.Transition(ctx, 424242, model.Transition{From: model.OrderStatusPending, To: model.OrderStatusProcessing})
	assert.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestCountByStatus(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	repo := storage.Orders()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, newOrder("http://x"))
		require.NoError(t, err)
	}
	require.NoError(t, repo.Transition(ctx, 1, model.Transition{From: model.OrderStatusPending, To: model.OrderStatusProcessing}))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.OrderStatusPending])
	assert.Equal(t, 1, counts[model.OrderStatusProcessing])
	assert.Equal(t, 0, counts[model.OrderStatusCompleted])
}

func TestConcurrentReadersSeeMonotonicProgress(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	repo := storage.Orders()

	o, err := repo.Create(ctx, newOrder("http://x"))
	require.NoError(t, err)
	require.NoError(t, repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusPending, To: model.OrderStatusProcessing}))

	done := make(chan struct{})
	var wg sync.WaitGroup
	errs := make(chan string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := -1
			for {
				select {
				case <-done:
					return
				default:
				}
				got, err := repo.GetByID(ctx, o.ID)
				if err != nil {
					errs <- err.Error()
					return
				}
				if got.Progress < last {
					errs <- "progress decreased"
					return
				}
				if (got.Progress == model.ProgressDone) != (got.Status == model.OrderStatusCompleted) {
					errs <- "progress and status disagree"
					return
				}
				last = got.Progress
			}
		}()
	}

	for p := 10; p < 100; p += 10 {
		require.NoError(t, repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusProcessing, Progress: p}))
	}
	require.NoError(t, repo.Transition(ctx, o.ID, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusCompleted, Progress: 100}))
	close(done)
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Fatal(msg)
	}
}

func TestHealthCheckAndClose(t *testing.T) {
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	storage, err := NewWithDB(context.Background(), db, nil)
	require.NoError(t, err)

	require.NoError(t, storage.HealthCheck(context.Background()))
	storage.Close()
	assert.Error(t, storage.HealthCheck(context.Background()))
}
