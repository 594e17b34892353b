package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
)

// pgxPool is the subset of *pgxpool.Pool used by the storage.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type serviceRepository struct {
	storage *Storage
}

var _ repository.Factory = (*Storage)(nil)

// New creates storage with schema initialization and catalog seeding.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   newSlogTracer(logger),
		LogLevel: tracelog.LogLevelDebug,
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := storage.seedServices(ctx, model.DefaultCatalog()); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Orders returns the order repository.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

// Services returns the service catalog repository.
func (s *Storage) Services() repository.ServiceRepository {
	return &serviceRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            service_type TEXT NOT NULL,
            platform TEXT NOT NULL,
            target_url TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            status TEXT NOT NULL DEFAULT 'pending',
            progress INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            platform TEXT NOT NULL,
            price_per_1000 DOUBLE PRECISION NOT NULL DEFAULT 0,
            min_quantity INTEGER NOT NULL DEFAULT 10,
            max_quantity INTEGER NOT NULL DEFAULT 10000
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

func (s *Storage) seedServices(ctx context.Context, catalog []model.Service) error {
	return s.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM services`).Scan(&count); err != nil {
			return fmt.Errorf("count services: %w", err)
		}
		if count > 0 {
			return nil
		}

		const insert = `INSERT INTO services (name, platform, price_per_1000, min_quantity, max_quantity)
                        VALUES ($1, $2, $3, $4, $5)`
		for _, svc := range catalog {
			if _, err := tx.Exec(ctx, insert, svc.Name, svc.Platform, svc.PricePer1000, svc.MinQuantity, svc.MaxQuantity); err != nil {
				return fmt.Errorf("seed service %q: %w", svc.Name, err)
			}
		}
		s.logger.Info("service catalog seeded", slog.Int("services", len(catalog)))
		return nil
	})
}

// --- OrderRepository implementation ---

const orderColumns = `id, service_type, platform, target_url, quantity, status, progress, created_at, updated_at`

func scanOrder(row pgx.Row, o *model.Order) error {
	return row.Scan(&o.ID, &o.ServiceType, &o.Platform, &o.TargetURL, &o.Quantity, &o.Status, &o.Progress, &o.CreatedAt, &o.UpdatedAt)
}

func (r *orderRepository) Create(ctx context.Context, in model.NewOrder) (*model.Order, error) {
	const query = `INSERT INTO orders (service_type, platform, target_url, quantity, status, progress)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   RETURNING id, created_at, updated_at`
	order := model.Order{
		ServiceType: in.ServiceType,
		Platform:    in.Platform,
		TargetURL:   in.TargetURL,
		Quantity:    in.Quantity,
		Status:      model.OrderStatusPending,
		Progress:    model.ProgressStart,
	}
	err := r.storage.pool.QueryRow(ctx, query, in.ServiceType, in.Platform, in.TargetURL, in.Quantity, order.Status, order.Progress).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	var order model.Order
	if err := scanOrder(r.storage.pool.QueryRow(ctx, query, id), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filter.Status != "" {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE status=$1 ORDER BY id`
		rows, err = r.storage.pool.Query(ctx, query, filter.Status)
	} else {
		query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`
		rows, err = r.storage.pool.Query(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Transition applies the status/progress write as one conditional UPDATE, so a
// concurrent reader sees either the old or the new row and never a mix.
func (r *orderRepository) Transition(ctx context.Context, id int64, t model.Transition) error {
	const query = `UPDATE orders SET status=$1, progress=$2, updated_at=NOW()
                   WHERE id=$3 AND status=$4 AND progress <= $2`
	tag, err := r.storage.pool.Exec(ctx, query, t.To, t.Progress, id, t.From)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status model.OrderStatus
	err = r.storage.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("order %d is %s: %w", id, status, domainErrors.ErrInvalidTransition)
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error) {
	rows, err := r.storage.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int)
	for rows.Next() {
		var (
			status model.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// --- ServiceRepository implementation ---

func (r *serviceRepository) List(ctx context.Context) ([]model.Service, error) {
	const query = `SELECT id, name, platform, price_per_1000, min_quantity, max_quantity FROM services ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Platform, &s.PricePer1000, &s.MinQuantity, &s.MaxQuantity); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *serviceRepository) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	const query = `SELECT id, name, platform, price_per_1000, min_quantity, max_quantity FROM services WHERE id=$1`
	var s model.Service
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Platform, &s.PricePer1000, &s.MinQuantity, &s.MaxQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
