package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Storage is the repository facade backed by a single SQLite file.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type serviceRepository struct {
	storage *Storage
}

var _ repository.Factory = (*Storage)(nil)

// Open creates the database file and its directory if needed and applies
// WAL journaling and a busy timeout. The pool is limited to a single
// connection so every statement observes all previously committed writes.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// New opens the database at path, migrates it and seeds the catalog.
func New(ctx context.Context, path string, logger *slog.Logger) (*Storage, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	storage, err := NewWithDB(ctx, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

// NewWithDB prepares an already opened database.
func NewWithDB(ctx context.Context, db *sql.DB, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	storage := &Storage{db: db, logger: logger}
	if err := storage.seedServices(ctx, model.DefaultCatalog()); err != nil {
		return nil, err
	}
	return storage, nil
}

// Close releases the database handle.
func (s *Storage) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("close sqlite", slog.String("error", err.Error()))
		}
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

// HealthCheck verifies the database is reachable.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

// WithinTransaction executes fn inside a transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}

func (s *Storage) seedServices(ctx context.Context, catalog []model.Service) error {
	return s.WithinTransaction(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM services`).Scan(&count); err != nil {
			return fmt.Errorf("count services: %w", err)
		}
		if count > 0 {
			return nil
		}

		const insert = `INSERT INTO services (name, platform, price_per_1000, min_quantity, max_quantity)
                        VALUES (?, ?, ?, ?, ?)`
		for _, svc := range catalog {
			if _, err := tx.ExecContext(ctx, insert, svc.Name, svc.Platform, svc.PricePer1000, svc.MinQuantity, svc.MaxQuantity); err != nil {
				return fmt.Errorf("seed service %q: %w", svc.Name, err)
			}
		}
		s.logger.Info("service catalog seeded", slog.Int("services", len(catalog)))
		return nil
	})
}

const orderColumns = `id, service_type, platform, target_url, quantity, status, progress, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner, o *model.Order) error {
	return row.Scan(&o.ID, &o.ServiceType, &o.Platform, &o.TargetURL, &o.Quantity, &o.Status, &o.Progress, &o.CreatedAt, &o.UpdatedAt)
}

func (r *orderRepository) Create(ctx context.Context, in model.NewOrder) (*model.Order, error) {
	const query = `INSERT INTO orders (service_type, platform, target_url, quantity, status, progress, created_at, updated_at)
                   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	order := model.Order{
		ServiceType: in.ServiceType,
		Platform:    in.Platform,
		TargetURL:   in.TargetURL,
		Quantity:    in.Quantity,
		Status:      model.OrderStatusPending,
		Progress:    model.ProgressStart,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := r.storage.db.ExecContext(ctx, query, in.ServiceType, in.Platform, in.TargetURL, in.Quantity, order.Status, order.Progress, now, now)
	if err != nil {
		return nil, err
	}
	if order.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=?`
	var order model.Order
	if err := scanOrder(r.storage.db.QueryRowContext(ctx, query, id), &order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if filter.Status != "" {
		query := `SELECT ` + orderColumns + ` FROM orders WHERE status=? ORDER BY id`
		rows, err = r.storage.db.QueryContext(ctx, query, filter.Status)
	} else {
		query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`
		rows, err = r.storage.db.QueryContext(ctx, query)
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

func (r *orderRepository) Transition(ctx context.Context, id int64, t model.Transition) error {
	const query = `UPDATE orders SET status=?, progress=?, updated_at=?
                   WHERE id=? AND status=? AND progress <= ?`
	res, err := r.storage.db.ExecContext(ctx, query, t.To, t.Progress, time.Now().UTC(), id, t.From, t.Progress)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var status model.OrderStatus
	err = r.storage.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id=?`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("order %d is %s: %w", id, status, domainErrors.ErrInvalidTransition)
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error) {
	rows, err := r.storage.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
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

const serviceColumns = `id, name, platform, price_per_1000, min_quantity, max_quantity`

func scanService(row scanner, s *model.Service) error {
	return row.Scan(&s.ID, &s.Name, &s.Platform, &s.PricePer1000, &s.MinQuantity, &s.MaxQuantity)
}

func (r *serviceRepository) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.storage.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Service
	for rows.Next() {
		var s model.Service
		if err := scanService(rows, &s); err != nil {
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
	var s model.Service
	if err := scanService(r.storage.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id=?`, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainErrors.ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}
