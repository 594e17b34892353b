package repository

import (
	"context"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
type OrderRepository interface {
	Create(ctx context.Context, order model.NewOrder) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	Transition(ctx context.Context, id int64, t model.Transition) error
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error)
}
