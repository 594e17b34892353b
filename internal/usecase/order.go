package usecase

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
)

// OrderUseCase covers client-facing order operations. It never advances order state.
type OrderUseCase struct {
	orders   repository.OrderRepository
	services repository.ServiceRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, services repository.ServiceRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders, services: services}
}

// Create validates the request and stores a pending order labelled with the
// resolved service.
func (u *OrderUseCase) Create(ctx context.Context, serviceID int64, target string, quantity int) (*model.Order, error) {
	target, ok := NormalizeTarget(target)
	if !ok {
		return nil, domainErrors.ErrInvalidTarget
	}
	if !ValidateQuantity(quantity) {
		return nil, domainErrors.ErrInvalidQuantity
	}

	svc, err := u.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.AcceptsQuantity(quantity) {
		return nil, fmt.Errorf("%s accepts %d..%d: %w", svc.Name, svc.MinQuantity, svc.MaxQuantity, domainErrors.ErrQuantityOutOfRange)
	}

	return u.orders.Create(ctx, model.NewOrder{
		ServiceType: svc.Name,
		Platform:    svc.Platform,
		TargetURL:   target,
		Quantity:    quantity,
	})
}

// Get returns the current order row.
func (u *OrderUseCase) Get(ctx context.Context, id int64) (*model.Order, error) {
	return u.orders.GetByID(ctx, id)
}

// List returns all orders, newest first.
func (u *OrderUseCase) List(ctx context.Context) ([]model.Order, error) {
	return u.orders.List(ctx, model.OrderFilter{})
}
