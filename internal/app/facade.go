package app

import (
	"context"

	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/usecase"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PanelFacade aggregates use cases for the HTTP layer and the processing engine.
type PanelFacade struct {
	orders    *usecase.OrderUseCase
	services  *usecase.ServiceUseCase
	lifecycle *usecase.LifecycleUseCase
	health    HealthChecker
}

func NewPanelFacade(orders *usecase.OrderUseCase, services *usecase.ServiceUseCase, lifecycle *usecase.LifecycleUseCase, health HealthChecker) *PanelFacade {
	return &PanelFacade{orders: orders, services: services, lifecycle: lifecycle, health: health}
}

func (f *PanelFacade) CreateOrder(ctx context.Context, serviceID int64, target string, quantity int) (*model.Order, error) {
	return f.orders.Create(ctx, serviceID, target, quantity)
}

func (f *PanelFacade) Order(ctx context.Context, id int64) (*model.Order, error) {
	return f.orders.Get(ctx, id)
}

func (f *PanelFacade) Orders(ctx context.Context) ([]model.Order, error) {
	return f.orders.List(ctx)
}

func (f *PanelFacade) Services(ctx context.Context) ([]model.Service, error) {
	return f.services.List(ctx)
}

func (f *PanelFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

func (f *PanelFacade) PendingOrders(ctx context.Context) ([]model.Order, error) {
	return f.lifecycle.Pending(ctx)
}

func (f *PanelFacade) StrandedOrders(ctx context.Context) ([]model.Order, error) {
	return f.lifecycle.Stranded(ctx)
}

func (f *PanelFacade) ClaimOrder(ctx context.Context, id int64) error {
	return f.lifecycle.Claim(ctx, id)
}

func (f *PanelFacade) CheckpointOrder(ctx context.Context, id int64, progress int) error {
	return f.lifecycle.Checkpoint(ctx, id, progress)
}

func (f *PanelFacade) CompleteOrder(ctx context.Context, id int64) error {
	return f.lifecycle.Complete(ctx, id)
}
