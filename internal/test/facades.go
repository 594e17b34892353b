package test

import (
	"context"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// PanelFacadeStub provides controllable behaviour for HTTP handlers.
type PanelFacadeStub struct {
	CreateFn   func(context.Context, int64, string, int) (*model.Order, error)
	OrderFn    func(context.Context, int64) (*model.Order, error)
	OrdersFn   func(context.Context) ([]model.Order, error)
	ServicesFn func(context.Context) ([]model.Service, error)
	HealthErr  error
}

// CreateOrder delegates to provided function or returns a pending order.
func (s PanelFacadeStub) CreateOrder(ctx context.Context, serviceID int64, target string, quantity int) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, serviceID, target, quantity)
	}
	return &model.Order{ID: 1, TargetURL: target, Quantity: quantity, Status: model.OrderStatusPending}, nil
}

// Order returns the configured order.
func (s PanelFacadeStub) Order(ctx context.Context, id int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, id)
	}
	return &model.Order{ID: id, Status: model.OrderStatusPending}, nil
}

// Orders returns predefined orders.
func (s PanelFacadeStub) Orders(ctx context.Context) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx)
	}
	return []model.Order{{ID: 1, Status: model.OrderStatusPending}}, nil
}

// Services returns the configured catalog.
func (s PanelFacadeStub) Services(ctx context.Context) ([]model.Service, error) {
	if s.ServicesFn != nil {
		return s.ServicesFn(ctx)
	}
	return NewServiceRepositoryStub().Services, nil
}

// HealthCheck returns configured error.
func (s PanelFacadeStub) HealthCheck(context.Context) error {
	return s.HealthErr
}

// LifecycleFacadeStub drives an OrderRepositoryStub through the engine facade.
// Fn fields override single operations.
type LifecycleFacadeStub struct {
	Repo         *OrderRepositoryStub
	PendingFn    func(context.Context) ([]model.Order, error)
	StrandedFn   func(context.Context) ([]model.Order, error)
	ClaimFn      func(context.Context, int64) error
	CheckpointFn func(context.Context, int64, int) error
	CompleteFn   func(context.Context, int64) error
}

// NewLifecycleFacadeStub wraps a fresh in-memory repository.
func NewLifecycleFacadeStub() *LifecycleFacadeStub {
	return &LifecycleFacadeStub{Repo: NewOrderRepositoryStub()}
}

func (s *LifecycleFacadeStub) PendingOrders(ctx context.Context) ([]model.Order, error) {
	if s.PendingFn != nil {
		return s.PendingFn(ctx)
	}
	return s.Repo.List(ctx, model.OrderFilter{Status: model.OrderStatusPending})
}

func (s *LifecycleFacadeStub) StrandedOrders(ctx context.Context) ([]model.Order, error) {
	if s.StrandedFn != nil {
		return s.StrandedFn(ctx)
	}
	return s.Repo.List(ctx, model.OrderFilter{Status: model.OrderStatusProcessing})
}

func (s *LifecycleFacadeStub) ClaimOrder(ctx context.Context, id int64) error {
	if s.ClaimFn != nil {
		return s.ClaimFn(ctx, id)
	}
	return s.Repo.Transition(ctx, id, model.Transition{From: model.OrderStatusPending, To: model.OrderStatusProcessing, Progress: model.ProgressStart})
}

func (s *LifecycleFacadeStub) CheckpointOrder(ctx context.Context, id int64, progress int) error {
	if s.CheckpointFn != nil {
		return s.CheckpointFn(ctx, id, progress)
	}
	return s.Repo.Transition(ctx, id, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusProcessing, Progress: progress})
}

func (s *LifecycleFacadeStub) CompleteOrder(ctx context.Context, id int64) error {
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, id)
	}
	return s.Repo.Transition(ctx, id, model.Transition{From: model.OrderStatusProcessing, To: model.OrderStatusCompleted, Progress: model.ProgressDone})
}
