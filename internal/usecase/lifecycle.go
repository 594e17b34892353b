package usecase

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
)

// LifecycleUseCase issues every order state transition. Only the processing
// engine is expected to call it.
type LifecycleUseCase struct {
	orders repository.OrderRepository
}

// NewLifecycleUseCase constructs LifecycleUseCase.
func NewLifecycleUseCase(orders repository.OrderRepository) *LifecycleUseCase {
	return &LifecycleUseCase{orders: orders}
}

// Pending returns a snapshot of pending orders in id order.
func (u *LifecycleUseCase) Pending(ctx context.Context) ([]model.Order, error) {
	return u.orders.List(ctx, model.OrderFilter{Status: model.OrderStatusPending})
}

// Stranded returns orders left in processing, in id order.
func (u *LifecycleUseCase) Stranded(ctx context.Context) ([]model.Order, error) {
	return u.orders.List(ctx, model.OrderFilter{Status: model.OrderStatusProcessing})
}

// Claim moves a pending order to processing.
func (u *LifecycleUseCase) Claim(ctx context.Context, id int64) error {
	return u.apply(ctx, id, model.Transition{
		From:     model.OrderStatusPending,
		To:       model.OrderStatusProcessing,
		Progress: model.ProgressStart,
	})
}

// Checkpoint records intermediate progress of a processing order. Progress 100
// is reserved for Complete.
func (u *LifecycleUseCase) Checkpoint(ctx context.Context, id int64, progress int) error {
	if progress < model.ProgressStart || progress >= model.ProgressDone {
		return fmt.Errorf("checkpoint %d: %w", progress, domainErrors.ErrInvalidProgress)
	}
	return u.apply(ctx, id, model.Transition{
		From:     model.OrderStatusProcessing,
		To:       model.OrderStatusProcessing,
		Progress: progress,
	})
}

// Complete finishes a processing order with progress pinned to 100.
func (u *LifecycleUseCase) Complete(ctx context.Context, id int64) error {
	return u.apply(ctx, id, model.Transition{
		From:     model.OrderStatusProcessing,
		To:       model.OrderStatusCompleted,
		Progress: model.ProgressDone,
	})
}

func (u *LifecycleUseCase) apply(ctx context.Context, id int64, t model.Transition) error {
	if !t.Valid() {
		return fmt.Errorf("%s -> %s at %d: %w", t.From, t.To, t.Progress, domainErrors.ErrInvalidTransition)
	}
	return u.orders.Transition(ctx, id, t)
}
