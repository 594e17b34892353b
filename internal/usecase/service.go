package usecase

import (
	"context"

	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
)

// ServiceUseCase exposes the read-only service catalog.
type ServiceUseCase struct {
	services repository.ServiceRepository
}

func NewServiceUseCase(services repository.ServiceRepository) *ServiceUseCase {
	return &ServiceUseCase{services: services}
}

func (u *ServiceUseCase) List(ctx context.Context) ([]model.Service, error) {
	return u.services.List(ctx)
}

func (u *ServiceUseCase) Get(ctx context.Context, id int64) (*model.Service, error) {
	return u.services.GetByID(ctx, id)
}
