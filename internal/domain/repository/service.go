package repository

import (
	"context"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// ServiceRepository provides read-only access to the service catalog.
type ServiceRepository interface {
	List(ctx context.Context) ([]model.Service, error)
	GetByID(ctx context.Context, id int64) (*model.Service, error)
}
