package repository

import "context"

// Factory describes access to domain repositories of one backing store.
type Factory interface {
	Orders() OrderRepository
	Services() ServiceRepository
	HealthCheck(ctx context.Context) error
	Close()
}
