package handlers

import (
	"context"

	"github.com/polkiloo/smmpanel/internal/domain/model"
)

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, serviceID int64, target string, quantity int) (*model.Order, error)
	Order(ctx context.Context, id int64) (*model.Order, error)
	Orders(ctx context.Context) ([]model.Order, error)
}

// CatalogFacade lists purchasable services.
type CatalogFacade interface {
	Services(ctx context.Context) ([]model.Service, error)
}

// HealthFacade reports store availability.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// PanelFacade aggregates the full set of operations used across handlers.
type PanelFacade interface {
	OrderFacade
	CatalogFacade
	HealthFacade
}
