package test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/smmpanel/internal/domain/errors"
	"github.com/polkiloo/smmpanel/internal/domain/model"
	"github.com/polkiloo/smmpanel/internal/domain/repository"
)

// OrderRepositoryStub keeps orders in memory and applies transitions with the
// same guards as the SQL stores. Fn fields override individual operations.
type OrderRepositoryStub struct {
	CreateFn     func(context.Context, model.NewOrder) (*model.Order, error)
	ListFn       func(context.Context, model.OrderFilter) ([]model.Order, error)
	TransitionFn func(context.Context, int64, model.Transition) error
	CountErr     error

	mu          sync.Mutex
	orders      map[int64]model.Order
	next        int64
	Transitions []TransitionCall
}

// TransitionCall stores information about Transition invocations.
type TransitionCall struct {
	OrderID    int64
	Transition model.Transition
}

var _ repository.OrderRepository = (*OrderRepositoryStub)(nil)

// NewOrderRepositoryStub constructs an empty in-memory repository.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{orders: make(map[int64]model.Order)}
}

// Seed stores orders as is, keeping their identifiers.
func (s *OrderRepositoryStub) Seed(orders ...model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders == nil {
		s.orders = make(map[int64]model.Order)
	}
	for _, o := range orders {
		s.orders[o.ID] = o
		if o.ID > s.next {
			s.next = o.ID
		}
	}
}

// Create inserts a pending order.
func (s *OrderRepositoryStub) Create(ctx context.Context, in model.NewOrder) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, in)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders == nil {
		s.orders = make(map[int64]model.Order)
	}
	s.next++
	now := time.Now()
	order := model.Order{
		ID:          s.next,
		ServiceType: in.ServiceType,
		Platform:    in.Platform,
		TargetURL:   in.TargetURL,
		Quantity:    in.Quantity,
		Status:      model.OrderStatusPending,
		Progress:    model.ProgressStart,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.orders[order.ID] = order
	return &order, nil
}

// GetByID returns a copy of the stored order.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &order, nil
}

// List filters by status in id order, or lists newest first.
func (s *OrderRepositoryStub) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, filter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Order
	for _, o := range s.orders {
		if filter.Status == "" || o.Status == filter.Status {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if filter.Status != "" {
			return result[i].ID < result[j].ID
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Transition records the call and applies it when the stored row matches.
func (s *OrderRepositoryStub) Transition(ctx context.Context, id int64, t model.Transition) error {
	s.mu.Lock()
	s.Transitions = append(s.Transitions, TransitionCall{OrderID: id, Transition: t})
	s.mu.Unlock()
	if s.TransitionFn != nil {
		return s.TransitionFn(ctx, id, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if order.Status != t.From || order.Progress > t.Progress {
		return fmt.Errorf("order %d is %s: %w", id, order.Status, domainErrors.ErrInvalidTransition)
	}
	order.Status = t.To
	order.Progress = t.Progress
	order.UpdatedAt = time.Now()
	s.orders[id] = order
	return nil
}

// CountByStatus aggregates stored orders.
func (s *OrderRepositoryStub) CountByStatus(ctx context.Context) (map[model.OrderStatus]int, error) {
	if s.CountErr != nil {
		return nil, s.CountErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[model.OrderStatus]int)
	for _, o := range s.orders {
		counts[o.Status]++
	}
	return counts, nil
}

// Calls returns a copy of recorded transitions.
func (s *OrderRepositoryStub) Calls() []TransitionCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TransitionCall(nil), s.Transitions...)
}

// ServiceRepositoryStub serves a fixed catalog.
type ServiceRepositoryStub struct {
	Services []model.Service
	Err      error
}

var _ repository.ServiceRepository = (*ServiceRepositoryStub)(nil)

// NewServiceRepositoryStub returns the default catalog with ids assigned from 1.
func NewServiceRepositoryStub() *ServiceRepositoryStub {
	catalog := model.DefaultCatalog()
	for i := range catalog {
		catalog[i].ID = int64(i + 1)
	}
	return &ServiceRepositoryStub{Services: catalog}
}

// List returns configured services.
func (s *ServiceRepositoryStub) List(ctx context.Context) ([]model.Service, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Services, nil
}

// GetByID returns the service with matching id.
func (s *ServiceRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	for _, svc := range s.Services {
		if svc.ID == id {
			found := svc
			return &found, nil
		}
	}
	return nil, domainErrors.ErrServiceNotFound
}

// FactoryStub bundles stub repositories behind repository.Factory.
type FactoryStub struct {
	OrderRepo   repository.OrderRepository
	ServiceRepo repository.ServiceRepository
	HealthErr   error
	Closed      bool
}

var _ repository.Factory = (*FactoryStub)(nil)

func (f *FactoryStub) Orders() repository.OrderRepository     { return f.OrderRepo }
func (f *FactoryStub) Services() repository.ServiceRepository { return f.ServiceRepo }
func (f *FactoryStub) HealthCheck(context.Context) error      { return f.HealthErr }
func (f *FactoryStub) Close()                                 { f.Closed = true }
