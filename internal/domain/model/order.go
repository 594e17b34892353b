package model

import "time"

// OrderStatus describes processing lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

const (
	// ProgressStart is the progress of a freshly created order.
	ProgressStart = 0
	// ProgressDone is the progress of a completed order.
	ProgressDone = 100
)

// Valid reports whether status is one of the known lifecycle states.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted:
		return true
	}
	return false
}

// Order describes a fulfillment job submitted by a client.
type Order struct {
	ID          int64
	ServiceType string
	Platform    string
	TargetURL   string
	Quantity    int
	Status      OrderStatus
	Progress    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrder holds the attributes required to insert an order.
type NewOrder struct {
	ServiceType string
	Platform    string
	TargetURL   string
	Quantity    int
}

// OrderFilter narrows order listings. Zero value lists every order.
type OrderFilter struct {
	Status OrderStatus
}

// Transition is a single conditional state write. It applies only while the
// stored order is still in From and its progress does not exceed Progress.
type Transition struct {
	From     OrderStatus
	To       OrderStatus
	Progress int
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusProcessing
	case OrderStatusProcessing:
		return to == OrderStatusProcessing || to == OrderStatusCompleted
	}
	return false
}

// Valid checks that the transition respects the lifecycle and the progress bounds
// of its target status.
func (t Transition) Valid() bool {
	if !CanTransition(t.From, t.To) {
		return false
	}
	if t.Progress < ProgressStart || t.Progress > ProgressDone {
		return false
	}
	if t.To == OrderStatusCompleted {
		return t.Progress == ProgressDone
	}
	if t.From == OrderStatusPending {
		return t.Progress == ProgressStart
	}
	// Only completion may reach 100.
	return t.Progress < ProgressDone
}

// OrderEvent is emitted after every applied transition.
type OrderEvent struct {
	OrderID    int64
	Status     OrderStatus
	Progress   int
	OccurredAt time.Time
}
