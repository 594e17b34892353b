package dto

import "time"

// CreateOrderRequest describes the body of POST /api/orders.
type CreateOrderRequest struct {
	ServiceID int64  `json:"service_id"`
	TargetURL string `json:"target_url"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderResponse confirms a stored order.
type CreateOrderResponse struct {
	OrderID int64  `json:"order_id"`
	Message string `json:"message"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID          int64     `json:"id"`
	ServiceType string    `json:"service_type"`
	Platform    string    `json:"platform"`
	TargetURL   string    `json:"target_url"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorResponse carries a human readable failure reason.
type ErrorResponse struct {
	Error string `json:"error"`
}
