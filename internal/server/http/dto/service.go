package dto

// ServiceResponse is a catalog entry.
type ServiceResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Platform     string  `json:"platform"`
	PricePer1000 float64 `json:"price_per_1000"`
	MinQuantity  int     `json:"min_quantity"`
	MaxQuantity  int     `json:"max_quantity"`
}

// HealthResponse reports store reachability.
type HealthResponse struct {
	Status string `json:"status"`
}
