package model

// Service is a static catalog entry describing a purchasable unit.
type Service struct {
	ID           int64
	Name         string
	Platform     string
	PricePer1000 float64
	MinQuantity  int
	MaxQuantity  int
}

// AcceptsQuantity reports whether quantity lies within the service bounds.
// Zero bounds are treated as unlimited.
func (s Service) AcceptsQuantity(quantity int) bool {
	if s.MinQuantity > 0 && quantity < s.MinQuantity {
		return false
	}
	if s.MaxQuantity > 0 && quantity > s.MaxQuantity {
		return false
	}
	return true
}

// DefaultCatalog returns the reference catalog seeded into an empty store.
func DefaultCatalog() []Service {
	return []Service{
		{Name: "Instagram Followers", Platform: "Instagram", MinQuantity: 10, MaxQuantity: 10000},
		{Name: "Instagram Likes", Platform: "Instagram", MinQuantity: 10, MaxQuantity: 5000},
		{Name: "Instagram Views", Platform: "Instagram", MinQuantity: 100, MaxQuantity: 50000},
		{Name: "TikTok Followers", Platform: "TikTok", MinQuantity: 10, MaxQuantity: 10000},
		{Name: "TikTok Likes", Platform: "TikTok", MinQuantity: 10, MaxQuantity: 5000},
		{Name: "TikTok Views", Platform: "TikTok", MinQuantity: 100, MaxQuantity: 100000},
		{Name: "Telegram Members", Platform: "Telegram", MinQuantity: 10, MaxQuantity: 5000},
		{Name: "Telegram Views", Platform: "Telegram", MinQuantity: 100, MaxQuantity: 50000},
	}
}
