package models

import "time"

// Security is the shared master row for a security code. It is not owner
// scoped: every owner's import registers codes here and the price workflow
// is the only writer of Price and LastUpdated.
type Security struct {
	Code        string     `gorm:"primaryKey" json:"code"`
	Name        *string    `json:"name"`
	Sector      *string    `json:"sector"`
	Price       *float64   `json:"price"`
	LastUpdated *time.Time `gorm:"index" json:"last_updated"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// KnownPrice returns the stored price when it is positive.
func (s *Security) KnownPrice() (float64, bool) {
	if s.Price == nil || *s.Price <= 0 {
		return 0, false
	}
	return *s.Price, true
}

// StaleSince reports whether the price was last written before cutoff.
// A row that was never priced is always stale.
func (s *Security) StaleSince(cutoff time.Time) bool {
	return s.LastUpdated == nil || s.LastUpdated.Before(cutoff)
}
