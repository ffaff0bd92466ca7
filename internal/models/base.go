package models

import (
	"time"

	"github.com/dobashik/cashflow-maker-web/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for owner-scoped tables. Rows are hard
// deleted: replace-mode imports must free the (owner, code, source) key.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
