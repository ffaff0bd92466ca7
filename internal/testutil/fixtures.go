package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/uuid"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewOwnerID returns a fresh owner id.
func NewOwnerID() string {
	return uuid.New()
}

// UniqueCode returns a plausible security code not used by earlier calls.
func UniqueCode() string {
	return fmt.Sprintf("%d", 1000+nextID()%9000)
}

// CreateTestHolding persists h for ownerID, defaulting source to SBI.
func CreateTestHolding(t *testing.T, db *gorm.DB, ownerID string, h models.Holding) *models.Holding {
	t.Helper()

	h.OwnerID = ownerID
	if h.Source == "" {
		h.Source = models.SourceSBI
	}
	if h.Code == "" {
		h.Code = UniqueCode()
	}
	if h.Name == "" {
		h.Name = "Test " + h.Code
	}
	if err := db.Create(&h).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return &h
}

// CreateTestSecurity persists a master security row.
func CreateTestSecurity(t *testing.T, db *gorm.DB, code string, price *float64, lastUpdated *time.Time) *models.Security {
	t.Helper()

	s := &models.Security{Code: code, Price: price, LastUpdated: lastUpdated}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("failed to create test security: %v", err)
	}
	return s
}

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }

// TimePtr returns a pointer to v.
func TimePtr(v time.Time) *time.Time { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
