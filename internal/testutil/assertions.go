package testutil

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/models"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertSecurityPrice checks the stored master price of code. A nil want
// means the security must never have been priced.
func AssertSecurityPrice(t *testing.T, db *gorm.DB, code string, want *float64) {
	t.Helper()

	var sec models.Security
	if err := db.First(&sec, "code = ?", code).Error; err != nil {
		t.Fatalf("failed to load security %s: %v", code, err)
	}
	switch {
	case want == nil && sec.Price != nil:
		t.Errorf("%s: expected no price, got %v", code, *sec.Price)
	case want != nil && sec.Price == nil:
		t.Errorf("%s: expected price %v, got none", code, *want)
	case want != nil && *sec.Price != *want:
		t.Errorf("%s: expected price %v, got %v", code, *want, *sec.Price)
	}
}

// AssertHoldingCount checks how many holding rows the owner has for source.
// An empty source counts every broker.
func AssertHoldingCount(t *testing.T, db *gorm.DB, ownerID string, source models.Source, want int64) {
	t.Helper()

	q := db.Model(&models.Holding{}).Where("owner_id = ?", ownerID)
	if source != "" {
		q = q.Where("source = ?", source)
	}
	var got int64
	if err := q.Count(&got).Error; err != nil {
		t.Fatalf("failed to count holdings: %v", err)
	}
	if got != want {
		t.Errorf("expected %d holdings for %s/%s, got %d", want, ownerID, source, got)
	}
}
