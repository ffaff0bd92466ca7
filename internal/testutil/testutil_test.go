package testutil_test

import (
	"testing"
	"time"

	"github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"holdings", "securities", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestSecurity(t, a, "1301", nil, nil)

	var count int64
	b.Model(&models.Security{}).Count(&count)
	if count != 0 {
		t.Errorf("expected separate databases, found %d rows", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	owner := testutil.NewOwnerID()
	h := testutil.CreateTestHolding(t, db, owner, models.Holding{Code: "9432", Quantity: 100,
		DividendMonths: models.NewMonthSet(12, 6)})
	if h.ID == "" {
		t.Fatal("holding should have an ID")
	}
	if h.Source != models.SourceSBI {
		t.Errorf("expected default source SBI, got %s", h.Source)
	}

	var stored models.Holding
	if err := db.First(&stored, "id = ?", h.ID).Error; err != nil {
		t.Fatalf("failed to reload holding: %v", err)
	}
	if len(stored.DividendMonths) != 2 || stored.DividendMonths[0] != 6 {
		t.Errorf("expected months [6 12] round-tripped, got %v", stored.DividendMonths)
	}

	now := time.Now()
	s := testutil.CreateTestSecurity(t, db, "9432", testutil.FloatPtr(160), &now)
	if p, ok := s.KnownPrice(); !ok || p != 160 {
		t.Errorf("expected known price 160, got %v %v", p, ok)
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrHoldingNotFound, "HOLDING_NOT_FOUND")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrHoldingsWrite, nil), "HOLDINGS_WRITE_FAILED")
	testutil.AssertNoError(t, nil)
}
