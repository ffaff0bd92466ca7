package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dobashik/cashflow-maker-web/internal/mastercsv"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/portfolio"
	"github.com/dobashik/cashflow-maker-web/internal/testutil"
)

func masterFixture() *stubDirectory {
	return &stubDirectory{entries: map[string]mastercsv.Entry{
		"1301": {Code: "1301", Name: "極洋", Sector: "水産・農林業"},
		"9432": {Code: "9432", Name: "日本電信電話", Sector: "情報・通信業"},
		"8058": {Code: "8058", Name: "三菱商事"},
	}}
}

func TestRegisterNew(t *testing.T) {
	ctx := context.Background()

	t.Run("dedupes_and_skips_known", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSecurityService(db, masterFixture())
		testutil.CreateTestSecurity(t, db, "9432", testutil.FloatPtr(160), nil)

		unseen, err := svc.RegisterNew(ctx, []string{"9432", " 1301", "1301", "", "5555"})
		testutil.AssertNoError(t, err)
		if len(unseen) != 2 || unseen[0] != "1301" || unseen[1] != "5555" {
			t.Errorf("expected [1301 5555], got %v", unseen)
		}

		var count int64
		db.Model(&models.Security{}).Count(&count)
		if count != 3 {
			t.Errorf("expected 3 securities, got %d", count)
		}
		if sec := loadSecurity(t, db, "5555"); sec.Name != nil || sec.Sector != nil {
			t.Errorf("expected bare row for code missing from master, got %+v", sec)
		}
	})

	t.Run("empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSecurityService(db, masterFixture())

		unseen, err := svc.RegisterNew(ctx, nil)
		testutil.AssertNoError(t, err)
		if len(unseen) != 0 {
			t.Errorf("expected nothing registered, got %v", unseen)
		}
	})
}

func TestRefreshMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts_without_touching_price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSecurityService(db, masterFixture())

		existing := testutil.CreateTestSecurity(t, db, "8058", testutil.FloatPtr(3000), nil)
		testutil.AssertNoError(t, db.Model(existing).Update("sector", "卸売業").Error)

		res, err := svc.RefreshMetadata(ctx)
		testutil.AssertNoError(t, err)
		if res.Updated != 3 {
			t.Errorf("expected 3 updated, got %d", res.Updated)
		}

		sec := loadSecurity(t, db, "8058")
		if sec.Name == nil || *sec.Name != "三菱商事" {
			t.Errorf("expected name filled, got %v", sec.Name)
		}
		if sec.Sector == nil || *sec.Sector != "卸売業" {
			t.Errorf("expected blank master sector to keep stored value, got %v", sec.Sector)
		}
		if sec.Price == nil || *sec.Price != 3000 {
			t.Errorf("expected price untouched, got %v", sec.Price)
		}
		if sec := loadSecurity(t, db, "1301"); sec.Sector == nil || *sec.Sector != "水産・農林業" {
			t.Errorf("expected new row with sector, got %+v", sec)
		}
	})

	t.Run("master_unavailable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSecurityService(db, &stubDirectory{err: errors.New("404")})

		_, err := svc.RefreshMetadata(ctx)
		testutil.AssertAppError(t, err, "MASTER_DATA_UNAVAILABLE")
	})
}

func TestUpdateSectors(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewSecurityService(db, masterFixture())

	owner := testutil.NewOwnerID()
	testutil.CreateTestHolding(t, db, owner, models.Holding{Code: "1301"})
	testutil.CreateTestHolding(t, db, owner, models.Holding{Code: "9432", Sector: portfolio.UnknownSector})
	testutil.CreateTestHolding(t, db, owner, models.Holding{Code: "8058", Sector: "卸売業"})
	testutil.CreateTestSecurity(t, db, "1301", nil, nil)
	testutil.CreateTestSecurity(t, db, "9432", nil, nil)

	res, err := svc.UpdateSectors(ctx, owner)
	testutil.AssertNoError(t, err)
	if res.Updated != 2 {
		t.Errorf("expected 2 sectors filled, got %d", res.Updated)
	}

	rows := loadHoldings(t, db, owner)
	if rows["9432/SBI"].Sector != "情報・通信業" {
		t.Errorf("expected holding sector filled, got %q", rows["9432/SBI"].Sector)
	}
	if rows["8058/SBI"].Sector != "卸売業" {
		t.Errorf("expected existing sector kept, got %q", rows["8058/SBI"].Sector)
	}
	if sec := loadSecurity(t, db, "1301"); sec.Sector == nil || *sec.Sector != "水産・農林業" {
		t.Errorf("expected master row sector filled, got %v", sec.Sector)
	}

	res, err = svc.UpdateSectors(ctx, owner)
	testutil.AssertNoError(t, err)
	if res.Updated != 0 {
		t.Errorf("expected nothing left to fill, got %d", res.Updated)
	}
}

func TestListSecurities(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewSecurityService(db, masterFixture())

	_, err := svc.RegisterNew(ctx, []string{"1301", "9432", "8058"})
	testutil.AssertNoError(t, err)

	t.Run("search_by_name", func(t *testing.T) {
		resp, err := svc.ListSecurities(ctx, "電信", pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 || resp.Data[0].Code != "9432" {
			t.Errorf("expected 9432, got %+v", resp.Data)
		}
	})

	t.Run("sorted_desc", func(t *testing.T) {
		resp, err := svc.ListSecurities(ctx, "", pagination.PageRequest{Sort: "-code"})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 3 || resp.Data[0].Code != "9432" {
			t.Errorf("expected 9432 first, got %+v", resp.Data)
		}
	})

	t.Run("get", func(t *testing.T) {
		sec, err := svc.GetSecurity(ctx, "1301")
		testutil.AssertNoError(t, err)
		if sec.Name == nil || *sec.Name != "極洋" {
			t.Errorf("unexpected security %+v", sec)
		}

		_, err = svc.GetSecurity(ctx, "0000")
		testutil.AssertAppError(t, err, "SECURITY_NOT_FOUND")
	})
}
