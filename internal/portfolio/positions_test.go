package portfolio

import (
	"math"
	"reflect"
	"testing"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

func TestMergePositions(t *testing.T) {
	holdings := []models.Holding{
		{Code: "9432", Name: "NTT", Quantity: 100, AcquisitionPrice: 150, Price: 140, DividendPerShare: 5.2,
			DividendMonths: models.NewMonthSet(6, 12), AccountType: "Taxable", Source: models.SourceSBI},
		{Code: "9432", Quantity: 300, AcquisitionPrice: 170, AccountType: "TaxAdvantaged", Source: models.SourceRakuten},
		{Code: "1301", Name: "極洋", Quantity: 10, AcquisitionPrice: 3900, Source: models.SourceSBI},
	}

	got := MergePositions(holdings, map[string]float64{"9432": 160})
	if len(got) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(got))
	}

	kyokuyo, ntt := got[0], got[1]
	if ntt.Code != "9432" || kyokuyo.Code != "1301" {
		t.Fatalf("unexpected order %s, %s", got[0].Code, got[1].Code)
	}
	if !reflect.DeepEqual(ntt.Sources, []string{"SBI", "Rakuten"}) {
		t.Errorf("expected both sources, got %v", ntt.Sources)
	}
	if ntt.Quantity != 400 || ntt.AcquisitionPrice != 165 {
		t.Errorf("unexpected merge %v @ %v", ntt.Quantity, ntt.AcquisitionPrice)
	}
	if ntt.Price != 160 {
		t.Errorf("expected master price 160, got %v", ntt.Price)
	}
	if ntt.MarketValue != 64000 || ntt.CostBasis != 66000 || ntt.GainLoss != -2000 {
		t.Errorf("unexpected valuation %+v", ntt)
	}
	if math.Abs(ntt.AnnualDividend-2080) > 1e-9 {
		t.Errorf("expected annual dividend 2080, got %v", ntt.AnnualDividend)
	}
	if ntt.AccountType != "Taxable, TaxAdvantaged" {
		t.Errorf("unexpected account tags %q", ntt.AccountType)
	}

	if kyokuyo.Price != 0 || kyokuyo.MarketValue != 0 || kyokuyo.Yield != 0 {
		t.Errorf("expected unpriced position, got %+v", kyokuyo)
	}
}

func TestSummarize(t *testing.T) {
	positions := []Position{
		{Code: "9432", Sector: "情報・通信業", MarketValue: 60000, CostBasis: 50000, GainLoss: 10000,
			AnnualDividend: 1200, DividendMonths: models.NewMonthSet(6, 12)},
		{Code: "8058", Sector: "卸売業", MarketValue: 40000, CostBasis: 45000, GainLoss: -5000,
			AnnualDividend: 800, DividendMonths: models.NewMonthSet(3)},
		{Code: "1301", MarketValue: 0, CostBasis: 1000},
	}

	s := Summarize(positions)
	if s.PositionCount != 3 {
		t.Errorf("expected 3 positions, got %d", s.PositionCount)
	}
	if s.TotalMarketValue != 100000 || s.TotalCostBasis != 96000 || s.TotalGainLoss != 5000 {
		t.Errorf("unexpected totals %+v", s)
	}
	if s.AnnualDividend != 2000 || s.Yield != 2 {
		t.Errorf("expected 2000 dividend at 2%% yield, got %v at %v", s.AnnualDividend, s.Yield)
	}

	if len(s.Sectors) != 3 {
		t.Fatalf("expected 3 sectors, got %d", len(s.Sectors))
	}
	if s.Sectors[0].Sector != "情報・通信業" || s.Sectors[0].Weight != 0.6 {
		t.Errorf("unexpected top sector %+v", s.Sectors[0])
	}
	if s.Sectors[2].Sector != UnknownSector {
		t.Errorf("expected unknown sector last, got %s", s.Sectors[2].Sector)
	}

	if len(s.Calendar) != 12 {
		t.Fatalf("expected 12 months, got %d", len(s.Calendar))
	}
	if s.Calendar[2].Amount != 800 || s.Calendar[5].Amount != 600 || s.Calendar[11].Amount != 600 {
		t.Errorf("unexpected calendar %+v", s.Calendar)
	}
	if s.Calendar[0].Amount != 0 || s.Calendar[0].Month != 1 {
		t.Errorf("unexpected january %+v", s.Calendar[0])
	}
}
