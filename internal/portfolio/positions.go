package portfolio

import (
	"sort"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

// UnknownSector labels positions whose sector has not been filled yet.
const UnknownSector = "その他"

// Position is the display-time view of one security across all brokers.
type Position struct {
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Sources          []string        `json:"sources"`
	AccountType      string          `json:"account_type"`
	Sector           string          `json:"sector"`
	Quantity         float64         `json:"quantity"`
	AcquisitionPrice float64         `json:"acquisition_price"`
	Price            float64         `json:"price"`
	MarketValue      float64         `json:"market_value"`
	CostBasis        float64         `json:"cost_basis"`
	GainLoss         float64         `json:"gain_loss"`
	DividendPerShare float64         `json:"dividend_per_share"`
	AnnualDividend   float64         `json:"annual_dividend"`
	Yield            float64         `json:"yield"`
	DividendMonths   models.MonthSet `json:"dividend_months"`
	FiscalYearMonth  *int            `json:"fiscal_year_month,omitempty"`
	IRRank           string          `json:"ir_rank,omitempty"`
	IRScore          float64         `json:"ir_score,omitempty"`
}

// MergePositions re-merges per-broker rows into one position per code.
// A positive master price from prices takes precedence over the price
// recorded at import time.
func MergePositions(holdings []models.Holding, prices map[string]float64) []Position {
	byCode := make(map[string]*models.Holding, len(holdings))
	var codes []string
	for i := range holdings {
		h := holdings[i]
		if cur, ok := byCode[h.Code]; ok {
			mergeInto(cur, &h)
			continue
		}
		h.AccountType = joinTags(splitTags(h.AccountType), ", ")
		h.DividendMonths = models.NewMonthSet(h.DividendMonths...)
		byCode[h.Code] = &h
		codes = append(codes, h.Code)
	}
	sort.Strings(codes)

	out := make([]Position, 0, len(codes))
	for _, code := range codes {
		out = append(out, newPosition(byCode[code], prices[code]))
	}
	return out
}

func newPosition(h *models.Holding, masterPrice float64) Position {
	price := h.Price
	if masterPrice > 0 {
		price = masterPrice
	}
	p := Position{
		Code:             h.Code,
		Name:             h.Name,
		Sources:          h.Sources(),
		AccountType:      h.AccountType,
		Sector:           h.Sector,
		Quantity:         h.Quantity,
		AcquisitionPrice: h.AcquisitionPrice,
		Price:            price,
		CostBasis:        h.Quantity * h.AcquisitionPrice,
		GainLoss:         h.TotalGainLoss,
		DividendPerShare: h.DividendPerShare,
		AnnualDividend:   h.Quantity * h.DividendPerShare,
		DividendMonths:   h.DividendMonths,
		FiscalYearMonth:  h.FiscalYearMonth,
		IRRank:           h.IRRank,
		IRScore:          h.IRScore,
	}
	if price > 0 {
		p.MarketValue = h.Quantity * price
		p.GainLoss = p.MarketValue - p.CostBasis
		p.Yield = h.DividendPerShare * 100 / price
	}
	return p
}

// SectorShare is one slice of the sector breakdown.
type SectorShare struct {
	Sector      string  `json:"sector"`
	MarketValue float64 `json:"market_value"`
	Weight      float64 `json:"weight"`
}

// MonthlyDividend is the expected dividend income for one calendar month.
type MonthlyDividend struct {
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

// Summary aggregates positions for the dashboard.
type Summary struct {
	PositionCount    int               `json:"position_count"`
	TotalMarketValue float64           `json:"total_market_value"`
	TotalCostBasis   float64           `json:"total_cost_basis"`
	TotalGainLoss    float64           `json:"total_gain_loss"`
	AnnualDividend   float64           `json:"annual_dividend"`
	Yield            float64           `json:"yield"`
	Sectors          []SectorShare     `json:"sectors"`
	Calendar         []MonthlyDividend `json:"calendar"`
}

// Summarize computes totals, the sector breakdown ordered by value and a
// twelve-month calendar in which each position's annual dividend is spread
// evenly over its dividend months.
func Summarize(positions []Position) Summary {
	s := Summary{PositionCount: len(positions)}
	sectors := map[string]float64{}
	calendar := make([]MonthlyDividend, 12)
	for i := range calendar {
		calendar[i].Month = i + 1
	}

	for _, p := range positions {
		s.TotalMarketValue += p.MarketValue
		s.TotalCostBasis += p.CostBasis
		s.TotalGainLoss += p.GainLoss
		s.AnnualDividend += p.AnnualDividend

		sector := p.Sector
		if sector == "" {
			sector = UnknownSector
		}
		sectors[sector] += p.MarketValue

		if n := len(p.DividendMonths); n > 0 && p.AnnualDividend > 0 {
			per := p.AnnualDividend / float64(n)
			for _, m := range p.DividendMonths {
				calendar[m-1].Amount += per
			}
		}
	}

	if s.TotalMarketValue > 0 {
		s.Yield = s.AnnualDividend * 100 / s.TotalMarketValue
	}
	for name, v := range sectors {
		share := SectorShare{Sector: name, MarketValue: v}
		if s.TotalMarketValue > 0 {
			share.Weight = v / s.TotalMarketValue
		}
		s.Sectors = append(s.Sectors, share)
	}
	sort.Slice(s.Sectors, func(i, j int) bool {
		if s.Sectors[i].MarketValue != s.Sectors[j].MarketValue {
			return s.Sectors[i].MarketValue > s.Sectors[j].MarketValue
		}
		return s.Sectors[i].Sector < s.Sectors[j].Sector
	})
	s.Calendar = calendar
	return s
}
