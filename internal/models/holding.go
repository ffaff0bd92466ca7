package models

import "strings"

// Holding is one owner's position in one security as reported by one broker.
// Display-time aggregation re-merges rows that share a code across brokers.
type Holding struct {
	Base
	OwnerID          string   `gorm:"not null;uniqueIndex:uq_holdings_owner_code_source" json:"owner_id"`
	Code             string   `gorm:"not null;uniqueIndex:uq_holdings_owner_code_source;index" json:"code"`
	Source           Source   `gorm:"not null;uniqueIndex:uq_holdings_owner_code_source" json:"source"`
	Name             string   `json:"name"`
	Quantity         float64  `gorm:"not null;default:0" json:"quantity"`
	Price            float64  `gorm:"not null;default:0" json:"price"`
	AcquisitionPrice float64  `gorm:"not null;default:0" json:"acquisition_price"`
	TotalGainLoss    float64  `gorm:"not null;default:0" json:"total_gain_loss"`
	DividendPerShare float64  `gorm:"not null;default:0" json:"dividend_per_share"`
	DividendMonths   MonthSet `json:"dividend_months"`
	FiscalYearMonth  *int     `json:"fiscal_year_month,omitempty"`
	Sector           string   `json:"sector"`
	AccountType      string   `json:"account_type"`

	// Analyst enrichment, written by the analysis import path only.
	IRRank   string  `json:"ir_rank,omitempty"`
	IRScore  float64 `json:"ir_score,omitempty"`
	IRDetail string  `json:"ir_detail,omitempty"`
	IRFlag   string  `json:"ir_flag,omitempty"`
	IRDate   string  `json:"ir_date,omitempty"`
}

// Sources returns the source brokers the record carries. Persisted rows
// carry exactly one; merged in-memory records may carry a joined list.
func (h *Holding) Sources() []string {
	var out []string
	for _, s := range strings.Split(string(h.Source), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PrimarySource is the first source broker, the one used as aggregation key.
func (h *Holding) PrimarySource() string {
	if srcs := h.Sources(); len(srcs) > 0 {
		return srcs[0]
	}
	return ""
}

// AnalystUpdate is a partial record produced by the analyst-rating import.
type AnalystUpdate struct {
	Code   string  `json:"code"`
	Rank   string  `json:"ir_rank"`
	Score  float64 `json:"ir_score"`
	Detail string  `json:"ir_detail"`
	Flag   string  `json:"ir_flag"`
	Date   string  `json:"ir_date"`
}
