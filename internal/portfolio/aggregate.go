// Package portfolio merges raw holding rows into positions.
package portfolio

import (
	"sort"
	"strings"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

type aggregateKey struct {
	code   string
	source string
}

// Aggregate merges records sharing (code, primary source) into one record.
// Records must be ordered oldest first: a later non-zero price replaces an
// earlier one, while descriptive fields keep the first non-empty value.
// The result is sorted by code, then source.
func Aggregate(records []models.Holding) []models.Holding {
	merged := make(map[aggregateKey]*models.Holding, len(records))
	for i := range records {
		r := records[i]
		k := aggregateKey{code: r.Code, source: r.PrimarySource()}
		if cur, ok := merged[k]; ok {
			mergeInto(cur, &r)
			continue
		}
		r.DividendMonths = models.NewMonthSet(r.DividendMonths...)
		r.AccountType = joinTags(splitTags(r.AccountType), ", ")
		merged[k] = &r
	}

	out := make([]models.Holding, 0, len(merged))
	for _, h := range merged {
		out = append(out, *h)
	}
	sortHoldings(out)
	return out
}

func sortHoldings(hs []models.Holding) {
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].Code != hs[j].Code {
			return hs[i].Code < hs[j].Code
		}
		return hs[i].PrimarySource() < hs[j].PrimarySource()
	})
}

// mergeInto folds b into a.
func mergeInto(a, b *models.Holding) {
	qty := a.Quantity + b.Quantity
	if qty == 0 {
		a.AcquisitionPrice = 0
	} else {
		a.AcquisitionPrice = (a.AcquisitionPrice*a.Quantity + b.AcquisitionPrice*b.Quantity) / qty
	}
	a.Quantity = qty
	a.TotalGainLoss += b.TotalGainLoss

	a.AccountType = joinTags(append(splitTags(a.AccountType), splitTags(b.AccountType)...), ", ")
	a.Source = models.Source(joinTags(append(a.Sources(), b.Sources()...), ","))
	a.DividendMonths = a.DividendMonths.Union(b.DividendMonths)

	if b.Price > 0 {
		a.Price = b.Price
	}
	if a.DividendPerShare == 0 {
		a.DividendPerShare = b.DividendPerShare
	}
	if a.FiscalYearMonth == nil {
		a.FiscalYearMonth = b.FiscalYearMonth
	}
	if a.IRScore == 0 {
		a.IRScore = b.IRScore
	}
	firstNonEmpty(&a.ID, b.ID)
	firstNonEmpty(&a.OwnerID, b.OwnerID)
	firstNonEmpty(&a.Name, b.Name)
	firstNonEmpty(&a.Sector, b.Sector)
	firstNonEmpty(&a.IRRank, b.IRRank)
	firstNonEmpty(&a.IRDetail, b.IRDetail)
	firstNonEmpty(&a.IRFlag, b.IRFlag)
	firstNonEmpty(&a.IRDate, b.IRDate)
}

func firstNonEmpty(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}

func splitTags(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// joinTags de-duplicates tags keeping first-seen order.
func joinTags(tags []string, sep string) string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0:0]
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return strings.Join(out, sep)
}
