package csvimport

import (
	"strings"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

const rakutenMinCells = 3

// ParseRakuten parses a Rakuten Securities holdings export, which carries a
// per-row account column instead of section markers.
func ParseRakuten(text string) []models.Holding {
	lines := splitLines(text)
	hdr := findHeader(lines, rakutenHeader)
	if hdr < 0 {
		return nil
	}
	idx := resolveColumns(SplitLine(lines[hdr]), rakutenColumns)

	var out []models.Holding
	for _, raw := range lines[hdr+1:] {
		line := strings.TrimSpace(raw)
		if line == "" || isSummaryLine(line) || rakutenHeader.matches(line) {
			continue
		}
		cells := SplitLine(line)
		if len(cells) < rakutenMinCells {
			continue
		}

		code := stripExchangeSuffix(NormalizeCode(idx.cell(cells, colCode)))
		if !PlausibleCode(code) {
			continue
		}
		name := idx.cell(cells, colName)
		if name == "" {
			name = code
		}
		account := models.AccountTaxable
		if v := idx.cell(cells, colAccount); v != "" {
			account = classifyAccount(v)
		}

		out = append(out, models.Holding{
			Code:             code,
			Name:             name,
			Quantity:         NonNegative(ParseNumber(idx.cell(cells, colQuantity))),
			AcquisitionPrice: NonNegative(ParseNumber(idx.cell(cells, colAcquisitionPrice))),
			Price:            NonNegative(ParseNumber(idx.cell(cells, colCurrentPrice))),
			TotalGainLoss:    ParseNumber(idx.cell(cells, colGainLoss)),
			Source:           models.SourceRakuten,
			AccountType:      account,
		})
	}
	return out
}

// stripExchangeSuffix turns "9432 東証" or "9432.T" into "9432".
func stripExchangeSuffix(code string) string {
	fields := strings.Fields(code)
	if len(fields) == 0 {
		return ""
	}
	code = fields[0]
	if i := strings.IndexByte(code, '.'); i > 0 {
		code = code[:i]
	}
	return code
}
