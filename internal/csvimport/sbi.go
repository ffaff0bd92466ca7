package csvimport

import (
	"strings"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

// sbiMinCells is the shortest row that can carry code, quantity and prices.
const sbiMinCells = 5

// ParseSBI parses an SBI Securities holdings export. The account type comes
// from section marker lines such as "株式（NISA預り（成長投資枠））" that
// precede each block of rows.
func ParseSBI(text string) []models.Holding {
	lines := splitLines(text)
	hdr := findHeader(lines, sbiHeader)
	if hdr < 0 {
		return nil
	}
	idx := resolveColumns(SplitLine(lines[hdr]), sbiColumns)

	acct := newAccountContext()
	var out []models.Holding
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if acct.observe(line) {
			continue
		}
		if isSummaryLine(line) || sbiHeader.matches(line) {
			continue
		}

		cells := SplitLine(line)
		if len(cells) < sbiMinCells {
			continue
		}
		fields := strings.Fields(idx.cell(cells, colCodeName))
		if len(fields) == 0 {
			continue
		}
		code := NormalizeCode(fields[0])
		if !PlausibleCode(code) {
			continue
		}
		name := strings.Join(fields[1:], " ")
		if name == "" {
			name = code
		}

		out = append(out, models.Holding{
			Code:             code,
			Name:             name,
			Quantity:         NonNegative(ParseNumber(idx.cell(cells, colQuantity))),
			AcquisitionPrice: NonNegative(ParseNumber(idx.cell(cells, colAcquisitionPrice))),
			Price:            NonNegative(ParseNumber(idx.cell(cells, colCurrentPrice))),
			TotalGainLoss:    ParseNumber(idx.cell(cells, colGainLoss)),
			Source:           models.SourceSBI,
			AccountType:      acct.current(),
		})
	}
	return out
}
