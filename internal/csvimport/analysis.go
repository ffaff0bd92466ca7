package csvimport

import (
	"strings"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

// ParseAnalysis parses an analyst-rating export into partial updates keyed by
// code. Spreadsheet tools often write codes as "9432.0"; the fraction is cut.
func ParseAnalysis(text string) []models.AnalystUpdate {
	lines := splitLines(text)
	hdr := findHeader(lines, analysisHeader)
	if hdr < 0 {
		return nil
	}
	idx := resolveColumns(SplitLine(lines[hdr]), analysisColumns)

	var out []models.AnalystUpdate
	for _, raw := range lines[hdr+1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		cells := SplitLine(line)
		if len(cells) < 2 {
			continue
		}
		code := stripExchangeSuffix(NormalizeCode(idx.cell(cells, colCode)))
		if code == "" || code[0] < '0' || code[0] > '9' {
			continue
		}

		out = append(out, models.AnalystUpdate{
			Code:   code,
			Rank:   idx.cell(cells, colRank),
			Score:  ParseNumber(idx.cell(cells, colScore)),
			Detail: idx.cell(cells, colDetail),
			Flag:   idx.cell(cells, colFlag),
			Date:   idx.cell(cells, colDate),
		})
	}
	return out
}

// ParseHoldings dispatches to the parser for source.
func ParseHoldings(source models.Source, text string) []models.Holding {
	switch source {
	case models.SourceSBI:
		return ParseSBI(text)
	case models.SourceRakuten:
		return ParseRakuten(text)
	}
	return nil
}

// SourceForFormat maps a detected holdings format to its broker.
func SourceForFormat(f Format) (models.Source, bool) {
	switch f {
	case FormatSBI:
		return models.SourceSBI, true
	case FormatRakuten:
		return models.SourceRakuten, true
	}
	return "", false
}
