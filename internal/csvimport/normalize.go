package csvimport

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// spreadsheetErrors are formula error tokens a price sheet may return.
var spreadsheetErrors = []string{"#N/A", "#ERROR", "#REF", "#VALUE", "#DIV/0", "#NAME", "#NUM"}

// numberNoise strips separators, quotes and currency glyphs.
var numberNoise = strings.NewReplacer(
	",", "",
	"、", "",
	`"`, "",
	"¥", "",
	"￥", "",
	"円", "",
)

// ParseNumber converts a locale-formatted cell such as "¥3,714", "１，２００"
// or "-" into a number. Anything that does not read as a finite number,
// including spreadsheet error tokens, is 0.
func ParseNumber(raw string) float64 {
	s := width.Fold.String(raw)

	upper := strings.ToUpper(s)
	for _, tok := range spreadsheetErrors {
		if strings.Contains(upper, tok) {
			return 0
		}
	}

	s = numberNoise.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	negative := false
	// ▲ and △ mark negative amounts in Japanese statements
	if rest, ok := strings.CutPrefix(s, "▲"); ok {
		s, negative = rest, true
	} else if rest, ok := strings.CutPrefix(s, "△"); ok {
		s, negative = rest, true
	}

	if s == "" || s == "-" {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if negative {
		v = -v
	}
	return v
}

// NonNegative clamps quantities and prices, which cannot be below zero.
func NonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
