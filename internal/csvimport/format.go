package csvimport

import (
	"strings"

	"golang.org/x/text/width"
)

// Format identifies a supported export shape.
type Format string

const (
	FormatUnknown  Format = ""
	FormatSBI      Format = "sbi"
	FormatRakuten  Format = "rakuten"
	FormatAnalysis Format = "analysis"
)

// headerSignature matches a header line that contains every keyword in all
// and, when set, at least one keyword in anyOf.
type headerSignature struct {
	all   []string
	anyOf []string
}

func (s headerSignature) matches(line string) bool {
	for _, k := range s.all {
		if !strings.Contains(line, k) {
			return false
		}
	}
	if len(s.anyOf) == 0 {
		return true
	}
	for _, k := range s.anyOf {
		if strings.Contains(line, k) {
			return true
		}
	}
	return false
}

var (
	sbiHeader      = headerSignature{all: []string{"銘柄（コード）"}}
	rakutenHeader  = headerSignature{all: []string{"銘柄"}, anyOf: []string{"数量", "取得", "コード"}}
	analysisHeader = headerSignature{all: []string{"証券コード", "ランク", "総合スコア"}}
)

// findHeader returns the index of the first line matching sig, or -1.
func findHeader(lines []string, sig headerSignature) int {
	for i, l := range lines {
		if sig.matches(l) {
			return i
		}
	}
	return -1
}

// DetectFormat guesses the export shape from its header line. The SBI
// signature is checked before Rakuten's looser one, which it also satisfies.
func DetectFormat(text string) Format {
	lines := splitLines(text)
	switch {
	case findHeader(lines, analysisHeader) >= 0:
		return FormatAnalysis
	case findHeader(lines, sbiHeader) >= 0:
		return FormatSBI
	case findHeader(lines, rakutenHeader) >= 0:
		return FormatRakuten
	}
	return FormatUnknown
}

var summaryPrefixes = []string{"合計", "株式", "資産", "参考", "投資"}

func isSummaryLine(line string) bool {
	for _, p := range summaryPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// NormalizeCode folds full-width characters and upper-cases a code cell.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(width.Fold.String(raw)))
}

// PlausibleCode reports whether code looks like a listing code: 4 or 5
// ASCII alphanumerics starting with a digit, e.g. "7203", "130A" or "25935".
func PlausibleCode(code string) bool {
	if len(code) < 4 || len(code) > 5 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		isDigit := c >= '0' && c <= '9'
		if i == 0 && !isDigit {
			return false
		}
		if !isDigit && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
