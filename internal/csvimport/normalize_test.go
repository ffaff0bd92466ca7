package csvimport

import (
	"strconv"
	"strings"
	"testing"
)

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"¥3,714":     3714,
		"￥3,714":     3714,
		"1,200":      1200,
		"１，２００":      1200,
		"１２．５":       12.5,
		"3,714円":     3714,
		`"2,500"`:    2500,
		" 42 ":       42,
		"　100　":      100,
		"-1,500":     -1500,
		"－８":         -8,
		"▲1,200":     -1200,
		"+15":        15,
		"-":          0,
		"":           0,
		"#N/A":       0,
		"#ERROR!":    0,
		"#REF!":      0,
		"#VALUE!":    0,
		"#DIV/0!":    0,
		"abc":        0,
		"NaN":        0,
		"Inf":        0,
		"12.3.4":     0,
		"1,234.56":   1234.56,
		"0":          0,
		"0.0001":     0.0001,
		"9,999,999":  9999999,
	}
	for in, want := range cases {
		if got := ParseNumber(in); got != want {
			t.Errorf("ParseNumber(%q): expected %v, got %v", in, want, got)
		}
	}
}

// formatYen renders n the way broker exports do: "¥1,234,567".
func formatYen(n int64) string {
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "¥" + b.String()
}

func TestParseNumberRoundTrip(t *testing.T) {
	values := []int64{0, 1, 12, 999, 1000, 3714, 65536, 1000000, 123456789, 9007199254740}
	for _, n := range values {
		s := formatYen(n)
		if got := ParseNumber(s); got != float64(n) {
			t.Errorf("round trip %d via %q: got %v", n, s, got)
		}
		if got := ParseNumber(s + "円"); got != float64(n) {
			t.Errorf("round trip %d with yen suffix: got %v", n, got)
		}
	}

	t.Run("fractional", func(t *testing.T) {
		if got := ParseNumber(formatYen(2850) + ".5"); got != 2850.5 {
			t.Errorf("expected 2850.5, got %v", got)
		}
	})
}
