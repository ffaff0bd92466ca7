package csvimport

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/japanese"
)

// Encoding names a text encoding the detector can choose.
type Encoding string

const (
	EncodingUTF8     Encoding = "UTF-8"
	EncodingShiftJIS Encoding = "Shift_JIS"
)

// detectionKeywords are labels every supported export contains somewhere.
var detectionKeywords = []string{
	"ランク", "総合スコア", "保有数量", "国内株式", "口座",
	"銘柄コード", "取得単価", "現在値", "銘柄（コード）", "数量", "証券コード",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoded is file content converted to UTF-8 text.
type Decoded struct {
	Text     string
	Encoding Encoding
	// Score is the number of keyword occurrences found under Encoding.
	Score int
}

// Decode decodes raw upload bytes. Both candidate encodings are tried and the
// one whose text contains more domain keywords wins; UTF-8 wins ties. The
// returned text is always valid UTF-8 with any byte-order mark removed.
func Decode(raw []byte) Decoded {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	utf8Text := strings.ToValidUTF8(string(raw), "�")
	best := Decoded{Text: utf8Text, Encoding: EncodingUTF8, Score: keywordScore(utf8Text)}

	if sjis, err := japanese.ShiftJIS.NewDecoder().Bytes(raw); err == nil {
		text := strings.ToValidUTF8(string(sjis), "�")
		if score := keywordScore(text); score > best.Score {
			best = Decoded{Text: text, Encoding: EncodingShiftJIS, Score: score}
		}
	}

	best.Text = strings.TrimPrefix(best.Text, "\ufeff")
	return best
}

func keywordScore(text string) int {
	score := 0
	for _, k := range detectionKeywords {
		score += strings.Count(text, k)
	}
	return score
}
