package csvimport

import (
	"testing"

	"github.com/dobashik/cashflow-maker-web/internal/models"
)

const sbiExport = `ポートフォリオ一覧
総件数,3
株式（特定預り）
銘柄（コード）,買付日,数量,取得単価,現在値,前日比,前日比（％）,損益,損益（％）,評価額
"7203 トヨタ自動車",----/--/--,100,"2,100","2,850",+10,+0.35,"+75,000",+35.71,"285,000"
合計,,,,,,,"+75,000",,"285,000"
株式（NISA預り（成長投資枠））
銘柄（コード）,買付日,数量,取得単価,現在値,前日比,前日比（％）,損益,損益（％）,評価額
"1301 極洋",----/--/--,10,"3,900","4,120",-5,-0.12,"+2,200",+5.64,"41,200"
"99999 テスト銘柄",----/--/--,5,100,110,0,0,+50,+10.00,550
"ABCD 不正",----/--/--,5,100,110,0,0,+50,+10.00,550
"123 短い",----/--/--,5,100,110,0,0,+50,+10.00,550
株式（一般預り）
銘柄（コード）,買付日,数量,取得単価,現在値,前日比,前日比（％）,損益,損益（％）,評価額
"130A Veritas",----/--/--,200,"1,000",900,0,0,"-20,000",-10.00,"180,000"
`

func TestParseSBI(t *testing.T) {
	got := ParseSBI(sbiExport)
	if len(got) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(got), got)
	}

	byCode := map[string]models.Holding{}
	for _, h := range got {
		byCode[h.Code] = h
	}

	toyota := byCode["7203"]
	if toyota.Name != "トヨタ自動車" {
		t.Errorf("expected name トヨタ自動車, got %q", toyota.Name)
	}
	if toyota.Quantity != 100 || toyota.AcquisitionPrice != 2100 || toyota.Price != 2850 {
		t.Errorf("unexpected numbers %+v", toyota)
	}
	if toyota.TotalGainLoss != 75000 {
		t.Errorf("expected gain 75000, got %v", toyota.TotalGainLoss)
	}
	if toyota.AccountType != models.AccountTaxable {
		t.Errorf("expected Taxable, got %s", toyota.AccountType)
	}
	if toyota.Source != models.SourceSBI {
		t.Errorf("expected source SBI, got %s", toyota.Source)
	}
	if toyota.DividendPerShare != 0 || toyota.Sector != "" {
		t.Error("expected dividend and sector unset at import time")
	}

	if byCode["130A"].AccountType != models.AccountGeneral {
		t.Errorf("expected General, got %s", byCode["130A"].AccountType)
	}
	if byCode["130A"].TotalGainLoss != -20000 {
		t.Errorf("expected signed loss, got %v", byCode["130A"].TotalGainLoss)
	}
	if _, ok := byCode["ABCD"]; ok {
		t.Error("expected code without leading digit to be discarded")
	}
}

func TestParseSBITaxAdvantagedSection(t *testing.T) {
	text := "銘柄（コード）,買付日,数量,取得単価,現在値,前日比,前日比（％）,損益\n" +
		"株式（NISA預り（成長投資枠））\n" +
		"\"1301 極洋\",----/--/--,10,3900,4120,-5,-0.12,2200\n" +
		"\"99999 テスト\",----/--/--,5,100,110,0,0,50\n"

	got := ParseSBI(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows (5-char codes are plausible), got %d", len(got))
	}
	if got[0].Code != "1301" || got[1].Code != "99999" {
		t.Errorf("unexpected codes %s, %s", got[0].Code, got[1].Code)
	}
	for _, h := range got {
		if h.AccountType != models.AccountTaxAdvantaged {
			t.Errorf("%s: expected TaxAdvantaged, got %s", h.Code, h.AccountType)
		}
	}
}

func TestParseSBINoHeader(t *testing.T) {
	if got := ParseSBI("foo,bar\n1,2\n"); len(got) != 0 {
		t.Errorf("expected no rows, got %d", len(got))
	}
}

const rakutenExport = `銘柄コード・ティッカー,銘柄,口座,保有数量,［単位］,平均取得価額,［単位］,現在値,［単位］,現在値(更新日),（参考為替）,前日比,［単位］,時価評価額[円],時価評価額[外貨],評価損益[円],評価損益[％]
9432,日本電信電話,特定,300,株,170.5,円,160,円,2025/01/10,,+1,円,"48,000",-,"-3,150",-6.16
8058 東証,三菱商事,NISA成長投資枠,50,株,"2,400",円,"2,600",円,2025/01/10,,+3,円,"130,000",-,"+10,000",+8.33
2914.T,日本たばこ産業,一般,10,株,"3,800",円,"4,000",円,2025/01/10,,0,円,"40,000",-,"+2,000",+5.26
合計,,,,,,,,,,,,,"218,000",,"8,850",
XX,bad,特定,1,株,1,円,1,円,,,,,,,,
`

func TestParseRakuten(t *testing.T) {
	got := ParseRakuten(rakutenExport)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(got), got)
	}

	ntt := got[0]
	if ntt.Code != "9432" || ntt.Name != "日本電信電話" {
		t.Errorf("unexpected row %+v", ntt)
	}
	if ntt.Quantity != 300 || ntt.AcquisitionPrice != 170.5 || ntt.Price != 160 {
		t.Errorf("unexpected numbers %+v", ntt)
	}
	if ntt.TotalGainLoss != -3150 {
		t.Errorf("expected -3150, got %v", ntt.TotalGainLoss)
	}
	if ntt.Source != models.SourceRakuten || ntt.AccountType != models.AccountTaxable {
		t.Errorf("unexpected source/account %s/%s", ntt.Source, ntt.AccountType)
	}

	if got[1].Code != "8058" || got[1].AccountType != models.AccountTaxAdvantaged {
		t.Errorf("expected 8058 TaxAdvantaged, got %s %s", got[1].Code, got[1].AccountType)
	}
	if got[2].Code != "2914" || got[2].AccountType != models.AccountGeneral {
		t.Errorf("expected 2914 General, got %s %s", got[2].Code, got[2].AccountType)
	}
}

func TestParseAnalysis(t *testing.T) {
	text := "証券コード,銘柄名,ランク,総合スコア,詳細スコア,判定,更新日\n" +
		"9432.0,NTT,A,85.5,収益性:A,買い,2025-01-10\n" +
		"abc,bad,B,1,,,\n" +
		"8058,三菱商事,S,92,,強い買い,2025-01-11\n"

	got := ParseAnalysis(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(got))
	}
	if got[0].Code != "9432" || got[0].Rank != "A" || got[0].Score != 85.5 {
		t.Errorf("unexpected update %+v", got[0])
	}
	if got[0].Detail != "収益性:A" || got[0].Flag != "買い" || got[0].Date != "2025-01-10" {
		t.Errorf("unexpected enrichment fields %+v", got[0])
	}
	if got[1].Code != "8058" || got[1].Detail != "" {
		t.Errorf("unexpected update %+v", got[1])
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Format
	}{
		{"sbi", sbiExport, FormatSBI},
		{"rakuten", rakutenExport, FormatRakuten},
		{"analysis", "証券コード,ランク,総合スコア\n9432,A,80\n", FormatAnalysis},
		{"unknown", "date,amount\n2025-01-01,100\n", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.text); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPlausibleCode(t *testing.T) {
	valid := []string{"1301", "99999", "130A", "25935"}
	invalid := []string{"", "123", "123456", "ABCD", "12-3", "１３０１"}
	for _, c := range valid {
		if !PlausibleCode(c) {
			t.Errorf("expected %q to be plausible", c)
		}
	}
	for _, c := range invalid {
		if PlausibleCode(c) {
			t.Errorf("expected %q to be rejected", c)
		}
	}
	if c := NormalizeCode("１３０ａ"); c != "130A" {
		t.Errorf("expected full-width code folded to 130A, got %q", c)
	}
}
