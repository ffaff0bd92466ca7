package csvimport

import "strings"

// column is a logical field a parser extracts from a data row.
type column int

const (
	colCode column = iota
	colCodeName
	colName
	colQuantity
	colAcquisitionPrice
	colCurrentPrice
	colGainLoss
	colAccount
	colRank
	colScore
	colDetail
	colFlag
	colDate
)

// columnLabels lists the header labels accepted for one logical column,
// most preferred first. New export revisions are supported by adding labels.
type columnLabels struct {
	col    column
	labels []string
}

var sbiColumns = []columnLabels{
	{colCodeName, []string{"銘柄（コード）", "銘柄(コード)", "銘柄"}},
	{colQuantity, []string{"数量", "保有株数", "保有数量"}},
	{colAcquisitionPrice, []string{"取得単価", "平均取得単価"}},
	{colCurrentPrice, []string{"現在値", "現在株価"}},
	{colGainLoss, []string{"損益", "評価損益"}},
}

var rakutenColumns = []columnLabels{
	{colCode, []string{"銘柄コード", "コード"}},
	{colName, []string{"銘柄名", "ファンド名", "銘柄"}},
	{colAccount, []string{"口座区分", "口座"}},
	{colQuantity, []string{"保有数量", "保有株数", "数量"}},
	{colAcquisitionPrice, []string{"平均取得価額", "取得単価", "平均取得単価"}},
	{colCurrentPrice, []string{"現在値", "時価", "株価"}},
	{colGainLoss, []string{"評価損益", "損益"}},
}

var analysisColumns = []columnLabels{
	{colCode, []string{"証券コード", "銘柄コード", "コード"}},
	{colRank, []string{"ランク"}},
	{colScore, []string{"総合スコア", "スコア"}},
	{colDetail, []string{"詳細スコア", "詳細"}},
	{colFlag, []string{"判定", "フラグ"}},
	{colDate, []string{"更新日", "日付", "日時"}},
}

// columnIndex maps logical columns to cell positions; -1 means absent.
type columnIndex map[column]int

// resolveColumns locates every column in the header cells. An exact label
// match of any rank beats a substring match, so "銘柄" does not resolve to
// "銘柄コード" when both headers exist.
func resolveColumns(headers []string, cols []columnLabels) columnIndex {
	idx := make(columnIndex, len(cols))
	for _, cl := range cols {
		idx[cl.col] = lookupLabel(headers, cl.labels)
	}
	return idx
}

func lookupLabel(headers, labels []string) int {
	for _, label := range labels {
		for i, h := range headers {
			if h == label {
				return i
			}
		}
	}
	for _, label := range labels {
		for i, h := range headers {
			if strings.Contains(h, label) {
				return i
			}
		}
	}
	return -1
}

// cell returns the trimmed cell for c, or "" when the column is absent or
// the row is short.
func (ci columnIndex) cell(cells []string, c column) string {
	i, ok := ci[c]
	if !ok || i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
