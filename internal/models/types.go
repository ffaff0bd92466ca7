package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Source identifies the brokerage an import batch came from.
type Source string

const (
	SourceSBI     Source = "SBI"
	SourceRakuten Source = "Rakuten"
)

// ParseSource resolves a user-supplied broker name case-insensitively.
func ParseSource(s string) (Source, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sbi":
		return SourceSBI, true
	case "rakuten":
		return SourceRakuten, true
	}
	return "", false
}

// ImportMode selects how an import batch reconciles with persisted rows.
type ImportMode string

const (
	// ImportModeReplace deletes the owner's rows for the source before writing.
	ImportModeReplace ImportMode = "replace"
	// ImportModeAppend merges the batch into the owner's existing rows.
	ImportModeAppend ImportMode = "append"
)

// RefreshMode selects which master securities a scheduled refresh targets.
type RefreshMode string

const (
	RefreshModeFull  RefreshMode = "full"
	RefreshModeRetry RefreshMode = "retry"
)

// Account tags assigned from section markers or the account column.
const (
	AccountTaxable       = "Taxable"
	AccountTaxAdvantaged = "TaxAdvantaged"
	AccountGeneral       = "General"
)

// MonthSet is a set of calendar months in [1,12], kept sorted.
// It is stored as a JSON array in a text column.
type MonthSet []int

// NewMonthSet builds a normalized set, dropping out-of-range values.
func NewMonthSet(months ...int) MonthSet {
	seen := make(map[int]bool, len(months))
	out := make(MonthSet, 0, len(months))
	for _, m := range months {
		if m < 1 || m > 12 || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}

// Union returns the normalized union of both sets.
func (m MonthSet) Union(other MonthSet) MonthSet {
	all := make([]int, 0, len(m)+len(other))
	all = append(all, m...)
	all = append(all, other...)
	return NewMonthSet(all...)
}

// Contains reports whether month is in the set.
func (m MonthSet) Contains(month int) bool {
	for _, v := range m {
		if v == month {
			return true
		}
	}
	return false
}

// GormDataType tells gorm to migrate the column as text.
func (MonthSet) GormDataType() string { return "text" }

// Value implements driver.Valuer.
func (m MonthSet) Value() (driver.Value, error) {
	norm := NewMonthSet(m...)
	data, err := json.Marshal([]int(norm))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *MonthSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("month set: unsupported column type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*m = nil
		return nil
	}
	var months []int
	if err := json.Unmarshal(raw, &months); err != nil {
		return fmt.Errorf("month set: %w", err)
	}
	*m = NewMonthSet(months...)
	return nil
}
