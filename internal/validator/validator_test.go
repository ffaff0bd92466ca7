package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
)

type sample struct {
	Source string `binding:"required,broker_source"`
	Mode   string `binding:"omitempty,import_mode"`
	Scope  string `binding:"omitempty,refresh_mode"`
	Month  int    `binding:"omitempty,month"`
	Months []int  `binding:"omitempty,dive,month"`
}

func init() {
	Register()
}

func TestCustomValidators(t *testing.T) {
	tests := []struct {
		name  string
		input sample
		valid bool
	}{
		{"minimal", sample{Source: "SBI"}, true},
		{"case_insensitive", sample{Source: "rakuten", Mode: "APPEND", Scope: "Full"}, true},
		{"months", sample{Source: "SBI", Month: 3, Months: []int{3, 9}}, true},
		{"unknown_source", sample{Source: "Monex"}, false},
		{"bad_mode", sample{Source: "SBI", Mode: "merge"}, false},
		{"bad_refresh_mode", sample{Source: "SBI", Scope: "partial"}, false},
		{"month_out_of_range", sample{Source: "SBI", Month: 13}, false},
		{"months_out_of_range", sample{Source: "SBI", Months: []int{0}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(tt.input)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
