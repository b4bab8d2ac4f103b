package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		// Numbers
		{"float passes through", 12.5, 12.5, true},
		{"int passes through", 42, 42, true},
		{"int64 passes through", int64(-7), -7, true},

		// Numeric strings
		{"thousands separator", "1,234", 1234, true},
		{"percent", "12%", 12, true},
		{"trailing metric wins", "10 Years: 11%", 11, true},
		{"negative decimal", "-3.5", -3.5, true},
		{"currency text", "Rs. 1,200 Cr.", 1200, true},
		{"padded", "  98.6 ", 98.6, true},
		{"full-width digits", "１２３", 123, true},

		// Absent
		{"nil", nil, 0, false},
		{"NA", "NA", 0, false},
		{"lowercase n/a", "n/a", 0, false},
		{"NULL", "NULL", 0, false},
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"no numeral", "abc", 0, false},
		{"bool", true, 0, false},
		{"map", map[string]any{"x": 1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.ok, ok, "input: %v", tt.in)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestToFloat_Idempotent(t *testing.T) {
	for _, in := range []string{"1,234", "12%", "10 Years: 11%", "-0.25", "3"} {
		first, ok := ToFloat(in)
		assert.True(t, ok, in)

		second, ok := ToFloat(first)
		assert.True(t, ok, in)
		assert.Equal(t, first, second, in)
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{"month and year", "Mar 2015", 2015, true},
		{"int passes through", 2018, 2018, true},
		{"json number", float64(2021), 2021, true},
		{"nineteen hundreds", "Dec 1999", 1999, true},
		{"trailing text", "2023 (TTM)", 2023, true},

		{"nonsense", "nonsense", 0, false},
		{"two digit year", "Mar 15", 0, false},
		{"fractional number", 2018.5, 0, false},
		{"nil", nil, 0, false},
		{"bool", false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractYear(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPeriod(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"label before colon", "10 Years: 21%", "10 Years", true},
		{"first colon only", "TTM: 5%: x", "TTM", true},
		{"padded label", "  3 Years :7%", "3 Years", true},

		{"number", 42, "", false},
		{"no colon", "21%", "", false},
		{"empty label", ": 21%", "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPeriod(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidYear(t *testing.T) {
	assert.True(t, ValidYear(1900))
	assert.True(t, ValidYear(2099))
	assert.False(t, ValidYear(1899))
	assert.False(t, ValidYear(2100))
}
