package services

import "testing"

func TestFormatMoney_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		expect string
	}{
		{"zero", 0, "$0.00"},
		{"small integer", 5, "$5.00"},
		{"with decimals", 42.50, "$42.50"},
		{"hundreds", 999.99, "$999.99"},
		{"thousands", 1234.56, "$1,234.56"},
		{"hundred thousands", 123456.78, "$123,456.78"},
		{"millions", 1234567.89, "$1,234,567.89"},
		{"negative small", -100.00, "-$100.00"},
		{"negative thousands", -250000.50, "-$250,000.50"},
		{"exact thousands boundary", 1000, "$1,000.00"},
		{"exact million boundary", 1000000, "$1,000,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMoney(tt.input)
			if got != tt.expect {
				t.Errorf("FormatMoney(%v) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestFormatHours_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		expect string
	}{
		{"zero", 0, "0.0h"},
		{"fraction", 7.25, "7.2h"},
		{"thousands", 1250.5, "1,250.5h"},
		{"millions", 1234567.5, "1,234,567.5h"},
		{"negative", -10, "-10.0h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatHours(tt.input)
			if got != tt.expect {
				t.Errorf("FormatHours(%v) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}
