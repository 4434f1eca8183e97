package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"0.99", 99, false},
		{"12.345", 1235, false}, // half-up on third decimal
		{"100", 10000, false},
		{"", 0, true},
		{"-5.00", 0, true},
		{"+5.00", 0, true},
		{"0.00", 0, true},
		{"abc", 0, true},
		{"12.3.4", 0, true},
	}
	for _, c := range cases {
		got, err := ParseDecimalToCents(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseDecimalToCents(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimalToCents(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDecimalToCents(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{99, "0.99"},
		{10000, "100.00"},
		{5, "0.05"},
	}
	for _, c := range cases {
		if got := (Money{Cents: c.cents}).Format(); got != c.want {
			t.Errorf("Money{%d}.Format() = %q, want %q", c.cents, got, c.want)
		}
	}
}
