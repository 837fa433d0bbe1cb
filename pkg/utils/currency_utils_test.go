package utils

import "testing"

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		amount float64
		want   string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{55000, "Rp 55.000"},
		{60500, "Rp 60.500"},
		{1234567, "Rp 1.234.567"},
		{1000000000, "Rp 1.000.000.000"},
		{999.4, "Rp 999"},
		{999.5, "Rp 1.000"},
		{-55000, "-Rp 55.000"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(tc.amount); got != tc.want {
			t.Errorf("FormatRupiah(%v) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}
