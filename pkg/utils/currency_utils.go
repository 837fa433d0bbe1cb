package utils

import (
	"fmt"
	"math"
	"strconv"
)

// FormatRupiah renders an amount as Indonesian rupiah with dot thousand
// separators, e.g. 55000 -> "Rp 55.000". Fractions are rounded away since
// rupiah has no sub-unit in practice.
func FormatRupiah(amount float64) string {
	n := int64(math.Round(amount))
	negative := n < 0
	if negative {
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}

	if negative {
		return fmt.Sprintf("-Rp %s", string(out))
	}
	return fmt.Sprintf("Rp %s", string(out))
}
