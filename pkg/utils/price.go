package utils

import (
	"strconv"
	"strings"
)

// ParsePrice normalizes scraped price text ("£12.99", "$ 4.50 USD") to a
// non-negative decimal. Everything except digits and dots is stripped; text
// that still fails to parse is stored as zero rather than rejected.
func ParsePrice(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	price, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || price < 0 {
		return 0
	}
	return price
}
