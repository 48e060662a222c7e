package order

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeQuantity returns q when it is a positive count and 1 otherwise.
func NormalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// ParseQuantity converts a textual quantity into a count. Fractions are
// truncated toward zero. Anything that is not a finite number yields 0, which
// NormalizeQuantity later turns into 1.
func ParseQuantity(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f <= 0 {
		return 0
	}
	return int(f)
}
