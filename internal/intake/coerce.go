package intake

import (
	"math"
	"strconv"
	"strings"
)

// MaxCount caps every typed count so that a count times a per-container
// quantity still fits in an int.
const MaxCount = math.MaxInt32

// ParseCount reads a quantity or container count typed by staff. Anything
// that is not a whole number of at least 1 becomes 1, and anything above
// MaxCount becomes MaxCount.
func ParseCount(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil {
		return clampCount(n)
	}
	// Accept "3.0" style input from numeric fields.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 1 {
		return 1
	}
	if f > MaxCount {
		return MaxCount
	}
	return int(math.Round(f))
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// ParseValue reads a monetary amount. Invalid or negative input becomes 0.
func ParseValue(raw string) float64 {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return sanitizeValue(f)
}

func sanitizeValue(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
