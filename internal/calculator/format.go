package calculator

import (
	"math"
	"strconv"
	"strings"
)

const (
	// roundingScale strips binary representation noise below 8 decimal places.
	roundingScale = 1e8

	maxDisplayLen    = 12
	displayPrecision = 12
)

// Format normalises a raw calculation result for display: it is rounded to
// 8 decimal places and, when the text is still longer than 12 characters,
// re-rendered at 12 significant digits.
//
// Format is idempotent over its own output: parsing a formatted value and
// formatting it again yields the same text.
func Format(x float64) string {
	v := roundHalfUp(x)
	s := formatNumber(v)
	if len(s) <= maxDisplayLen {
		return s
	}

	v, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', displayPrecision, 64), 64)
	if err != nil {
		return s
	}
	return formatNumber(v)
}

func roundHalfUp(x float64) float64 {
	scaled := x * roundingScale
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		// Magnitudes this large carry no fractional digits worth rounding.
		return x
	}
	return math.Floor(scaled+0.5) / roundingScale
}

// formatNumber renders v as the shortest decimal text that parses back to v.
// Values at or above 1e21 or below 1e-6 use exponent notation ("1e+21",
// "5e-7"), everything else plain decimal. Negative zero renders as "0".
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}

	abs := math.Abs(v)
	if abs < 1e21 && abs >= 1e-6 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}
