package market

import "math"

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, precision int) float64 {
	if precision <= 0 {
		return math.Round(v)
	}
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}
