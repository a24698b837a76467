package domain

import "math"

// DegMinToDecimal converts degree-minute-hemisphere notation to signed decimal
// degrees rounded to 5 places. Hemisphere "S" and "W" give negative values.
func DegMinToDecimal(deg, minute float64, hemisphere string) float64 {
	v := round5(deg + minute/60.0)
	if hemisphere == "S" || hemisphere == "W" {
		v = -v
	}
	return v
}

// decimalToDegMin is the inverse of DegMinToDecimal. pos and neg are the
// hemisphere letters for non-negative and negative values.
func decimalToDegMin(v float64, pos, neg string) (deg int, minute float64, hemisphere string) {
	hemisphere = pos
	if v < 0 {
		hemisphere = neg
		v = -v
	}
	deg = int(math.Floor(v))
	minute = math.Round((v-float64(deg))*60*1e4) / 1e4
	if minute >= 60 {
		deg++
		minute = 0
	}
	return deg, minute, hemisphere
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
