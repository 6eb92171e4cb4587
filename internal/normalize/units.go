package normalize

import (
	"strings"

	"freightmatch/internal"
)

// ConvertToFeet converts a dimension to feet. When no unit is given the
// magnitude decides: values over 20 are assumed to be inches. The heuristic
// is ambiguous by nature but downstream pricing multipliers depend on these
// exact thresholds, so it is preserved as-is.
func ConvertToFeet(value float64, unit string) float64 {
	if value <= 0 {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "ft", "feet", "foot", "'":
		return value
	case "in", "inch", "inches", "\"":
		return value / 12.0
	case "m", "meter", "meters", "metre", "metres":
		return value * 3.28084
	case "cm", "centimeter", "centimeters":
		return value / 30.48
	case "mm", "millimeter", "millimeters":
		return value / 304.8
	default:
		if value > 20 {
			return value / 12.0
		}
		return value
	}
}

// ConvertToLbs converts a weight to pounds. Without a unit the magnitude
// decides: under 100 reads as US tons, under 5000 as kilograms. Same caveat
// as ConvertToFeet.
func ConvertToLbs(value float64, unit string) float64 {
	if value <= 0 {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "lb", "lbs", "pound", "pounds":
		return value
	case "kg", "kgs", "kilogram", "kilograms":
		return value * 2.20462
	case "t", "ton", "tons":
		return value * 2000
	case "mt", "tonne", "tonnes", "metric ton", "metric tons":
		return value * 2204.62
	default:
		if value < 100 {
			return value * 2000
		}
		if value < 5000 {
			return value * 2.20462
		}
		return value
	}
}

// Weight class bands in pounds, LIGHT through PROJECT.
func ClassifyWeight(lbs float64) internal.WeightClass {
	switch {
	case lbs <= 0:
		return internal.WeightUnknown
	case lbs < 10000:
		return internal.WeightLight
	case lbs < 25000:
		return internal.WeightMedium
	case lbs < 45000:
		return internal.WeightHeavy
	case lbs < 90000:
		return internal.WeightOverweight
	case lbs < 150000:
		return internal.WeightSuperload
	default:
		return internal.WeightProject
	}
}

var weightClassOrder = map[internal.WeightClass]int{
	internal.WeightLight:      0,
	internal.WeightMedium:     1,
	internal.WeightHeavy:      2,
	internal.WeightOverweight: 3,
	internal.WeightSuperload:  4,
	internal.WeightProject:    5,
}

// WeightClassDistance returns the band-index distance between two classes,
// or -1 when either side is unknown.
func WeightClassDistance(a, b internal.WeightClass) int {
	ai, aok := weightClassOrder[a]
	bi, bok := weightClassOrder[b]
	if !aok || !bok {
		return -1
	}
	if ai > bi {
		return ai - bi
	}
	return bi - ai
}
