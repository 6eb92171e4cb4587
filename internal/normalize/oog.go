package normalize

import "fmt"

// Legal limits for unpermitted highway moves, in feet and pounds.
const (
	MaxLegalHeightFt  = 13.5
	MaxLegalWidthFt   = 8.5
	MaxLegalLengthFt  = 53.0
	MaxLegalWeightLbs = 46000.0

	PilotCarWidthFt = 12.0

	flatbedDeckFt = 5.0
	stepDeckFt    = 3.5
	lowboyDeckFt  = 1.5
	maxTravelFt   = 13.5
)

type OOGAnalysis struct {
	IsOutOfGauge     bool
	Reasons          []string
	RequiresPermits  bool
	RequiresPilotCar bool
	SuggestedTrailer string
}

// AnalyzeOOGCargo compares converted dimensions and weight against legal
// limits and against deck heights. Dimensions are in feet, weight in pounds;
// zero means unknown and is not judged.
func AnalyzeOOGCargo(lengthFt, widthFt, heightFt, weightLbs float64) OOGAnalysis {
	out := OOGAnalysis{SuggestedTrailer: "FLATBED"}

	if widthFt > MaxLegalWidthFt {
		out.IsOutOfGauge = true
		out.RequiresPermits = true
		out.Reasons = append(out.Reasons, fmt.Sprintf("width %.1f ft exceeds legal %.1f ft", widthFt, MaxLegalWidthFt))
		if widthFt > PilotCarWidthFt {
			out.RequiresPilotCar = true
			out.Reasons = append(out.Reasons, fmt.Sprintf("width %.1f ft requires pilot car escort", widthFt))
		}
	}

	if lengthFt > MaxLegalLengthFt {
		out.IsOutOfGauge = true
		out.RequiresPermits = true
		out.Reasons = append(out.Reasons, fmt.Sprintf("length %.1f ft exceeds legal %.1f ft", lengthFt, MaxLegalLengthFt))
	}

	if weightLbs > MaxLegalWeightLbs {
		out.IsOutOfGauge = true
		out.RequiresPermits = true
		out.Reasons = append(out.Reasons, fmt.Sprintf("weight %.0f lbs exceeds legal %.0f lbs", weightLbs, MaxLegalWeightLbs))
		out.SuggestedTrailer = "LOWBOY"
	}

	if heightFt > 0 {
		switch {
		case heightFt+lowboyDeckFt > maxTravelFt:
			// Too tall even on the lowest deck available.
			out.IsOutOfGauge = true
			out.RequiresPermits = true
			out.Reasons = append(out.Reasons, fmt.Sprintf("height %.1f ft exceeds travel limit on any trailer", heightFt))
			out.SuggestedTrailer = "LOWBOY"
		case heightFt+stepDeckFt > maxTravelFt:
			out.SuggestedTrailer = "LOWBOY"
		case heightFt+flatbedDeckFt > maxTravelFt:
			if out.SuggestedTrailer == "FLATBED" {
				out.SuggestedTrailer = "STEP_DECK"
			}
		}
	}

	return out
}
