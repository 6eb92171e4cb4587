package matching

import (
	"fmt"
	"strings"
	"time"

	"freightmatch/internal"
	"freightmatch/internal/normalize"
)

const (
	minPlausiblePrice = 50.0
	maxPlausiblePrice = 1000000.0

	// A historical quote needs at least this quality to stay in the pool.
	MinQualityScore = 0.3
)

// Plausible price-per-mile bands by service category. Outside the band the
// quote is penalized, not rejected: odd lanes exist, typos dominate.
var perMileBands = map[internal.ServiceCategory][2]float64{
	internal.ServiceGround:     {1.0, 30.0},
	internal.ServiceDrayage:    {2.0, 120.0},
	internal.ServiceOcean:      {0.2, 20.0},
	internal.ServiceIntermodal: {0.5, 20.0},
	internal.ServiceTransload:  {0.5, 60.0},
	internal.ServiceAir:        {2.0, 300.0},
}

// Validator screens historical quotes before they reach the scorer, so
// data-entry price errors and abandoned quotes never anchor new pricing.
type Validator struct {
	now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

func NewValidatorWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

func (v *Validator) Validate(q internal.Quote) internal.Validation {
	out := internal.Validation{QualityScore: 1.0}

	price := q.EffectivePrice()
	if price == nil {
		out.Warnings = append(out.Warnings, "no usable price")
		return out
	}
	if *price < minPlausiblePrice || *price > maxPlausiblePrice {
		out.Warnings = append(out.Warnings, fmt.Sprintf("price %.2f outside plausible bounds", *price))
		return out
	}
	out.Valid = true

	category := normalize.NormalizeServiceType(strDeref(q.ServiceType))
	category = normalize.CorrectServiceTypeByDistance(category, q.TotalDistanceMiles, strDeref(q.CargoDescription))

	if q.TotalDistanceMiles != nil && *q.TotalDistanceMiles > 0 {
		if band, ok := perMileBands[category]; ok {
			perMile := *price / *q.TotalDistanceMiles
			if perMile < band[0] || perMile > band[1] {
				out.QualityScore *= 0.6
				out.Warnings = append(out.Warnings, fmt.Sprintf("implausible $/mile %.2f for %s", perMile, category))
			}
		}
	}

	if isBlank(q.OriginCity) || isBlank(q.DestCity) {
		out.QualityScore *= 0.8
		out.Warnings = append(out.Warnings, "missing origin or destination")
	}

	if date := q.EffectiveDate(); date != nil {
		ageDays := v.now().Sub(*date).Hours() / 24
		if ageDays > 365 {
			out.QualityScore *= 0.6
			out.Warnings = append(out.Warnings, "quote older than a year")
		} else if ageDays > 180 {
			out.QualityScore *= 0.85
			out.Warnings = append(out.Warnings, "quote older than six months")
		}
	} else {
		out.QualityScore *= 0.85
		out.Warnings = append(out.Warnings, "no quote date")
	}

	if category == internal.ServiceUnknown {
		out.QualityScore *= 0.85
		out.Warnings = append(out.Warnings, "unknown service category")
	}

	// Verified outcome: the customer accepted this price.
	if q.JobWon != nil && *q.JobWon && q.FinalAgreedPrice != nil && *q.FinalAgreedPrice > 0 {
		out.QualityScore *= 1.15
		if out.QualityScore > 1.0 {
			out.QualityScore = 1.0
		}
	}

	return out
}

func isBlank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}
