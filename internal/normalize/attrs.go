package normalize

import (
	"strings"

	"freightmatch/internal"
)

// DeriveAttributes normalizes a quote's raw fields for one comparison. The
// route distance participates in service correction, so attributes are
// derived fresh per pairing and never cached on the quote.
func DeriveAttributes(q internal.Quote, distanceMiles *float64) internal.NormalizedAttributes {
	cargo := deref(q.CargoDescription)
	equipment := deref(q.Equipment)

	category := NormalizeServiceType(deref(q.ServiceType))
	category = CorrectServiceTypeByDistance(category, pickDistance(q, distanceMiles), cargo)

	var weightLbs *float64
	weightClass := internal.WeightUnknown
	if q.WeightValue != nil && *q.WeightValue > 0 {
		lbs := ConvertToLbs(*q.WeightValue, deref(q.WeightUnit))
		weightLbs = &lbs
		weightClass = ClassifyWeight(lbs)
	}

	cargoCategory := ClassifyCargo(cargo)
	if q.Hazmat {
		cargoCategory = internal.CargoHazmat
	}

	container, oog := DetectContainerType(equipment, cargo)
	if !oog {
		dims := dimensionsFt(q)
		var lbs float64
		if weightLbs != nil {
			lbs = *weightLbs
		}
		oog = AnalyzeOOGCargo(dims[0], dims[1], dims[2], lbs).IsOutOfGauge
	}

	return internal.NormalizedAttributes{
		ServiceCategory: category,
		Region:          GetRegion(deref(q.OriginCity), deref(q.OriginState), deref(q.OriginCountry)),
		DestRegion:      GetRegion(deref(q.DestCity), deref(q.DestState), deref(q.DestCountry)),
		CargoCategory:   cargoCategory,
		EquipmentType:   DetectEquipmentType(equipment, cargo),
		WeightClass:     weightClass,
		WeightLbs:       weightLbs,
		ContainerType:   container,
		IsOutOfGauge:    oog,
		International:   IsInternational(deref(q.OriginCountry), deref(q.DestCountry)),
	}
}

// dimensionsFt returns length, width, height in feet; zero means unknown.
func dimensionsFt(q internal.Quote) [3]float64 {
	unit := deref(q.DimensionUnit)
	var out [3]float64
	for i, v := range []*float64{q.LengthValue, q.WidthValue, q.HeightValue} {
		if v != nil && *v > 0 {
			out[i] = ConvertToFeet(*v, unit)
		}
	}
	return out
}

func pickDistance(q internal.Quote, distanceMiles *float64) *float64 {
	if distanceMiles != nil && *distanceMiles > 0 {
		return distanceMiles
	}
	return q.TotalDistanceMiles
}

var citySuffixes = []string{" city", " port", " harbor", " terminal"}
var cityPrefixes = []string{"port of ", "city of "}

var cityAliases = map[string]string{
	"la":     "los angeles",
	"nyc":    "new york",
	"ny":     "new york",
	"sf":     "san francisco",
	"philly": "philadelphia",
	"chi":    "chicago",
	"atl":    "atlanta",
	"hou":    "houston",
	"nola":   "new orleans",
	"vegas":  "las vegas",
}

// NormalizeCity folds case and strips the generic prefixes/suffixes that make
// the same place spell differently across quotes.
func NormalizeCity(city string) string {
	s := strings.ToLower(strings.TrimSpace(city))
	s = strings.Trim(s, ".,")
	for _, prefix := range cityPrefixes {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, suffix := range citySuffixes {
		s = strings.TrimSuffix(s, suffix)
	}
	s = strings.Join(strings.Fields(s), " ")
	if alias, ok := cityAliases[s]; ok {
		return alias
	}
	return s
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
