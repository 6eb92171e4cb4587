package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"freightmatch/internal"
	"freightmatch/internal/normalize"
)

// RateCard prices a lane with no comparables: distance times a per-mile rate,
// shaped by regional, cargo and equipment multipliers plus flat surcharges.
type RateCard struct {
	PerMile          map[internal.ServiceCategory]float64
	MinimumCharge    map[internal.ServiceCategory]float64
	DefaultMiles     map[internal.ServiceCategory]float64
	RegionMultiplier map[string]float64
	CargoMultiplier  map[internal.CargoCategory]float64
	EquipMultiplier  map[internal.EquipmentType]float64
	EquipFlatCharge  map[internal.EquipmentType]float64
	WeightSurcharge  map[internal.WeightClass]float64
	HazmatSurcharge  float64
}

func DefaultRateCard() RateCard {
	return RateCard{
		PerMile: map[internal.ServiceCategory]float64{
			internal.ServiceGround:     2.75,
			internal.ServiceDrayage:    6.50,
			internal.ServiceOcean:      1.10,
			internal.ServiceIntermodal: 1.85,
			internal.ServiceTransload:  2.25,
			internal.ServiceAir:        18.00,
			internal.ServiceStorage:    0.0,
			internal.ServiceUnknown:    3.00,
		},
		MinimumCharge: map[internal.ServiceCategory]float64{
			internal.ServiceGround:     350,
			internal.ServiceDrayage:    450,
			internal.ServiceOcean:      1500,
			internal.ServiceIntermodal: 900,
			internal.ServiceTransload:  500,
			internal.ServiceAir:        2500,
			internal.ServiceStorage:    250,
			internal.ServiceUnknown:    500,
		},
		// Used when route distance is unknown; typical lane length per mode.
		DefaultMiles: map[internal.ServiceCategory]float64{
			internal.ServiceGround:     500,
			internal.ServiceDrayage:    35,
			internal.ServiceOcean:      5500,
			internal.ServiceIntermodal: 1200,
			internal.ServiceTransload:  150,
			internal.ServiceAir:        1800,
			internal.ServiceStorage:    0,
			internal.ServiceUnknown:    400,
		},
		RegionMultiplier: map[string]float64{
			"WEST_COAST": 1.12,
			"NORTHEAST":  1.10,
			"GULF_COAST": 1.05,
			"SOUTHEAST":  1.02,
			"MIDWEST":    1.00,
			"SOUTHWEST":  1.00,
			"MOUNTAIN":   1.08,
			"OTHER_US":   1.00,
			"CANADA":     1.15,
			"MEXICO":     1.20,
			"EUROPE":     1.25,
			"ASIA":       1.25,
			"OTHER":      1.25,
		},
		CargoMultiplier: map[internal.CargoCategory]float64{
			internal.CargoOversized:    1.50,
			internal.CargoHazmat:       1.35,
			internal.CargoMachinery:    1.25,
			internal.CargoVehicles:     1.15,
			internal.CargoIndustrial:   1.10,
			internal.CargoContainers:   1.05,
			internal.CargoAgricultural: 1.00,
			internal.CargoGeneral:      1.00,
			internal.CargoUnknown:      1.00,
		},
		EquipMultiplier: map[internal.EquipmentType]float64{
			internal.EquipLowboy:   1.35,
			internal.EquipReefer:   1.20,
			internal.EquipStepDeck: 1.15,
			internal.EquipFlatbed:  1.10,
			internal.EquipChassis:  1.05,
			internal.EquipDryVan:   1.00,
			internal.EquipUnknown:  1.00,
		},
		EquipFlatCharge: map[internal.EquipmentType]float64{
			internal.EquipLowboy:   250,
			internal.EquipStepDeck: 100,
		},
		WeightSurcharge: map[internal.WeightClass]float64{
			internal.WeightOverweight: 500,
			internal.WeightSuperload:  1500,
			internal.WeightProject:    4000,
		},
		HazmatSurcharge: 350,
	}
}

func (e *Engine) rateCardRecommendation(source internal.Quote, distanceMiles *float64) internal.PricingRecommendation {
	attrs := normalize.DeriveAttributes(source, distanceMiles)
	card := e.rateCard

	miles := 0.0
	haveMiles := false
	if distanceMiles != nil && *distanceMiles > 0 {
		miles, haveMiles = *distanceMiles, true
	} else if source.TotalDistanceMiles != nil && *source.TotalDistanceMiles > 0 {
		miles, haveMiles = *source.TotalDistanceMiles, true
	} else {
		miles = card.DefaultMiles[attrs.ServiceCategory]
	}

	regionMult := multiplierOr(card.RegionMultiplier, attrs.Region, 1.0)
	if destMult := multiplierOr(card.RegionMultiplier, attrs.DestRegion, 1.0); destMult > regionMult {
		regionMult = destMult
	}

	base := decimal.NewFromFloat(miles).
		Mul(decimal.NewFromFloat(card.PerMile[attrs.ServiceCategory])).
		Mul(decimal.NewFromFloat(regionMult)).
		Mul(decimal.NewFromFloat(card.CargoMultiplier[attrs.CargoCategory])).
		Mul(decimal.NewFromFloat(card.EquipMultiplier[attrs.EquipmentType]))

	base = base.Add(decimal.NewFromFloat(card.WeightSurcharge[attrs.WeightClass]))
	base = base.Add(decimal.NewFromFloat(card.EquipFlatCharge[attrs.EquipmentType]))
	if attrs.CargoCategory == internal.CargoHazmat {
		base = base.Add(decimal.NewFromFloat(card.HazmatSurcharge))
	}

	if minimum := decimal.NewFromFloat(card.MinimumCharge[attrs.ServiceCategory]); base.LessThan(minimum) {
		base = minimum
	}

	price := roundToNearest(base, 25)

	confidence := 30.0
	if !haveMiles {
		confidence = 25.0
	}

	priceF, _ := price.Float64()
	return internal.PricingRecommendation{
		ID:                   uuid.NewString(),
		QuoteID:              source.ID,
		RecommendedPrice:     priceF,
		FloorPrice:           round2(priceF * 0.85),
		TargetPrice:          priceF,
		CeilingPrice:         round2(priceF * 1.20),
		ConfidencePercentage: confidence,
		ConfidenceTier:       internal.ConfidenceVeryLow,
		Method:               internal.MethodRateCard,
		Reasoning: fmt.Sprintf("No comparable historical quotes found; rate-card estimate for %s over %.0f miles (%s cargo, %s equipment).",
			attrs.ServiceCategory, miles, attrs.CargoCategory, attrs.EquipmentType),
		Breakdown: map[string]float64{
			"miles":             miles,
			"per_mile_rate":     card.PerMile[attrs.ServiceCategory],
			"region_multiplier": regionMult,
			"cargo_multiplier":  card.CargoMultiplier[attrs.CargoCategory],
			"equip_multiplier":  card.EquipMultiplier[attrs.EquipmentType],
			"weight_surcharge":  card.WeightSurcharge[attrs.WeightClass],
			"minimum_charge":    card.MinimumCharge[attrs.ServiceCategory],
		},
		MarketFactors: marketFactors(source),
		CreatedAt:     e.now(),
	}
}

// roundToNearest rounds a money amount to the nearest multiple of step.
func roundToNearest(v decimal.Decimal, step int64) decimal.Decimal {
	stepD := decimal.NewFromInt(step)
	return v.Div(stepD).Round(0).Mul(stepD)
}

func multiplierOr(table map[string]float64, key string, fallback float64) float64 {
	if v, ok := table[key]; ok && v > 0 {
		return v
	}
	return fallback
}

func marketFactors(source internal.Quote) map[string]string {
	attrs := normalize.DeriveAttributes(source, nil)
	factors := map[string]string{
		"service_category": string(attrs.ServiceCategory),
		"cargo_category":   string(attrs.CargoCategory),
		"origin_region":    attrs.Region,
		"dest_region":      attrs.DestRegion,
	}
	if attrs.International {
		factors["lane_type"] = "international"
	} else {
		factors["lane_type"] = "domestic"
	}
	if attrs.IsOutOfGauge {
		factors["out_of_gauge"] = "true"
	}
	return factors
}
