package matching

import (
	"math"
	"sort"
	"strings"
	"time"

	"freightmatch/internal"
	"freightmatch/internal/normalize"
)

type ScoreResult struct {
	Score        float64
	Criteria     internal.MatchCriteria
	LaneMismatch bool
}

// Scorer computes weighted multi-criteria similarity between a source quote
// and one historical quote. Scoring is asymmetric: corrections and contextual
// weight overlays follow the source quote.
type Scorer struct {
	weights WeightTable
	now     func() time.Time
}

func NewScorer(weights WeightTable) *Scorer {
	return &Scorer{weights: weights.Normalize(), now: time.Now}
}

func NewScorerWithClock(weights WeightTable, now func() time.Time) *Scorer {
	return &Scorer{weights: weights.Normalize(), now: now}
}

// Score produces a similarity in [0,1] plus the per-criterion breakdown.
// Distances are optional; unknown distance is scored as risk, not ignored.
func (s *Scorer) Score(source, historical internal.Quote, sourceDistance, historicalDistance *float64) ScoreResult {
	srcAttrs := normalize.DeriveAttributes(source, sourceDistance)
	histAttrs := normalize.DeriveAttributes(historical, historicalDistance)

	weights := s.weights.AdjustForContext(srcAttrs)

	srcMiles := effectiveMiles(source, sourceDistance)
	histMiles := effectiveMiles(historical, historicalDistance)

	serviceScore, laneMismatch := s.serviceScore(srcAttrs, histAttrs, srcMiles, histMiles)

	// Accumulate in sorted-key order so float rounding cannot vary with map
	// iteration order; the documented contract is deterministic scores.
	criterionOrder := make([]string, 0, len(weights))
	for criterion := range weights {
		criterionOrder = append(criterionOrder, criterion)
	}
	sort.Strings(criterionOrder)

	criteria := make(internal.MatchCriteria, len(weights))
	var totalScore, totalWeight float64
	for _, criterion := range criterionOrder {
		weight := weights[criterion]
		var value float64
		switch criterion {
		case CritOriginCity:
			value = cityScore(source.OriginCity, historical.OriginCity, source.OriginState, historical.OriginState)
		case CritDestCity:
			value = cityScore(source.DestCity, historical.DestCity, source.DestState, historical.DestState)
		case CritOriginRegion:
			value = binaryScore(srcAttrs.Region == histAttrs.Region)
		case CritDestRegion:
			value = binaryScore(srcAttrs.DestRegion == histAttrs.DestRegion)
		case CritDistanceSimilarity:
			value = distanceScore(srcMiles, histMiles)
		case CritServiceType:
			value = serviceScore
		case CritCargoCategory:
			value = cargoScore(srcAttrs.CargoCategory, histAttrs.CargoCategory)
		case CritWeightClass:
			value = weightClassScore(srcAttrs.WeightClass, histAttrs.WeightClass)
		case CritWeightSimilarity:
			value = weightSimilarityScore(srcAttrs.WeightLbs, histAttrs.WeightLbs)
		case CritEquipmentType:
			value = equipmentScore(srcAttrs.EquipmentType, histAttrs.EquipmentType)
		case CritContainerType:
			value = containerScore(srcAttrs, histAttrs)
		case CritHazmat:
			value = binaryOrPenalty(srcAttrs.CargoCategory == internal.CargoHazmat, histAttrs.CargoCategory == internal.CargoHazmat)
		case CritRecency:
			value = s.recencyScore(historical)
		default:
			// Unknown criterion in a learned table: skip, weight excluded.
			continue
		}
		criteria[criterion] = value
		totalScore += value * weight
		totalWeight += weight
	}

	score := 0.0
	if totalWeight > 0 {
		score = totalScore / totalWeight
	}

	// Long hauls are price-sensitive to route length and cargo at the same
	// time; the weighted sum alone under-penalizes a bad long-haul match.
	if srcAttrs.ServiceCategory == internal.ServiceGround && srcMiles != nil && *srcMiles > 500 {
		if criteria[CritDistanceSimilarity] < 0.85 {
			score *= 0.8
		}
		if criteria[CritCargoCategory] < 1.0 {
			score *= 0.85
		}
	}

	if laneMismatch {
		score *= 0.5
	}

	return ScoreResult{Score: clamp01(score), Criteria: criteria, LaneMismatch: laneMismatch}
}

func effectiveMiles(q internal.Quote, override *float64) *float64 {
	if override != nil && *override > 0 {
		return override
	}
	if q.TotalDistanceMiles != nil && *q.TotalDistanceMiles > 0 {
		return q.TotalDistanceMiles
	}
	return nil
}

func cityScore(a, b, stateA, stateB *string) float64 {
	cityA := normalize.NormalizeCity(strDeref(a))
	cityB := normalize.NormalizeCity(strDeref(b))
	if cityA == "" || cityB == "" {
		return 0
	}
	if cityA == cityB {
		return 1.0
	}
	// Same-state prefix names ("Ft Worth" / "Fort Worth" style truncations).
	sameState := strings.EqualFold(strings.TrimSpace(strDeref(stateA)), strings.TrimSpace(strDeref(stateB))) && strings.TrimSpace(strDeref(stateA)) != ""
	if sameState && len(cityA) >= 4 && len(cityB) >= 4 {
		if strings.HasPrefix(cityA, cityB) || strings.HasPrefix(cityB, cityA) {
			return 0.7
		}
	}
	return 0
}

func binaryScore(match bool) float64 {
	if match {
		return 1.0
	}
	return 0
}

func binaryOrPenalty(a, b bool) float64 {
	if a == b {
		return 1.0
	}
	return 0.1
}

// serviceScore also reports a lane-type mismatch, which later halves the
// final blended score.
func (s *Scorer) serviceScore(src, hist internal.NormalizedAttributes, srcMiles, histMiles *float64) (float64, bool) {
	waterborne := src.ServiceCategory == internal.ServiceOcean || src.ServiceCategory == internal.ServiceIntermodal ||
		hist.ServiceCategory == internal.ServiceOcean || hist.ServiceCategory == internal.ServiceIntermodal
	if waterborne && src.International != hist.International {
		return 0, true
	}

	if src.ServiceCategory == hist.ServiceCategory {
		if src.ServiceCategory == internal.ServiceUnknown {
			return 0.3, false
		}
		return 1.0, false
	}

	pair := [2]internal.ServiceCategory{src.ServiceCategory, hist.ServiceCategory}
	switch {
	case pairIs(pair, internal.ServiceGround, internal.ServiceDrayage):
		// Interchangeable only when both legs are short-haul.
		if shortHaul(srcMiles) && shortHaul(histMiles) {
			return 0.8, false
		}
		return 0, false
	case pairIs(pair, internal.ServiceOcean, internal.ServiceIntermodal):
		return 0.8, false
	case pairIs(pair, internal.ServiceTransload, internal.ServiceDrayage):
		return 0.6, false
	case pairIs(pair, internal.ServiceIntermodal, internal.ServiceGround):
		return 0.4, false
	}
	return 0, false
}

func pairIs(pair [2]internal.ServiceCategory, a, b internal.ServiceCategory) bool {
	return (pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a)
}

func shortHaul(miles *float64) bool {
	return miles != nil && *miles < 150
}

var cargoIncompatible = map[internal.CargoCategory][]internal.CargoCategory{
	internal.CargoAgricultural: {internal.CargoMachinery, internal.CargoVehicles, internal.CargoHazmat},
}

func cargoScore(a, b internal.CargoCategory) float64 {
	if a == b {
		if a == internal.CargoUnknown {
			return 0.3
		}
		return 1.0
	}
	for _, incompatible := range cargoIncompatible[a] {
		if b == incompatible {
			return 0
		}
	}
	for _, incompatible := range cargoIncompatible[b] {
		if a == incompatible {
			return 0
		}
	}
	if a == internal.CargoGeneral || a == internal.CargoUnknown || b == internal.CargoGeneral || b == internal.CargoUnknown {
		return 0.3
	}
	return 0.15
}

func weightClassScore(a, b internal.WeightClass) float64 {
	dist := normalize.WeightClassDistance(a, b)
	switch dist {
	case -1:
		return 0.3
	case 0:
		return 1.0
	case 1:
		return 0.65
	case 2:
		return 0.25
	default:
		return 0
	}
}

func weightSimilarityScore(a, b *float64) float64 {
	if a == nil || b == nil || *a <= 0 || *b <= 0 {
		return 0.35
	}
	larger := math.Max(*a, *b)
	diff := math.Abs(*a-*b) / larger
	switch {
	case diff <= 0.15:
		return 1.0
	case diff <= 0.30:
		return 0.7
	case diff <= 0.50:
		return 0.4
	default:
		return 0.1
	}
}

func distanceScore(a, b *float64) float64 {
	if a == nil || b == nil {
		// Unknown distance is risk, not "don't care".
		return 0.2
	}
	larger := math.Max(*a, *b)
	if larger == 0 {
		return 0.2
	}
	diff := math.Abs(*a-*b) / larger
	switch {
	case diff <= 0.10:
		return 1.0
	case diff <= 0.20:
		return 0.85
	case diff <= 0.35:
		return 0.60
	case diff <= 0.50:
		return 0.40
	case diff <= 0.75:
		return 0.20
	default:
		return 0.05
	}
}

var equipmentCompatible = map[internal.EquipmentType][]internal.EquipmentType{
	internal.EquipFlatbed:  {internal.EquipStepDeck},
	internal.EquipStepDeck: {internal.EquipFlatbed, internal.EquipLowboy},
	internal.EquipLowboy:   {internal.EquipStepDeck},
}

func equipmentScore(a, b internal.EquipmentType) float64 {
	if a == b {
		if a == internal.EquipUnknown {
			return 0.5
		}
		return 1.0
	}
	if a == internal.EquipUnknown || b == internal.EquipUnknown {
		return 0.5
	}
	for _, compatible := range equipmentCompatible[a] {
		if b == compatible {
			return 0.7
		}
	}
	return 0.2
}

func containerScore(src, hist internal.NormalizedAttributes) float64 {
	if src.IsOutOfGauge != hist.IsOutOfGauge {
		return 0.2
	}
	if src.ContainerType == hist.ContainerType {
		if src.ContainerType == internal.ContainerUnknown {
			return 0.5
		}
		return 1.0
	}
	if src.ContainerType == internal.ContainerUnknown || hist.ContainerType == internal.ContainerUnknown {
		return 0.4
	}
	return 0.3
}

const recencyHalfLifeDays = 75.0

func (s *Scorer) recencyScore(historical internal.Quote) float64 {
	date := historical.EffectiveDate()
	if date == nil {
		return 0.25
	}
	ageDays := s.now().Sub(*date).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	score := math.Pow(0.5, ageDays/recencyHalfLifeDays)
	if score < 0.05 {
		return 0.05
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func strDeref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
