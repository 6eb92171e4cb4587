package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"freightmatch/internal"
)

// Confidence tiers map data quality to a confidence percentage and a price
// range half-width.
var tierSettings = map[internal.ConfidenceTier]struct {
	confidence float64
	rangeFrac  float64
}{
	internal.ConfidenceHigh:    {85, 0.10},
	internal.ConfidenceMedium:  {68, 0.15},
	internal.ConfidenceLow:     {45, 0.20},
	internal.ConfidenceVeryLow: {30, 0.25},
}

// Engine produces a PricingRecommendation from ranked matches, or from the
// rate card when no matches survive. Every code path terminates in a
// recommendation.
type Engine struct {
	rateCard RateCard
	now      func() time.Time
}

func NewEngine() *Engine {
	return &Engine{rateCard: DefaultRateCard(), now: time.Now}
}

func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{rateCard: DefaultRateCard(), now: now}
}

// Price picks the statistical tier when matches exist and falls back to the
// rate card otherwise.
func (e *Engine) Price(source internal.Quote, matches []internal.Match, distanceMiles *float64) internal.PricingRecommendation {
	if len(matches) == 0 {
		return e.rateCardRecommendation(source, distanceMiles)
	}
	return e.statisticalRecommendation(source, matches)
}

func (e *Engine) statisticalRecommendation(source internal.Quote, matches []internal.Match) internal.PricingRecommendation {
	prices := make([]float64, len(matches))
	weights := make([]float64, len(matches))
	bestScore := 0.0
	for i, m := range matches {
		prices[i] = m.SuggestedPrice
		weights[i] = m.SimilarityScore
		if m.SimilarityScore > bestScore {
			bestScore = m.SimilarityScore
		}
	}

	avg := mean(prices)
	med := median(prices)
	trimmed := trimmedMean(prices, 0.10)
	weighted := weightedMean(prices, weights)
	cv := coefficientOfVariation(prices)

	tier := confidenceTier(len(matches), cv, bestScore)
	var price float64
	switch tier {
	case internal.ConfidenceHigh:
		price = weighted
	case internal.ConfidenceMedium:
		price = 0.6*weighted + 0.4*med
	default:
		// Favor robustness over the top match when the data is thin.
		price = 0.7*med + 0.3*trimmed
	}

	settings := tierSettings[tier]
	floor := price * (1 - settings.rangeFrac)
	ceiling := price * (1 + settings.rangeFrac)

	// With enough observations, the observed spread bounds the range.
	if len(prices) >= 4 {
		if p15 := percentile(prices, 15); p15 > floor {
			floor = p15
		}
		if p85 := percentile(prices, 85); p85 < ceiling {
			ceiling = p85
		}
	}
	if floor > price {
		floor = price
	}
	if ceiling < price {
		ceiling = price
	}

	return internal.PricingRecommendation{
		ID:                   uuid.NewString(),
		QuoteID:              source.ID,
		RecommendedPrice:     round2(price),
		FloorPrice:           round2(floor),
		TargetPrice:          round2(price),
		CeilingPrice:         round2(ceiling),
		ConfidencePercentage: settings.confidence,
		ConfidenceTier:       tier,
		Method:               internal.MethodStatistical,
		Reasoning: fmt.Sprintf("Based on %d comparable historical quotes (best similarity %.2f, price variation %.0f%%). %s confidence: recommended %s estimate.",
			len(matches), bestScore, cv*100, tier, tierLabel(tier)),
		Breakdown: map[string]float64{
			"mean":             round2(avg),
			"median":           round2(med),
			"trimmed_mean":     round2(trimmed),
			"weighted_average": round2(weighted),
			"cv":               cv,
			"match_count":      float64(len(matches)),
			"best_score":       bestScore,
		},
		MarketFactors: marketFactors(source),
		CreatedAt:     e.now(),
	}
}

// confidenceTier is monotone in match count and consistency: adding
// consistent matches never drops the tier.
func confidenceTier(count int, cv, bestScore float64) internal.ConfidenceTier {
	switch {
	case count >= 5 && cv < 0.20 && bestScore >= 0.75:
		return internal.ConfidenceHigh
	case count >= 3 && cv < 0.35 && bestScore >= 0.60:
		return internal.ConfidenceMedium
	case count >= 2:
		return internal.ConfidenceLow
	default:
		return internal.ConfidenceVeryLow
	}
}

// BiasConfidenceWithActuals folds prices operators actually transacted at
// into the recommendation's confidence. A median inside the floor/ceiling
// band corroborates the estimate; one deviating more than 25% from the
// recommended price contradicts it. Fewer than two actuals carry no signal.
func BiasConfidenceWithActuals(rec internal.PricingRecommendation, actuals []float64) internal.PricingRecommendation {
	if len(actuals) < 2 || rec.RecommendedPrice <= 0 {
		return rec
	}
	med := median(actuals)
	switch {
	case med >= rec.FloorPrice && med <= rec.CeilingPrice:
		rec.ConfidencePercentage = math.Min(rec.ConfidencePercentage+5, 95)
	case math.Abs(med-rec.RecommendedPrice)/rec.RecommendedPrice > 0.25:
		rec.ConfidencePercentage = math.Max(rec.ConfidencePercentage-5, 5)
	}
	if rec.Breakdown != nil {
		rec.Breakdown["actual_price_median"] = round2(med)
		rec.Breakdown["actual_price_count"] = float64(len(actuals))
	}
	return rec
}

func tierLabel(tier internal.ConfidenceTier) string {
	switch tier {
	case internal.ConfidenceHigh:
		return "similarity-weighted"
	case internal.ConfidenceMedium:
		return "blended weighted/median"
	default:
		return "median-anchored"
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
