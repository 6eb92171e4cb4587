package pricing

import (
	"math"
	"testing"
	"time"

	"freightmatch/internal"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func sp(v string) *string   { return &v }
func fp(v float64) *float64 { return &v }

func matchesFor(prices []float64, score float64) []internal.Match {
	out := make([]internal.Match, 0, len(prices))
	for i, p := range prices {
		out = append(out, internal.Match{
			SourceQuoteID:   "src",
			MatchedQuoteID:  string(rune('a' + i)),
			SimilarityScore: score,
			SuggestedPrice:  p,
		})
	}
	return out
}

func TestStatisticalPricingTiers(t *testing.T) {
	engine := NewEngineWithClock(fixedNow)
	source := internal.Quote{ID: "src", ServiceType: sp("FTL")}

	high := engine.Price(source, matchesFor([]float64{980, 1000, 1010, 1020, 990}, 0.85), nil)
	if high.ConfidenceTier != internal.ConfidenceHigh {
		t.Fatalf("tight 5-match set tier = %s, want HIGH", high.ConfidenceTier)
	}
	if high.ConfidencePercentage != 85 {
		t.Fatalf("HIGH confidence = %v", high.ConfidencePercentage)
	}

	medium := engine.Price(source, matchesFor([]float64{900, 1000, 1150}, 0.65), nil)
	if medium.ConfidenceTier != internal.ConfidenceMedium {
		t.Fatalf("3-match set tier = %s, want MEDIUM", medium.ConfidenceTier)
	}

	low := engine.Price(source, matchesFor([]float64{700, 1400}, 0.58), nil)
	if low.ConfidenceTier != internal.ConfidenceLow {
		t.Fatalf("2-match set tier = %s, want LOW", low.ConfidenceTier)
	}

	single := engine.Price(source, matchesFor([]float64{1000}, 0.58), nil)
	if single.ConfidenceTier != internal.ConfidenceVeryLow {
		t.Fatalf("1-match tier = %s, want VERY_LOW", single.ConfidenceTier)
	}
}

func TestConfidenceMonotoneInConsistentMatches(t *testing.T) {
	engine := NewEngineWithClock(fixedNow)
	source := internal.Quote{ID: "src", ServiceType: sp("FTL")}

	order := map[internal.ConfidenceTier]int{
		internal.ConfidenceVeryLow: 0,
		internal.ConfidenceLow:     1,
		internal.ConfidenceMedium:  2,
		internal.ConfidenceHigh:    3,
	}

	prev := -1
	prices := []float64{}
	for i := 0; i < 8; i++ {
		prices = append(prices, 1000+float64(i%3))
		rec := engine.Price(source, matchesFor(prices, 0.8), nil)
		tier := order[rec.ConfidenceTier]
		if tier < prev {
			t.Fatalf("confidence tier dropped from %d to %d at %d consistent matches", prev, tier, len(prices))
		}
		prev = tier
	}
}

func TestStatisticalPriceWithinObservedSpread(t *testing.T) {
	engine := NewEngineWithClock(fixedNow)
	source := internal.Quote{ID: "src", ServiceType: sp("FTL")}

	// The matcher's IQR pass removes $9000 before pricing; the surviving
	// four must price between $850 and $1150.
	rec := engine.Price(source, matchesFor([]float64{900, 950, 1000, 1050}, 0.8), nil)
	if rec.RecommendedPrice < 850 || rec.RecommendedPrice > 1150 {
		t.Fatalf("statistical price %v outside [850,1150]", rec.RecommendedPrice)
	}
	if rec.FloorPrice > rec.RecommendedPrice || rec.CeilingPrice < rec.RecommendedPrice {
		t.Fatalf("range does not contain price: %+v", rec)
	}
}

func TestFallbackGuarantee(t *testing.T) {
	engine := NewEngineWithClock(fixedNow)

	source := internal.Quote{
		ID:               "src",
		OriginCity:       sp("Houston"),
		OriginState:      sp("TX"),
		DestCity:         sp("Dallas"),
		DestState:        sp("TX"),
		ServiceType:      sp("FTL"),
		CargoDescription: sp("steel pipes"),
	}
	rec := engine.Price(source, nil, fp(240))

	if rec.RecommendedPrice <= 0 {
		t.Fatalf("fallback produced no price: %+v", rec)
	}
	if rec.ConfidencePercentage > 35 {
		t.Fatalf("fallback confidence %v above low band", rec.ConfidencePercentage)
	}
	if rec.Method != internal.MethodRateCard {
		t.Fatalf("fallback method = %s", rec.Method)
	}
	if math.Mod(rec.RecommendedPrice, 25) != 0 {
		t.Fatalf("rate-card price %v not rounded to $25", rec.RecommendedPrice)
	}

	// Even a completely empty quote gets a price.
	empty := engine.Price(internal.Quote{ID: "empty"}, nil, nil)
	if empty.RecommendedPrice <= 0 {
		t.Fatalf("empty quote priced %v", empty.RecommendedPrice)
	}
	if empty.ConfidencePercentage != 25 {
		t.Fatalf("unknown-distance fallback confidence = %v, want 25", empty.ConfidencePercentage)
	}
}

func TestRateCardSurcharges(t *testing.T) {
	engine := NewEngineWithClock(fixedNow)

	plain := internal.Quote{
		ID:                 "plain",
		ServiceType:        sp("FTL"),
		CargoDescription:   sp("pallets of parts"),
		TotalDistanceMiles: fp(400),
	}
	hazmat := plain
	hazmat.ID = "hazmat"
	hazmat.Hazmat = true

	plainRec := engine.Price(plain, nil, nil)
	hazmatRec := engine.Price(hazmat, nil, nil)
	if hazmatRec.RecommendedPrice <= plainRec.RecommendedPrice {
		t.Fatalf("hazmat %v not priced above plain %v", hazmatRec.RecommendedPrice, plainRec.RecommendedPrice)
	}

	heavy := plain
	heavy.ID = "heavy"
	heavy.WeightValue = fp(120000)
	heavy.WeightUnit = sp("lbs")
	heavyRec := engine.Price(heavy, nil, nil)
	if heavyRec.RecommendedPrice <= plainRec.RecommendedPrice {
		t.Fatalf("superload %v not priced above plain %v", heavyRec.RecommendedPrice, plainRec.RecommendedPrice)
	}

	short := plain
	short.ID = "short"
	shortRec := engine.Price(short, nil, fp(5))
	if shortRec.RecommendedPrice < 350 {
		t.Fatalf("minimum charge not applied: %v", shortRec.RecommendedPrice)
	}
}

func TestBiasConfidenceWithActuals(t *testing.T) {
	base := internal.PricingRecommendation{
		RecommendedPrice:     975,
		FloorPrice:           922.5,
		CeilingPrice:         1027.5,
		ConfidencePercentage: 68,
		Breakdown:            map[string]float64{},
	}

	corroborated := BiasConfidenceWithActuals(base, []float64{960, 990})
	if corroborated.ConfidencePercentage != 73 {
		t.Fatalf("in-band actuals confidence = %v, want 73", corroborated.ConfidencePercentage)
	}
	if corroborated.Breakdown["actual_price_median"] != 975 {
		t.Fatalf("actual median = %v", corroborated.Breakdown["actual_price_median"])
	}
	if corroborated.Breakdown["actual_price_count"] != 2 {
		t.Fatalf("actual count = %v", corroborated.Breakdown["actual_price_count"])
	}

	contradicted := BiasConfidenceWithActuals(base, []float64{1500, 1600, 1550})
	if contradicted.ConfidencePercentage != 63 {
		t.Fatalf("far-off actuals confidence = %v, want 63", contradicted.ConfidencePercentage)
	}

	// A lone actual or a mild disagreement moves nothing.
	if got := BiasConfidenceWithActuals(base, []float64{960}); got.ConfidencePercentage != 68 {
		t.Fatalf("single actual changed confidence: %v", got.ConfidencePercentage)
	}
	if got := BiasConfidenceWithActuals(base, []float64{1100, 1120}); got.ConfidencePercentage != 68 {
		t.Fatalf("mild disagreement changed confidence: %v", got.ConfidencePercentage)
	}

	capped := base
	capped.ConfidencePercentage = 93
	if got := BiasConfidenceWithActuals(capped, []float64{960, 990}); got.ConfidencePercentage != 95 {
		t.Fatalf("confidence not capped at 95: %v", got.ConfidencePercentage)
	}
}

func TestStatsHelpers(t *testing.T) {
	values := []float64{900, 950, 1000, 1050, 9000}

	if got := median(values); got != 1000 {
		t.Fatalf("median = %v", got)
	}
	if got := trimmedMean(values, 0.10); got != mean(values) {
		// 10% of 5 values trims zero from each end.
		t.Fatalf("trimmedMean(5 values) = %v, want mean %v", got, mean(values))
	}
	ten := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
	if got := trimmedMean(ten, 0.10); got != 5.5 {
		t.Fatalf("trimmedMean(10 values) = %v, want 5.5", got)
	}
	if got := weightedMean([]float64{100, 200}, []float64{3, 1}); got != 125 {
		t.Fatalf("weightedMean = %v, want 125", got)
	}
	if cv := coefficientOfVariation([]float64{1000, 1000, 1000}); cv != 0 {
		t.Fatalf("cv of constant series = %v", cv)
	}
}
