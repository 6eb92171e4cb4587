package matching

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
func bp(v bool) *bool       { return &v }

func tp(t time.Time) *time.Time { return &t }

func groundQuote(id string, price float64, ageDays int) internal.Quote {
	date := testNow.AddDate(0, 0, -ageDays)
	return internal.Quote{
		ID:                 id,
		OriginCity:         sp("Houston"),
		OriginState:        sp("TX"),
		OriginCountry:      sp("USA"),
		DestCity:           sp("Dallas"),
		DestState:          sp("TX"),
		DestCountry:        sp("USA"),
		CargoDescription:   sp("steel pipes"),
		WeightValue:        fp(42000),
		WeightUnit:         sp("lbs"),
		ServiceType:        sp("FTL trucking"),
		Equipment:          sp("flatbed"),
		QuoteDate:          tp(date),
		CreatedAt:          date,
		FinalAgreedPrice:   fp(price),
		JobWon:             bp(true),
		TotalDistanceMiles: fp(240),
	}
}

func TestScoreDeterminism(t *testing.T) {
	scorer := NewScorerWithClock(BaselineWeights(), fixedNow)
	source := groundQuote("src", 0, 0)
	source.FinalAgreedPrice = nil
	historical := groundQuote("hist", 1200, 30)

	first := scorer.Score(source, historical, fp(240), nil)
	for i := 0; i < 5; i++ {
		again := scorer.Score(source, historical, fp(240), nil)
		if again.Score != first.Score {
			t.Fatalf("score not deterministic: %v vs %v", again.Score, first.Score)
		}
	}
}

func TestScoreBoundsAndCriteriaCoverage(t *testing.T) {
	scorer := NewScorerWithClock(BaselineWeights(), fixedNow)
	source := groundQuote("src", 0, 0)
	pairs := []internal.Quote{
		groundQuote("same", 1200, 10),
		{ID: "empty"},
		{
			ID:            "ocean",
			OriginCity:    sp("Shanghai"),
			OriginCountry: sp("China"),
			DestCity:      sp("Los Angeles"),
			DestState:     sp("CA"),
			DestCountry:   sp("USA"),
			ServiceType:   sp("Ocean FCL"),
			CreatedAt:     testNow.AddDate(0, 0, -400),
		},
	}
	for _, historical := range pairs {
		result := scorer.Score(source, historical, fp(240), nil)
		if result.Score < 0 || result.Score > 1 {
			t.Fatalf("score out of bounds for %s: %v", historical.ID, result.Score)
		}
		weights := BaselineWeights()
		if len(result.Criteria) != len(weights) {
			t.Fatalf("criteria count %d, want one per weighted criterion %d", len(result.Criteria), len(weights))
		}
		for criterion, value := range result.Criteria {
			if value < 0 || value > 1 {
				t.Fatalf("criterion %s out of bounds: %v", criterion, value)
			}
		}
	}
}

func TestIdenticalQuotesScoreHigh(t *testing.T) {
	scorer := NewScorerWithClock(BaselineWeights(), fixedNow)
	source := groundQuote("src", 1200, 5)
	historical := groundQuote("hist", 1150, 5)
	result := scorer.Score(source, historical, fp(240), nil)
	if result.Score < 0.9 {
		t.Fatalf("near-identical quotes scored %v", result.Score)
	}
}

func TestLaneTypeMismatchPenalty(t *testing.T) {
	scorer := NewScorerWithClock(BaselineWeights(), fixedNow)

	intlOcean := internal.Quote{
		ID:                 "src",
		OriginCity:         sp("Shanghai"),
		OriginCountry:      sp("China"),
		DestCity:           sp("Long Beach"),
		DestState:          sp("CA"),
		DestCountry:        sp("USA"),
		ServiceType:        sp("Ocean FCL"),
		CargoDescription:   sp("40ft container"),
		CreatedAt:          testNow,
		TotalDistanceMiles: fp(6500),
	}
	domesticGround := groundQuote("hist", 1200, 10)

	mismatch := scorer.Score(intlOcean, domesticGround, nil, nil)
	if !mismatch.LaneMismatch {
		t.Fatalf("expected lane mismatch for international ocean vs domestic ground")
	}

	// Same comparison with the historical quote made international: the
	// mismatch penalty must at least halve the score.
	intlGround := domesticGround
	intlGround.OriginCity = sp("Shanghai")
	intlGround.OriginState = nil
	intlGround.OriginCountry = sp("China")
	control := scorer.Score(intlOcean, intlGround, nil, nil)
	if control.LaneMismatch {
		t.Fatalf("control comparison must not be a lane mismatch")
	}
	if mismatch.Score > 0.5*control.Score+1e-9 {
		t.Fatalf("mismatch score %v not <= half of control %v", mismatch.Score, control.Score)
	}
}

func TestWeightTableNormalization(t *testing.T) {
	attrs := internal.NormalizedAttributes{
		International: true,
		CargoCategory: internal.CargoMachinery,
	}
	adjusted := BaselineWeights().AdjustForContext(attrs)
	var sum float64
	for _, v := range adjusted {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("adjusted weights sum to %v, want 1", sum)
	}

	hazmat := internal.NormalizedAttributes{CargoCategory: internal.CargoHazmat}
	adjusted = BaselineWeights().AdjustForContext(hazmat)
	sum = 0
	for _, v := range adjusted {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("hazmat-adjusted weights sum to %v, want 1", sum)
	}
	base := BaselineWeights().Normalize()
	if adjusted[CritHazmat] <= base[CritHazmat] {
		t.Fatalf("hazmat weight not boosted: %v <= %v", adjusted[CritHazmat], base[CritHazmat])
	}
}

func TestRecencyDecay(t *testing.T) {
	scorer := NewScorerWithClock(BaselineWeights(), fixedNow)

	fresh := scorer.recencyScore(groundQuote("a", 100, 0))
	aged := scorer.recencyScore(groundQuote("b", 100, 75))
	old := scorer.recencyScore(groundQuote("c", 100, 3650))

	if fresh < 0.99 {
		t.Fatalf("fresh quote recency %v", fresh)
	}
	if math.Abs(aged-0.5) > 0.01 {
		t.Fatalf("75-day-old quote recency %v, want ~0.5", aged)
	}
	if old != 0.05 {
		t.Fatalf("ancient quote recency %v, want floor 0.05", old)
	}
	undated := scorer.recencyScore(internal.Quote{ID: "d"})
	if undated != 0.25 {
		t.Fatalf("undated quote recency %v, want 0.25", undated)
	}
}

func TestDistanceScoreBands(t *testing.T) {
	cases := []struct {
		a, b *float64
		want float64
	}{
		{fp(100), fp(105), 1.0},
		{fp(100), fp(118), 0.85},
		{fp(100), fp(130), 0.60},
		{fp(100), fp(180), 0.40},
		{fp(100), fp(300), 0.20},
		{fp(100), fp(900), 0.05},
		{nil, fp(100), 0.2},
		{fp(100), nil, 0.2},
	}
	for _, tc := range cases {
		if got := distanceScore(tc.a, tc.b); got != tc.want {
			t.Fatalf("distanceScore(%v,%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCargoScorePairs(t *testing.T) {
	if got := cargoScore(internal.CargoMachinery, internal.CargoMachinery); got != 1.0 {
		t.Fatalf("exact cargo = %v", got)
	}
	if got := cargoScore(internal.CargoAgricultural, internal.CargoMachinery); got != 0 {
		t.Fatalf("incompatible cargo = %v, want 0", got)
	}
	if got := cargoScore(internal.CargoGeneral, internal.CargoMachinery); got != 0.3 {
		t.Fatalf("general cargo = %v, want 0.3", got)
	}
	if got := cargoScore(internal.CargoIndustrial, internal.CargoMachinery); got != 0.15 {
		t.Fatalf("unrelated cargo = %v, want 0.15", got)
	}
}
