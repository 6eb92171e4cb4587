package ai

import (
	"context"
	"errors"
	"testing"

	"freightmatch/internal"
)

type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeGenerator) GenerateResponse(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var resp string
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func sp(v string) *string   { return &v }
func fp(v float64) *float64 { return &v }

func algoRec(price, floor, ceiling, confidence float64) internal.PricingRecommendation {
	return internal.PricingRecommendation{
		ID:                   "rec",
		QuoteID:              "src",
		RecommendedPrice:     price,
		FloorPrice:           floor,
		TargetPrice:          price,
		CeilingPrice:         ceiling,
		ConfidencePercentage: confidence,
		ConfidenceTier:       internal.ConfidenceMedium,
		Method:               internal.MethodStatistical,
		Reasoning:            "Based on 4 comparable historical quotes.",
	}
}

func sourceQuote() internal.Quote {
	return internal.Quote{
		ID:               "src",
		OriginCity:       sp("Houston"),
		OriginState:      sp("TX"),
		DestCity:         sp("Dallas"),
		DestState:        sp("TX"),
		ServiceType:      sp("FTL"),
		CargoDescription: sp("steel pipes"),
	}
}

func TestWildOpinionIsRejected(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"recommendedPrice": 5000, "confidence": 60, "reasoning": "market is hot"}`}}
	blender := NewBlender(gen)

	rec := algoRec(1000, 850, 1150, 68)
	out := blender.Enhance(context.Background(), sourceQuote(), nil, rec, fp(240))

	if out.RecommendedPrice < 850 || out.RecommendedPrice > 1150 {
		t.Fatalf("blended price %v escaped [850,1150]", out.RecommendedPrice)
	}
	if out.RecommendedPrice != 1000 || out.Method != internal.MethodStatistical {
		t.Fatalf("wild medium-confidence opinion not rejected: %+v", out)
	}
}

func TestHighConfidenceOpinionTrusted(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"recommendedPrice": 1100, "confidence": 90, "reasoning": "lane repriced"}`}}
	blender := NewBlender(gen)

	out := blender.Enhance(context.Background(), sourceQuote(), nil, algoRec(1000, 850, 1150, 68), fp(240))
	if out.RecommendedPrice != 1100 {
		t.Fatalf("high-confidence opinion not adopted: %v", out.RecommendedPrice)
	}
	if out.Method != internal.MethodAIBlend {
		t.Fatalf("method = %s", out.Method)
	}
	if out.ConfidencePercentage != 90 {
		t.Fatalf("confidence = %v", out.ConfidencePercentage)
	}
}

func TestInBandOpinionClampedToRange(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"recommendedPrice": 1140, "confidence": 55, "reasoning": "slightly above"}`}}
	blender := NewBlender(gen)

	out := blender.Enhance(context.Background(), sourceQuote(), nil, algoRec(1000, 900, 1100, 68), fp(240))
	if out.RecommendedPrice != 1100 {
		t.Fatalf("in-band opinion not clamped to ceiling: %v", out.RecommendedPrice)
	}
	if out.Method != internal.MethodAIBlend {
		t.Fatalf("method = %s", out.Method)
	}
}

func TestLowConfidenceBlend(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"recommendedPrice": 2000, "confidence": 60, "reasoning": "sparse data"}`}}
	blender := NewBlender(gen)

	// Algorithmic confidence 30: disagreement triggers a 70/30 blend, then
	// the ceiling clamps it.
	out := blender.Enhance(context.Background(), sourceQuote(), nil, algoRec(1000, 850, 1150, 30), fp(240))
	if out.RecommendedPrice != 1150 {
		t.Fatalf("low-confidence blend = %v, want ceiling 1150", out.RecommendedPrice)
	}
}

func TestLongHaulSpecialCargoLeansOnModel(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"recommendedPrice": 900, "confidence": 60, "reasoning": "heavy haul rates fell"}`}}
	blender := NewBlender(gen)

	source := sourceQuote()
	source.CargoDescription = sp("CAT 336 excavator")
	rec := algoRec(2000, 500, 3000, 30)
	out := blender.Enhance(context.Background(), source, nil, rec, fp(800))

	// 25/75 algorithmic/model: 0.25*2000 + 0.75*900 = 1175.
	if out.RecommendedPrice != 1175 {
		t.Fatalf("long-haul machinery blend = %v, want 1175", out.RecommendedPrice)
	}
}

func TestMalformedResponseRepairRetry(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"Sure! The price should be around $1050.",
		`{"recommendedPrice": 1050, "confidence": 70, "reasoning": "repaired"}`,
	}}
	blender := NewBlender(gen)

	out := blender.Enhance(context.Background(), sourceQuote(), nil, algoRec(1000, 850, 1150, 68), fp(240))
	if gen.calls != 2 {
		t.Fatalf("expected one repair retry, got %d calls", gen.calls)
	}
	if out.RecommendedPrice != 1050 {
		t.Fatalf("repaired opinion not used: %v", out.RecommendedPrice)
	}
}

func TestFallsBackOnPersistentFailure(t *testing.T) {
	rec := algoRec(1000, 850, 1150, 68)

	gen := &fakeGenerator{responses: []string{"no json here", "still no json"}}
	out := NewBlender(gen).Enhance(context.Background(), sourceQuote(), nil, rec, fp(240))
	if out.RecommendedPrice != rec.RecommendedPrice || out.Method != rec.Method {
		t.Fatalf("malformed responses must fall back: %+v", out)
	}
	if gen.calls != 2 {
		t.Fatalf("retry count = %d, want 2", gen.calls)
	}

	failing := &fakeGenerator{errs: []error{errors.New("timeout")}}
	out = NewBlender(failing).Enhance(context.Background(), sourceQuote(), nil, rec, fp(240))
	if out.RecommendedPrice != rec.RecommendedPrice || out.Method != rec.Method {
		t.Fatalf("transport failure must fall back: %+v", out)
	}
}

func TestOpinionValidation(t *testing.T) {
	cases := []struct {
		name string
		text string
		ok   bool
	}{
		{"valid", `{"recommendedPrice": 1200.50, "confidence": 75, "reasoning": "ok"}`, true},
		{"embedded in prose", `Here you go: {"recommendedPrice": 800, "confidence": 60, "reasoning": "fine"} hope that helps`, true},
		{"braces in strings", `{"recommendedPrice": 900, "confidence": 50, "reasoning": "range {low}"}`, true},
		{"zero price", `{"recommendedPrice": 0, "confidence": 60, "reasoning": "x"}`, false},
		{"negative price", `{"recommendedPrice": -100, "confidence": 60, "reasoning": "x"}`, false},
		{"no object", `twelve hundred dollars`, false},
		{"unbalanced", `{"recommendedPrice": 1200`, false},
	}
	for _, tc := range cases {
		_, err := parseOpinion(tc.text)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	op, err := parseOpinion(`{"recommendedPrice": 1000, "confidence": 130, "reasoning": "x"}`)
	if err != nil {
		t.Fatalf("overconfident opinion rejected: %v", err)
	}
	if op.Confidence != 100 {
		t.Fatalf("confidence not capped: %v", op.Confidence)
	}
}
