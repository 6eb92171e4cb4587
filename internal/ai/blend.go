package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"freightmatch/internal"
	"freightmatch/internal/normalize"
)

// TextGenerator is the single capability the blender needs from the LLM side.
type TextGenerator interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

const (
	trustConfidence  = 80.0
	ratioLow         = 0.85
	ratioHigh        = 1.15
	lowConfidenceCut = 50.0
	longHaulMiles    = 500.0
)

// Blender asks the model for a second pricing opinion and folds it into the
// algorithmic recommendation under guardrails. Any failure, at any step,
// returns the algorithmic recommendation unchanged.
type Blender struct {
	gen TextGenerator
}

func NewBlender(gen TextGenerator) *Blender {
	return &Blender{gen: gen}
}

type opinion struct {
	RecommendedPrice float64 `json:"recommendedPrice"`
	Confidence       float64 `json:"confidence"`
	Reasoning        string  `json:"reasoning"`
}

func (b *Blender) Enhance(ctx context.Context, source internal.Quote, matches []internal.Match, rec internal.PricingRecommendation, distanceMiles *float64) internal.PricingRecommendation {
	if b == nil || b.gen == nil || rec.RecommendedPrice <= 0 {
		return rec
	}

	prompt := buildPrompt(source, matches, rec, distanceMiles)
	text, err := b.gen.GenerateResponse(ctx, prompt)
	if err != nil {
		return rec
	}

	op, err := parseOpinion(text)
	if err != nil {
		// One bounded repair attempt, then give up on the opinion.
		text, err = b.gen.GenerateResponse(ctx, prompt+"\n\nReturn only a single JSON object. No prose, no code fences.")
		if err != nil {
			return rec
		}
		op, err = parseOpinion(text)
		if err != nil {
			return rec
		}
	}

	return applyGuardrails(source, rec, op, distanceMiles)
}

func applyGuardrails(source internal.Quote, rec internal.PricingRecommendation, op opinion, distanceMiles *float64) internal.PricingRecommendation {
	if op.Confidence >= trustConfidence {
		out := rec
		out.RecommendedPrice = round2(op.RecommendedPrice)
		out.TargetPrice = out.RecommendedPrice
		out.FloorPrice = round2(op.RecommendedPrice * 0.90)
		out.CeilingPrice = round2(op.RecommendedPrice * 1.10)
		out.ConfidencePercentage = op.Confidence
		out.Method = internal.MethodAIBlend
		out.Reasoning = appendReasoning(rec.Reasoning, op.Reasoning, "Model opinion adopted at high confidence.")
		return out
	}

	ratio := op.RecommendedPrice / rec.RecommendedPrice
	if ratio >= ratioLow && ratio <= ratioHigh {
		out := rec
		out.RecommendedPrice = round2(clampTo(op.RecommendedPrice, rec.FloorPrice, rec.CeilingPrice))
		out.TargetPrice = out.RecommendedPrice
		out.Method = internal.MethodAIBlend
		out.Reasoning = appendReasoning(rec.Reasoning, op.Reasoning, "Model opinion within guardrail band.")
		return out
	}

	// Opinion disagrees sharply. Only worth blending when the algorithmic
	// estimate is itself shaky.
	if rec.ConfidencePercentage >= lowConfidenceCut {
		return rec
	}

	aiShare := 0.30
	attrs := normalize.DeriveAttributes(source, distanceMiles)
	longHaul := distanceMiles != nil && *distanceMiles > longHaulMiles
	specialCargo := attrs.CargoCategory == internal.CargoMachinery || attrs.CargoCategory == internal.CargoOversized
	if longHaul && specialCargo {
		aiShare = 0.75
	}

	blended := (1-aiShare)*rec.RecommendedPrice + aiShare*op.RecommendedPrice
	out := rec
	out.RecommendedPrice = round2(clampTo(blended, rec.FloorPrice, rec.CeilingPrice))
	out.TargetPrice = out.RecommendedPrice
	out.Method = internal.MethodAIBlend
	out.Reasoning = appendReasoning(rec.Reasoning, op.Reasoning, fmt.Sprintf("Low-confidence blend, %.0f%% model weight.", aiShare*100))
	return out
}

func buildPrompt(source internal.Quote, matches []internal.Match, rec internal.PricingRecommendation, distanceMiles *float64) string {
	var sb strings.Builder
	sb.WriteString("You are a freight pricing analyst. Review this quote and the comparable history, then give your own price.\n\n")

	sb.WriteString("Quote:\n")
	fmt.Fprintf(&sb, "- Lane: %s, %s -> %s, %s\n",
		strDeref(source.OriginCity), strDeref(source.OriginState), strDeref(source.DestCity), strDeref(source.DestState))
	fmt.Fprintf(&sb, "- Service: %s\n", strDeref(source.ServiceType))
	fmt.Fprintf(&sb, "- Cargo: %s\n", strDeref(source.CargoDescription))
	if source.WeightValue != nil {
		fmt.Fprintf(&sb, "- Weight: %.0f %s\n", *source.WeightValue, strDeref(source.WeightUnit))
	}
	if distanceMiles != nil {
		fmt.Fprintf(&sb, "- Route distance: %.0f miles\n", *distanceMiles)
	}

	if len(matches) > 0 {
		sb.WriteString("\nComparable historical quotes:\n")
		limit := len(matches)
		if limit > 5 {
			limit = 5
		}
		for _, m := range matches[:limit] {
			fmt.Fprintf(&sb, "- similarity %.2f, price $%.2f\n", m.SimilarityScore, m.SuggestedPrice)
		}
	}

	fmt.Fprintf(&sb, "\nAlgorithmic recommendation: $%.2f (floor $%.2f, ceiling $%.2f, confidence %.0f%%, method %s).\n",
		rec.RecommendedPrice, rec.FloorPrice, rec.CeilingPrice, rec.ConfidencePercentage, rec.Method)

	sb.WriteString("\nRespond with a single JSON object, no other text:\n")
	sb.WriteString(`{"recommendedPrice": <number>, "confidence": <0-100>, "reasoning": "<one sentence>"}`)
	return sb.String()
}

// parseOpinion extracts the first balanced JSON object from untrusted model
// output and validates its numeric fields.
func parseOpinion(text string) (opinion, error) {
	raw, err := extractBalancedJSON(text)
	if err != nil {
		return opinion{}, err
	}

	var op opinion
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		return opinion{}, err
	}
	if math.IsNaN(op.RecommendedPrice) || math.IsInf(op.RecommendedPrice, 0) || op.RecommendedPrice <= 0 {
		return opinion{}, fmt.Errorf("invalid recommendedPrice: %v", op.RecommendedPrice)
	}
	if math.IsNaN(op.Confidence) || math.IsInf(op.Confidence, 0) || op.Confidence < 0 {
		return opinion{}, fmt.Errorf("invalid confidence: %v", op.Confidence)
	}
	if op.Confidence > 100 {
		op.Confidence = 100
	}
	return op, nil
}

// extractBalancedJSON returns the first {...} span with balanced braces,
// ignoring braces inside string literals.
func extractBalancedJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errors.New("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("unbalanced JSON object in response")
}

func appendReasoning(base, model, note string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return base + " " + note
	}
	return base + " " + note + " Model: " + model
}

func clampTo(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
