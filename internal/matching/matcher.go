package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"freightmatch/internal"
	"freightmatch/internal/normalize"
)

type FindOptions struct {
	MinScore           float64
	MaxMatches         int
	OutlierIQRMultiple float64
	Workers            int
}

func DefaultFindOptions() FindOptions {
	return FindOptions{
		MinScore:           0.55,
		MaxMatches:         10,
		OutlierIQRMultiple: 1.5,
		Workers:            8,
	}
}

// Per-service floors. Distance- and location-sensitive categories need a
// stricter floor than general trucking.
var serviceScoreFloors = map[internal.ServiceCategory]float64{
	internal.ServiceGround:     0.55,
	internal.ServiceDrayage:    0.58,
	internal.ServiceOcean:      0.60,
	internal.ServiceAir:        0.60,
	internal.ServiceIntermodal: 0.56,
}

const (
	feedbackPositiveBase = 0.05
	feedbackPositiveStep = 0.02
	feedbackPositiveCap  = 0.15
	feedbackNegativeStep = 0.03
	feedbackNegativeCap  = 0.10
	feedbackVerifiedUse  = 0.08
)

// Matcher runs the scorer across a historical pool and produces the ranked,
// outlier-filtered match list the pricing engine consumes.
type Matcher struct {
	scorer    *Scorer
	validator *Validator
}

func NewMatcher(scorer *Scorer, validator *Validator) *Matcher {
	return &Matcher{scorer: scorer, validator: validator}
}

// FindMatches scores every surviving candidate, applies feedback boosts and
// score floors, ranks deterministically and strips price outliers. Scoring is
// parallel across candidates; completion order never affects the ranking.
func (m *Matcher) FindMatches(ctx context.Context, source internal.Quote, pool []internal.Quote, feedback map[string]internal.FeedbackRecord, sourceDistance *float64, opts FindOptions) []internal.Match {
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultFindOptions().MaxMatches
	}
	if opts.OutlierIQRMultiple <= 0 {
		opts.OutlierIQRMultiple = DefaultFindOptions().OutlierIQRMultiple
	}

	type candidate struct {
		quote   internal.Quote
		quality float64
	}
	candidates := make([]candidate, 0, len(pool))
	for _, q := range pool {
		if q.ID == source.ID {
			continue
		}
		validation := m.validator.Validate(q)
		if !validation.Valid || validation.QualityScore < MinQualityScore {
			continue
		}
		candidates = append(candidates, candidate{quote: q, quality: validation.QualityScore})
	}

	results := make([]*internal.Match, len(candidates))
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultFindOptions().Workers
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	if workers > 1 {
		indexes := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indexes {
					results[i] = m.scoreCandidate(source, candidates[i].quote, candidates[i].quality, sourceDistance)
				}
			}()
		}
	feed:
		for i := range candidates {
			select {
			case <-ctx.Done():
				break feed
			case indexes <- i:
			}
		}
		close(indexes)
		wg.Wait()
	} else {
		for i := range candidates {
			if ctx.Err() != nil {
				break
			}
			results[i] = m.scoreCandidate(source, candidates[i].quote, candidates[i].quality, sourceDistance)
		}
	}

	floor := effectiveFloor(source, opts.MinScore)
	matches := make([]internal.Match, 0, len(results))
	for _, match := range results {
		if match == nil {
			continue
		}
		match.SimilarityScore = applyFeedbackBoost(match.SimilarityScore, feedback[match.MatchedQuoteID])
		if match.SimilarityScore >= floor {
			matches = append(matches, *match)
		}
	}

	sortMatches(matches)
	if len(matches) > opts.MaxMatches {
		matches = matches[:opts.MaxMatches]
	}

	if len(matches) >= 4 {
		matches = removePriceOutliers(matches, opts.OutlierIQRMultiple)
	}

	return matches
}

func (m *Matcher) scoreCandidate(source, historical internal.Quote, quality float64, sourceDistance *float64) *internal.Match {
	price := historical.EffectivePrice()
	if price == nil {
		return nil
	}

	result := m.scorer.Score(source, historical, sourceDistance, nil)
	confidence := result.Score * quality
	spread := 0.05 + 0.15*(1.0-confidence)

	hist := historical
	return &internal.Match{
		SourceQuoteID:   source.ID,
		MatchedQuoteID:  historical.ID,
		SimilarityScore: result.Score,
		Criteria:        result.Criteria,
		SuggestedPrice:  *price,
		PriceConfidence: confidence,
		PriceRangeLow:   *price * (1 - spread),
		PriceRangeHigh:  *price * (1 + spread),
		MatchedQuote:    &hist,
	}
}

// applyFeedbackBoost nudges a score by past operator feedback on the matched
// quote. Bounded: +0.15 worst case up, -0.10 down, +0.08 for verified use of
// the suggested price; capped at 1.0.
func applyFeedbackBoost(score float64, fb internal.FeedbackRecord) float64 {
	if fb.PositiveCount > 0 {
		boost := feedbackPositiveBase + feedbackPositiveStep*float64(fb.PositiveCount-1)
		if boost > feedbackPositiveCap {
			boost = feedbackPositiveCap
		}
		score += boost
	}
	if fb.NegativeCount > 0 {
		penalty := feedbackNegativeStep * float64(fb.NegativeCount)
		if penalty > feedbackNegativeCap {
			penalty = feedbackNegativeCap
		}
		score -= penalty
	}
	if fb.ActualPriceUsed > 0 {
		score += feedbackVerifiedUse
	}
	return clamp01(score)
}

func effectiveFloor(source internal.Quote, minScore float64) float64 {
	category := normalize.NormalizeServiceType(strDeref(source.ServiceType))
	category = normalize.CorrectServiceTypeByDistance(category, source.TotalDistanceMiles, strDeref(source.CargoDescription))
	floor := serviceScoreFloors[category]
	if floor == 0 {
		floor = 0.55
	}
	if minScore > floor {
		return minScore
	}
	return floor
}

// sortMatches ranks by score descending with deterministic tie-breaks:
// more recent quote date first, then matched id.
func sortMatches(matches []internal.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].SimilarityScore != matches[j].SimilarityScore {
			return matches[i].SimilarityScore > matches[j].SimilarityScore
		}
		di := matchDate(matches[i])
		dj := matchDate(matches[j])
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return matches[i].MatchedQuoteID < matches[j].MatchedQuoteID
	})
}

func matchDate(m internal.Match) time.Time {
	if m.MatchedQuote == nil {
		return time.Time{}
	}
	if d := m.MatchedQuote.EffectiveDate(); d != nil {
		return *d
	}
	return time.Time{}
}

// removePriceOutliers drops matches whose suggested price falls outside
// [Q1 - k*IQR, Q3 + k*IQR].
func removePriceOutliers(matches []internal.Match, iqrMultiple float64) []internal.Match {
	prices := make([]float64, len(matches))
	for i, m := range matches {
		prices[i] = m.SuggestedPrice
	}
	sort.Float64s(prices)

	q1 := percentile(prices, 25)
	q3 := percentile(prices, 75)
	iqr := q3 - q1
	low := q1 - iqrMultiple*iqr
	high := q3 + iqrMultiple*iqr

	out := matches[:0]
	for _, m := range matches {
		if m.SuggestedPrice >= low && m.SuggestedPrice <= high {
			out = append(out, m)
		}
	}
	return out
}

// percentile over a sorted slice, linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
