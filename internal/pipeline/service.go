package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"freightmatch/internal"
	"freightmatch/internal/ai"
	"freightmatch/internal/config"
	"freightmatch/internal/distance"
	"freightmatch/internal/matching"
	"freightmatch/internal/pricing"
	"freightmatch/internal/storage"
)

// PricingService wires the full pricing path: pool load, validation, scoring,
// ranking, statistical or rate-card pricing, optional model blend, persistence.
type PricingService struct {
	db       *storage.DB
	cfg      config.Config
	weights  *matching.WeightStore
	engine   *pricing.Engine
	learner  *matching.Learner
	distance *distance.Client
	blender  *ai.Blender
}

type dbWeightLoader struct {
	db *storage.DB
}

func (l dbWeightLoader) GetLearnedWeights() (matching.WeightTable, error) {
	weights, err := l.db.GetLearnedWeights()
	if err != nil {
		return nil, err
	}
	return matching.WeightTable(weights), nil
}

func NewPricingService(db *storage.DB, cfg config.Config) *PricingService {
	s := &PricingService{
		db:       db,
		cfg:      cfg,
		weights:  matching.NewWeightStore(dbWeightLoader{db: db}, time.Duration(cfg.WeightsTTLSec)*time.Second),
		engine:   pricing.NewEngine(),
		learner:  matching.NewLearner(),
		distance: distance.NewClient(cfg),
	}
	if cfg.AIEnabled {
		s.blender = ai.NewBlender(ai.NewClient(cfg))
	}
	return s
}

type PriceResult struct {
	Recommendation internal.PricingRecommendation
	Matches        []internal.Match
}

// PriceQuote runs the whole path for one stored quote and persists the
// outcome. The quote must exist; everything after that degrades instead of
// failing.
func (s *PricingService) PriceQuote(ctx context.Context, quoteID string, providedMiles *float64) (PriceResult, error) {
	start := time.Now()

	source, err := s.db.GetQuote(quoteID)
	if err != nil {
		return PriceResult{}, err
	}
	if source == nil {
		return PriceResult{}, fmt.Errorf("quote not found: %s", quoteID)
	}

	pool, err := s.db.ListHistoricalQuotesWithPrice(quoteID)
	if err != nil {
		return PriceResult{}, err
	}

	poolIDs := make([]string, len(pool))
	for i, q := range pool {
		poolIDs[i] = q.ID
	}
	feedback, err := s.db.FeedbackForQuotes(poolIDs)
	if err != nil {
		log.Printf("feedback load failed for %s: %v", quoteID, err)
		feedback = map[string]internal.FeedbackRecord{}
	}

	miles := s.distance.ResolveMiles(ctx, *source, providedMiles)

	scorer := matching.NewScorer(s.weights.Get())
	matcher := matching.NewMatcher(scorer, matching.NewValidator())
	matches := matcher.FindMatches(ctx, *source, pool, feedback, miles, matching.FindOptions{
		MinScore:           s.cfg.MinMatchScore,
		MaxMatches:         s.cfg.MaxMatches,
		OutlierIQRMultiple: s.cfg.OutlierIQRMultiple,
		Workers:            s.cfg.ScoreWorkers,
	})

	rec := s.engine.Price(*source, matches, miles)
	rec = pricing.BiasConfidenceWithActuals(rec, actualPricesFor(matches, feedback))
	if s.blender != nil {
		rec = s.blender.Enhance(ctx, *source, matches, rec, miles)
	}

	if err := s.db.BulkInsertMatches(matches); err != nil {
		return PriceResult{}, err
	}
	if err := s.db.SaveRecommendation(rec); err != nil {
		return PriceResult{}, err
	}
	if err := s.db.UpdateQuoteStatus(quoteID, "priced"); err != nil {
		return PriceResult{}, err
	}

	_ = s.db.InsertRun(internal.RunStats{
		TraceID: traceID(),
		QuoteID: quoteID,
		Timings: map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		Counts: map[string]int{
			"pool":    len(pool),
			"matches": len(matches),
		},
	})

	return PriceResult{Recommendation: rec, Matches: matches}, nil
}

// ProcessPending prices quotes in 'pending' status, oldest first.
func (s *PricingService) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.db.ListQuotesByStatus("pending", limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, q := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		result, err := s.PriceQuote(ctx, q.ID, nil)
		if err != nil {
			log.Printf("pricing %s failed: %v", q.ID, err)
			continue
		}
		processed++
		fmt.Printf("priced %s: $%.2f (%s, %d matches)\n",
			q.ID, result.Recommendation.RecommendedPrice, result.Recommendation.ConfidenceTier, len(result.Matches))
	}
	return processed, nil
}

// RecordFeedback stores one rating and reprices nothing; the learner folds it
// in on its next run.
func (s *PricingService) RecordFeedback(matchedQuoteID string, positive bool, actualPriceUsed *float64) error {
	return s.db.InsertFeedback(matchedQuoteID, positive, actualPriceUsed)
}

// LearnWeights recomputes the weight table from accumulated feedback,
// persists it and invalidates the cache.
func (s *PricingService) LearnWeights() (matching.WeightTable, error) {
	rows, err := s.db.ListMatchFeedback()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	learned := s.learner.Learn(s.weights.Get(), rows)
	if err := s.db.SaveLearnedWeights(map[string]float64(learned)); err != nil {
		return nil, err
	}
	s.weights.Invalidate()
	return learned, nil
}

func actualPricesFor(matches []internal.Match, feedback map[string]internal.FeedbackRecord) []float64 {
	var out []float64
	for _, m := range matches {
		out = append(out, feedback[m.MatchedQuoteID].ActualPrices...)
	}
	return out
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
