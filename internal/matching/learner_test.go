package matching

import (
	"math"
	"testing"

	"freightmatch/internal"
)

func feedbackRows(criterion string, posScore, negScore float64, pos, neg int) []internal.MatchFeedback {
	rows := make([]internal.MatchFeedback, 0, pos+neg)
	for i := 0; i < pos; i++ {
		rows = append(rows, internal.MatchFeedback{Criteria: internal.MatchCriteria{criterion: posScore}, Positive: true})
	}
	for i := 0; i < neg; i++ {
		rows = append(rows, internal.MatchFeedback{Criteria: internal.MatchCriteria{criterion: negScore}})
	}
	return rows
}

func TestLearnerBoostsPredictiveCriterion(t *testing.T) {
	learner := NewLearner()
	base := BaselineWeights()

	// High distance-similarity scores correlate with positive outcomes.
	rows := feedbackRows(CritDistanceSimilarity, 0.9, 0.3, 4, 4)
	learned := learner.Learn(base, rows)

	if learned[CritDistanceSimilarity] <= base[CritDistanceSimilarity] {
		t.Fatalf("predictive criterion not boosted: %v <= %v", learned[CritDistanceSimilarity], base[CritDistanceSimilarity])
	}

	var sum float64
	for _, v := range learned {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("learned weights sum to %v", sum)
	}
}

func TestLearnerPenalizesMisleadingCriterion(t *testing.T) {
	learner := NewLearner()
	base := BaselineWeights()

	// High scores on the criterion keep showing up on negative outcomes.
	rows := feedbackRows(CritOriginCity, 0.2, 0.95, 4, 4)
	learned := learner.Learn(base, rows)

	if learned[CritOriginCity] >= base[CritOriginCity] {
		t.Fatalf("misleading criterion not reduced: %v >= %v", learned[CritOriginCity], base[CritOriginCity])
	}
}

func TestLearnerRequiresSamples(t *testing.T) {
	learner := NewLearner()
	base := BaselineWeights()

	rows := feedbackRows(CritServiceType, 0.9, 0.1, 2, 2)
	learned := learner.Learn(base, rows)
	if math.Abs(learned[CritServiceType]-base[CritServiceType]) > 1e-9 {
		t.Fatalf("criterion adjusted on %d samples: %v vs %v", 4, learned[CritServiceType], base[CritServiceType])
	}
}

func TestLearnerIgnoresUnknownCriteria(t *testing.T) {
	learner := NewLearner()
	rows := feedbackRows("no_such_criterion", 0.9, 0.1, 4, 4)
	learned := learner.Learn(BaselineWeights(), rows)
	if _, ok := learned["no_such_criterion"]; ok {
		t.Fatalf("unknown criterion entered the weight table")
	}
}
