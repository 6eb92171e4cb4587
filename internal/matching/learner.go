package matching

import "freightmatch/internal"

const (
	learnerMinSamples  = 5
	learnerAdjustUp    = 1.15
	learnerAdjustDown  = 0.85
	learnerSignalDelta = 0.05
)

// Learner adjusts criterion weights from match feedback: criteria whose high
// scores correlate with positive outcomes gain weight, criteria whose high
// scores correlate with negative outcomes lose it.
type Learner struct{}

func NewLearner() *Learner {
	return &Learner{}
}

type criterionStats struct {
	posSum   float64
	posCount int
	negSum   float64
	negCount int
}

// Learn produces an adjusted, normalized weight table from persisted match
// feedback. Criteria with fewer than five samples keep their current weight.
func (l *Learner) Learn(current WeightTable, rows []internal.MatchFeedback) WeightTable {
	stats := map[string]*criterionStats{}
	for _, row := range rows {
		for criterion, score := range row.Criteria {
			st, ok := stats[criterion]
			if !ok {
				st = &criterionStats{}
				stats[criterion] = st
			}
			if row.Positive {
				st.posSum += score
				st.posCount++
			} else {
				st.negSum += score
				st.negCount++
			}
		}
	}

	out := current.Clone()
	for criterion, st := range stats {
		if _, ok := out[criterion]; !ok {
			continue
		}
		if st.posCount+st.negCount < learnerMinSamples {
			continue
		}
		if st.posCount == 0 || st.negCount == 0 {
			// One-sided feedback carries no contrast to learn from.
			continue
		}
		posAvg := st.posSum / float64(st.posCount)
		negAvg := st.negSum / float64(st.negCount)
		switch {
		case posAvg > negAvg+learnerSignalDelta:
			out[criterion] *= learnerAdjustUp
		case negAvg > posAvg+learnerSignalDelta:
			out[criterion] *= learnerAdjustDown
		}
	}

	return out.Normalize()
}
