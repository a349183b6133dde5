package scoring

import (
	"encoding/json"
	"fmt"
	"math"
)

// Scores is the set of all per-threshold scores for one metric. Every
// score in the set shares the same metric, and threshold identities
// within the set are unique.
type Scores struct {
	metric Metric
	order  []string
	byID   map[string]*Score
}

// NewScores constructs an empty Scores collection for metric.
func NewScores(metric Metric) *Scores {
	return &Scores{metric: metric, byID: map[string]*Score{}}
}

// Add inserts score, failing if it belongs to a different metric or
// duplicates an already-present threshold.
func (s *Scores) Add(score *Score) error {
	if score.Metric().Identifier() != s.metric.Identifier() {
		return &ConfigurationError{Reason: fmt.Sprintf("cannot add a %s score to a collection of %s scores", score.Metric().Name(), s.metric.Name())}
	}
	id := score.Threshold().Identity()
	if _, exists := s.byID[id]; exists {
		return &ConfigurationError{Reason: fmt.Sprintf("there is already a score for the %q threshold in this collection", score.Threshold().Name())}
	}
	s.byID[id] = score
	s.order = append(s.order, id)
	return nil
}

func (s *Scores) Metric() Metric { return s.metric }

// Len reports how many scores the collection holds.
func (s *Scores) Len() int { return len(s.order) }

// All returns the scores in threshold-insertion order.
func (s *Scores) All() []*Score {
	out := make([]*Score, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

// Get looks up the score for the named threshold.
func (s *Scores) Get(thresholdName string) (*Score, error) {
	for _, id := range s.order {
		score := s.byID[id]
		if score.Threshold().Name() == thresholdName {
			return score, nil
		}
	}
	return nil, newLookupError("there is no score for threshold %q", thresholdName)
}

// HasData reports whether any contained score has a non-empty sample.
func (s *Scores) HasData() bool {
	for _, score := range s.All() {
		if score.SampleSize() > 0 {
			return true
		}
	}
	return false
}

// eligible returns the scores counted toward Total/Performance: those
// with a positive sample size.
func (s *Scores) eligible() []*Score {
	var out []*Score
	for _, score := range s.All() {
		if score.SampleSize() > 0 {
			out = append(out, score)
		}
	}
	return out
}

// Total sums every eligible score's scaled value.
func (s *Scores) Total() float64 {
	total := 0.0
	any := false
	for _, score := range s.eligible() {
		v := score.ScaledValue()
		if math.IsNaN(v) {
			continue
		}
		total += v
		any = true
	}
	if !any {
		return 0
	}
	return total
}

// Performance is the weighted average of scaled values across eligible
// scores, weighted by each threshold's weight. Each scaled value already
// carries its threshold's weight, so a perfect score on a threshold of
// weight w contributes w here.
func (s *Scores) Performance() float64 {
	eligible := s.eligible()
	if len(eligible) == 0 {
		return math.NaN()
	}
	var weightedSum, weightSum float64
	for _, score := range eligible {
		w := score.Threshold().Weight()
		weightedSum += score.ScaledValue() * w
		weightSum += w
	}
	if weightSum == 0 {
		return math.NaN()
	}
	return weightedSum / weightSum
}

// ScaledValue scales the metric's weight by Performance.
func (s *Scores) ScaledValue() float64 {
	return s.Performance() * s.metric.Weight()
}

// Interval is the highest-density interval across every eligible score's
// raw value.
func (s *Scores) Interval() (lo, hi float64) {
	values := make([]float64, 0, len(s.order))
	for _, score := range s.eligible() {
		values = append(values, score.Value())
	}
	return highestDensityInterval(values, 0.95)
}

// ScaledInterval is the highest-density interval across every eligible
// score's scaled value.
func (s *Scores) ScaledInterval() (lo, hi float64) {
	values := make([]float64, 0, len(s.order))
	for _, score := range s.eligible() {
		values = append(values, score.ScaledValue())
	}
	return highestDensityInterval(values, 0.95)
}

// AsMap renders the collection with its per-threshold score maps.
func (s *Scores) AsMap() map[string]any {
	perThreshold := map[string]any{}
	for _, score := range s.All() {
		perThreshold[score.Threshold().Name()] = score.AsMap()
	}

	lo, hi := s.Interval()
	scaledLo, scaledHi := s.ScaledInterval()
	performance := s.Performance()

	out := map[string]any{
		"total":           truncate(s.Total(), 2),
		"interval":        [2]float64{lo, hi},
		"scaled_value":    truncate(s.ScaledValue(), 2),
		"scaled_interval": [2]float64{scaledLo, scaledHi},
		"scores":          perThreshold,
	}
	if math.IsNaN(performance) {
		out["grade"] = nil
	} else {
		out["grade"] = fmt.Sprintf("%.2f%%", performance*100)
	}
	return out
}

func (s *Scores) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.AsMap())
}
