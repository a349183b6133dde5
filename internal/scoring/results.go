package scoring

import (
	"encoding/json"
	"math"
)

// MetricResults is the per-location aggregation of every metric's Scores
// plus a location weight.
type MetricResults struct {
	name   string
	weight float64
	order  []string
	byID   map[string]*Scores
}

// NewMetricResults constructs an empty MetricResults. A zero or NaN
// weight defaults to 1.
func NewMetricResults(name string, weight float64) *MetricResults {
	if weight == 0 || math.IsNaN(weight) {
		weight = 1
	}
	return &MetricResults{name: name, weight: weight, byID: map[string]*Scores{}}
}

func (r *MetricResults) Name() string    { return r.name }
func (r *MetricResults) Weight() float64 { return r.weight }

// AddScores merges every score in scores into the metric it belongs to,
// creating that metric's bucket on first use.
func (r *MetricResults) AddScores(scores *Scores) error {
	id := scores.Metric().Identifier()
	bucket, ok := r.byID[id]
	if !ok {
		bucket = NewScores(scores.Metric())
		r.byID[id] = bucket
		r.order = append(r.order, id)
	}
	for _, score := range scores.All() {
		if err := bucket.Add(score); err != nil {
			return err
		}
	}
	return nil
}

// Metrics returns every metric with results, in the order their first
// score was added.
func (r *MetricResults) Metrics() []Metric {
	out := make([]Metric, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id].Metric()
	}
	return out
}

// Get looks up the Scores for the named metric.
func (r *MetricResults) Get(metricName string) (*Scores, error) {
	if bucket, ok := r.byID[Identifier(metricName)]; ok {
		return bucket, nil
	}
	return nil, newLookupError("there are no results for metric %q", metricName)
}

func (r *MetricResults) buckets() []*Scores {
	out := make([]*Scores, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

// Total sums every metric's scaled value (ignoring NaN contributions).
func (r *MetricResults) Total() float64 {
	total := 0.0
	for _, bucket := range r.buckets() {
		v := bucket.ScaledValue()
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

// MaximumValidScore sums the weight of every metric whose total is not
// NaN - the denominator for Performance.
func (r *MetricResults) MaximumValidScore() float64 {
	sum := 0.0
	for _, bucket := range r.buckets() {
		if !math.IsNaN(bucket.Total()) {
			sum += bucket.Metric().Weight()
		}
	}
	return sum
}

// Performance is Total scaled by the location weight as a fraction of
// MaximumValidScore.
func (r *MetricResults) Performance() float64 {
	maximum := r.MaximumValidScore()
	if maximum == 0 {
		return math.NaN()
	}
	return (r.Total() / maximum) * r.weight
}

// Grade is Performance expressed as a percentage.
func (r *MetricResults) Grade() float64 {
	return r.Performance() * 100.0
}

// ScaledValue is the weighted average of every metric's Performance,
// weighted by each metric's own weight.
func (r *MetricResults) ScaledValue() float64 {
	buckets := r.buckets()
	if len(buckets) == 0 {
		return math.NaN()
	}
	var weightedSum, weightSum float64
	for _, bucket := range buckets {
		p := bucket.Performance()
		if math.IsNaN(p) {
			continue
		}
		w := bucket.Metric().Weight()
		weightedSum += p * w
		weightSum += w
	}
	if weightSum == 0 {
		return math.NaN()
	}
	return weightedSum / weightSum
}

// ScaledInterval is the highest-density interval across every metric's
// own scaled value.
func (r *MetricResults) ScaledInterval() (lo, hi float64) {
	values := make([]float64, 0, len(r.order))
	for _, bucket := range r.buckets() {
		values = append(values, bucket.ScaledValue())
	}
	return highestDensityInterval(values, 0.95)
}

// AsMap renders the aggregate: metrics whose description carries no
// value (no eligible scores at all) are left out of the serialized map.
func (r *MetricResults) AsMap() map[string]any {
	scores := map[string]any{}
	for _, bucket := range r.buckets() {
		if DescribeScores(bucket).HasValue() {
			scores[bucket.Metric().Name()] = bucket.AsMap()
		}
	}
	lo, hi := r.ScaledInterval()
	return map[string]any{
		"interval":     [2]float64{lo, hi},
		"weight":       r.weight,
		"grade":        r.Grade(),
		"scaled_value": r.ScaledValue(),
		"scores":       scores,
	}
}

func (r *MetricResults) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}
