package scoring

import "math"

// ScoreDescription is the finalized, reporting-oriented view of one
// metric's scores: the totals, the maximum value the thresholds could
// have produced, and the combined intervals, in the field set callers
// serialize per metric.
type ScoreDescription struct {
	name           string
	total          float64
	maximumValue   float64
	weight         float64
	scaledValue    float64
	interval       *[2]float64
	scaledInterval *[2]float64
	thresholds     map[string]any
}

// DescribeScores folds a Scores collection into a ScoreDescription.
func DescribeScores(scores *Scores) *ScoreDescription {
	d := &ScoreDescription{
		weight:     scores.Metric().Weight(),
		name:       scores.Metric().Name(),
		thresholds: map[string]any{},
	}

	for _, score := range scores.All() {
		d.thresholds[score.Threshold().Name()] = score.AsMap()
		if !math.IsNaN(score.ScaledValue()) {
			d.maximumValue += score.Threshold().Weight()
			d.total += score.ScaledValue()
		}
	}

	if d.HasValue() {
		d.scaledValue = (d.total / d.maximumValue) * d.weight
		d.calculateIntervals(scores)
	}
	return d
}

// calculateIntervals sums the per-threshold raw intervals elementwise and
// averages the scaled intervals weighted by each threshold's weight.
func (d *ScoreDescription) calculateIntervals(scores *Scores) {
	var rawSum [2]float64
	var scaledSum [2]float64
	var haveRaw bool
	var weightSum float64

	for _, score := range scores.All() {
		if lo, hi, ok := score.Interval(); ok {
			rawSum[0] += lo
			rawSum[1] += hi
			haveRaw = true
		}
		if lo, hi, ok := score.ScaledInterval(); ok {
			w := score.Threshold().Weight()
			scaledSum[0] += lo * w
			scaledSum[1] += hi * w
			weightSum += w
		}
	}

	if haveRaw {
		d.interval = &rawSum
	}
	if weightSum > 0 {
		d.scaledInterval = &[2]float64{scaledSum[0] / weightSum, scaledSum[1] / weightSum}
	}
}

func (d *ScoreDescription) Name() string          { return d.name }
func (d *ScoreDescription) Total() float64        { return d.total }
func (d *ScoreDescription) MaximumValue() float64 { return d.maximumValue }
func (d *ScoreDescription) Weight() float64       { return d.weight }
func (d *ScoreDescription) ScaledValue() float64  { return d.scaledValue }

// HasValue reports whether the description carries a meaningful scaled
// value: a non-zero, non-NaN total, maximum and weight.
func (d *ScoreDescription) HasValue() bool {
	hasTotal := d.total != 0 && !math.IsNaN(d.total)
	hasMaximum := d.maximumValue != 0 && !math.IsNaN(d.maximumValue)
	hasWeight := d.weight != 0 && !math.IsNaN(d.weight)
	return hasTotal && hasMaximum && hasWeight
}

// AsMap renders the per-metric result form: name, total, total_interval,
// maximum_possible_value, scaled_value, scaled_interval, the
// per-threshold score maps, and the metric weight.
func (d *ScoreDescription) AsMap() map[string]any {
	out := map[string]any{
		"name":                   d.name,
		"total":                  d.total,
		"total_interval":         nil,
		"maximum_possible_value": d.maximumValue,
		"scaled_value":           d.scaledValue,
		"scaled_interval":        nil,
		"thresholds":             d.thresholds,
		"weight":                 d.weight,
	}
	if d.interval != nil {
		out["total_interval"] = *d.interval
	}
	if d.scaledInterval != nil {
		out["scaled_interval"] = *d.scaledInterval
	}
	return out
}
