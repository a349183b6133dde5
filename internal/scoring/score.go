package scoring

import (
	"encoding/json"
	"math"

	"github.com/NOAA-OWP/evalcore/pkg/config"
)

// Score is the outcome of one (metric, threshold) evaluation: the raw
// value, an optional confidence interval, the threshold it was computed
// against, and the sample size the filtered frame had.
type Score struct {
	metric     Metric
	value      float64
	interval   *[2]float64
	threshold  *Threshold
	sampleSize int
}

// newScore validates and wraps one metric/threshold result. interval,
// when non-nil, must be ordered (lower <= upper).
func newScore(metric Metric, value float64, interval *[2]float64, threshold *Threshold, sampleSize int) (*Score, error) {
	if interval != nil && interval[0] > interval[1] {
		return nil, &ConfigurationError{Reason: "a score interval must have its lower bound at or below its upper bound"}
	}
	if threshold == nil {
		threshold = Default()
	}
	return &Score{metric: metric, value: value, interval: interval, threshold: threshold, sampleSize: sampleSize}, nil
}

func (s *Score) Metric() Metric        { return s.metric }
func (s *Score) Value() float64        { return s.value }
func (s *Score) Threshold() *Threshold { return s.threshold }
func (s *Score) SampleSize() int       { return s.sampleSize }

// Interval returns the score's confidence interval and whether one was
// computed at all.
func (s *Score) Interval() (lo, hi float64, ok bool) {
	if s.interval == nil {
		return 0, 0, false
	}
	return s.interval[0], s.interval[1], true
}

// Grade is the scaled value expressed as a percentage for display.
func (s *Score) Grade() float64 {
	return s.ScaledValue() * 100.0
}

// ScaledValue is the raw value scaled toward the metric's ideal and
// multiplied by the threshold's weight.
func (s *Score) ScaledValue() float64 {
	return scaleToIdeal(s.metric.Bounds(), s.value) * s.threshold.Weight()
}

// ScaledInterval scales each interval bound toward the metric's ideal; it
// reports ok=false if there is no interval or either scaled bound is NaN.
func (s *Score) ScaledInterval() (lo, hi float64, ok bool) {
	rawLo, rawHi, has := s.Interval()
	if !has {
		return 0, 0, false
	}
	bounds := s.metric.Bounds()
	scaledLo := scaleToIdeal(bounds, rawLo)
	scaledHi := scaleToIdeal(bounds, rawHi)
	if math.IsNaN(scaledLo) || math.IsNaN(scaledHi) {
		return 0, 0, false
	}
	return scaledLo, scaledHi, true
}

// Failed reports whether the score's value matches the metric's fails_on
// sentinel within config.Epsilon(): the raw value matched the sentinel within tolerance. A
// metric with no fails_on configured never fails on this account; one
// explicitly configured with a NaN sentinel fails whenever the value is
// also NaN.
func (s *Score) Failed() bool {
	failsOn, ok := s.metric.FailsOn()
	if !ok {
		return false
	}
	if math.IsNaN(failsOn) {
		return math.IsNaN(s.value)
	}
	return math.Abs(s.value-failsOn) < config.Epsilon()
}

func truncate(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// AsMap renders the score in its reporting form.
func (s *Score) AsMap() map[string]any {
	out := map[string]any{
		"value":           truncate(s.value, 2),
		"scaled_value":    truncate(s.ScaledValue(), 2),
		"sample_size":     s.sampleSize,
		"interval":        nil,
		"scaled_interval": nil,
		"failed":          s.Failed(),
		"weight":          s.threshold.Weight(),
		"threshold":       s.threshold.Name(),
		"grade":           s.Grade(),
	}
	if lo, hi, ok := s.Interval(); ok {
		out["interval"] = [2]float64{lo, hi}
	}
	if lo, hi, ok := s.ScaledInterval(); ok {
		out["scaled_interval"] = [2]float64{lo, hi}
	}
	return out
}

func (s *Score) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.AsMap())
}
