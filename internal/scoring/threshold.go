// Package scoring implements the metric evaluation core: thresholds that partition paired data, metrics that score a
// partition, scores and their scaled, weighted aggregation into a
// MetricResults, with bootstrap confidence intervals along the way.
package scoring

import "fmt"

// Pair is a single aligned (observed, predicted) row.
type Pair struct {
	Observed  float64
	Predicted float64
}

// Frame is a paired time series: the unit every Selector filters and
// every Metric scores.
type Frame []Pair

// Selector yields the subset of a Frame that meets a threshold's
// predicate. The identity selector (used by Default) returns frame
// unchanged.
type Selector func(frame Frame) Frame

// Threshold is a named, weighted predicate over a Frame.
type Threshold struct {
	name     string
	value    any
	weight   float64
	selector Selector
}

// identitySelector is Default's predicate: every pair passes.
func identitySelector(frame Frame) Frame { return frame }

// DefaultThresholdName is the name of the threshold that selects every
// pair, used whenever a caller supplies no thresholds at all.
const DefaultThresholdName = "All"

// NewThreshold validates and constructs a Threshold. weight must be
// positive and name non-empty. A nil
// selector defaults to the identity selector.
func NewThreshold(name string, value any, weight float64, selector Selector) (*Threshold, error) {
	if name == "" {
		return nil, &ConfigurationError{Reason: "a threshold must have a non-empty name"}
	}
	if weight <= 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("threshold %q must have a positive weight, got %v", name, weight)}
	}
	if selector == nil {
		selector = identitySelector
	}
	return &Threshold{name: name, value: value, weight: weight, selector: selector}, nil
}

// Default returns the "All" threshold: weight 1, every pair selected.
func Default() *Threshold {
	t, _ := NewThreshold(DefaultThresholdName, nil, 1, identitySelector)
	return t
}

func (t *Threshold) Name() string     { return t.name }
func (t *Threshold) Value() any       { return t.value }
func (t *Threshold) Weight() float64  { return t.weight }
func (t *Threshold) Apply(f Frame) Frame {
	if t.selector == nil {
		return f
	}
	return t.selector(f)
}

// Identity is the comparison key used by Scores and MetricResults to
// detect duplicate thresholds: two thresholds with the same name and
// value compare equal.
func (t *Threshold) Identity() string {
	return fmt.Sprintf("%s\x00%v", t.name, t.value)
}

func (t *Threshold) String() string { return t.name }

// NormalizeThresholds replaces an empty threshold list with [Default()],
// per the metric contract's first normalization step.
func NormalizeThresholds(thresholds []*Threshold) []*Threshold {
	if len(thresholds) == 0 {
		return []*Threshold{Default()}
	}
	return thresholds
}
