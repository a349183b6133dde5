package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/NOAA-OWP/evalcore/pkg/comm"
)

// Bounds carries a metric's interpretive metadata: the window of values
// scale-to-ideal clamps into, and the value considered perfect. -/+Inf
// Lower/Upper mean unbounded and a NaN Ideal means unset; the zero value
// is not unbounded, so use UnboundedBounds for that.
type Bounds struct {
	Lower float64
	Upper float64
	Ideal float64
}

// UnboundedBounds is the zero-configuration Bounds: no lower or upper
// bound, no ideal value.
func UnboundedBounds() Bounds {
	return Bounds{Lower: math.Inf(-1), Upper: math.Inf(1), Ideal: math.NaN()}
}

func (b Bounds) HasLowerBound() bool {
	return !math.IsNaN(b.Lower) && !math.IsInf(b.Lower, -1)
}

func (b Bounds) HasUpperBound() bool {
	return !math.IsNaN(b.Upper) && !math.IsInf(b.Upper, 1)
}

func (b Bounds) HasIdealValue() bool {
	return !math.IsNaN(b.Ideal) && !math.IsInf(b.Ideal, 0)
}

func (b Bounds) Bounded() bool {
	return b.HasLowerBound() || b.HasUpperBound()
}

var identifierWhitespace = regexp.MustCompile(`\s+`)

// Identifier strips whitespace, underscores and hyphens from name and
// lowercases the remainder, producing the stable key metrics are looked
// up by regardless of display-name casing or punctuation.
func Identifier(name string) string {
	id := identifierWhitespace.ReplaceAllString(name, "")
	id = strings.ReplaceAll(id, "_", "")
	id = strings.ReplaceAll(id, "-", "")
	id = strings.ReplaceAll(id, "–", "") // en dash shows up in hand-typed metric names
	return strings.ToLower(id)
}

// ScoreFunc computes a metric's raw scalar result over a single filtered
// partition. Implementations must be pure: no shared mutable state, so
// the result is safe to call concurrently across thresholds and from
// within bootstrap resampling.
type ScoreFunc func(ctx context.Context, filtered Frame, threshold *Threshold) (float64, error)

// Metric is a named, weighted scoring function plus its interpretive
// metadata. ScoringScheme invokes Score once per metric through an
// internal/distributor.Distributor; Score itself covers every threshold
// NormalizeThresholds produces.
type Metric interface {
	Name() string
	Identifier() string
	Weight() float64
	Bounds() Bounds
	// FailsOn returns the value that signals a complete metric failure
	// and whether one was configured at all. A metric with no
	// fails_on configured always reports ok=false, distinct from one
	// explicitly configured with a NaN sentinel.
	FailsOn() (value float64, ok bool)
	GreaterIsBetter() bool
	Description() string
	Score(ctx context.Context, pairs Frame, observed, predicted string, thresholds []*Threshold, opts ScoreOptions) (*Scores, error)
}

// ScoreOptions carries the optional collaborators a metric invocation may
// use: a communicator group for status fan-out, a bootstrap seed
// override, metadata echoed into the structured completion event, and a
// switch to skip interval generation entirely.
type ScoreOptions struct {
	Comms         *comm.Group
	BootstrapSeed int64
	Metadata      map[string]any
	SkipInterval  bool
}

// BaseMetric is the concrete Metric implementation: a name, weight,
// bounds and fails_on value plus the raw ScoreFunc that does the actual
// statistical work. Concrete metrics (Pearson correlation, probability of
// detection, etc.) are values of this struct registered under their
// identifier rather than discovered through a type hierarchy.
type BaseMetric struct {
	name            string
	weight          float64
	bounds          Bounds
	failsOn         float64
	failsOnSet      bool
	greaterIsBetter bool
	description     string
	score           ScoreFunc
}

// NewMetric validates and constructs a BaseMetric with no fails_on
// sentinel configured. weight must be non-NaN and positive. Use WithFailsOn to configure a failure sentinel.
func NewMetric(name string, weight float64, bounds Bounds, greaterIsBetter bool, description string, score ScoreFunc) (*BaseMetric, error) {
	if name == "" {
		return nil, &ConfigurationError{Reason: "a metric must have a non-empty name"}
	}
	if math.IsNaN(weight) {
		return nil, &ConfigurationError{Reason: "metric weight must be supplied and must be numeric"}
	}
	if weight <= 0 {
		return nil, &ConfigurationError{Reason: "metric weight must be positive"}
	}
	if score == nil {
		return nil, &ConfigurationError{Reason: "a metric must have a scoring function"}
	}
	return &BaseMetric{
		name:            name,
		weight:          weight,
		bounds:          bounds,
		failsOn:         math.NaN(),
		greaterIsBetter: greaterIsBetter,
		description:     description,
		score:           score,
	}, nil
}

// WithFailsOn configures the value considered a complete metric failure
// and returns the receiver for chaining.
func (m *BaseMetric) WithFailsOn(value float64) *BaseMetric {
	m.failsOn = value
	m.failsOnSet = true
	return m
}

func (m *BaseMetric) Name() string       { return m.name }
func (m *BaseMetric) Identifier() string { return Identifier(m.name) }
func (m *BaseMetric) Weight() float64    { return m.weight }
func (m *BaseMetric) Bounds() Bounds     { return m.bounds }
func (m *BaseMetric) FailsOn() (float64, bool) {
	return m.failsOn, m.failsOnSet
}
func (m *BaseMetric) GreaterIsBetter() bool { return m.greaterIsBetter }
func (m *BaseMetric) Description() string   { return m.description }

// Score implements the metric contract: normalize
// thresholds, filter, score, optionally bootstrap an interval, and wrap
// each (threshold, result) pair into a Score.
func (m *BaseMetric) Score(ctx context.Context, pairs Frame, observed, predicted string, thresholds []*Threshold, opts ScoreOptions) (*Scores, error) {
	thresholds = NormalizeThresholds(thresholds)

	if opts.Comms != nil {
		opts.Comms.Info("Calling "+m.name, comm.Loud, true)
	}

	scores := NewScores(m)
	for _, threshold := range thresholds {
		filtered := threshold.Apply(pairs)

		raw, err := m.score(ctx, filtered, threshold)
		if err != nil {
			return nil, err
		}

		var interval *[2]float64
		if !opts.SkipInterval && len(filtered) >= 5 {
			iv, err := bootstrapMetricInterval(ctx, m, threshold, filtered, m.score, opts.BootstrapSeed)
			if err != nil {
				return nil, err
			}
			interval = iv
		}

		score, err := newScore(m, raw, interval, threshold, len(filtered))
		if err != nil {
			return nil, err
		}
		if err := scores.Add(score); err != nil {
			return nil, err
		}
	}

	if opts.Comms != nil && opts.Comms.SendAll() {
		message := map[string]any{
			"metric":      scores.Metric().Name(),
			"description": scores.Metric().Description(),
			"weight":      scores.Metric().Weight(),
			"total":       scores.Total(),
			"scores":      scores.AsMap(),
		}
		if opts.Metadata != nil {
			message["metadata"] = opts.Metadata
		}
		opts.Comms.Write("metric", message, comm.All)
	}

	return scores, nil
}

// scaleToIdeal projects a raw result toward the metric's ideal:
// raw is projected into [0, 1] relative to the metric's ideal value and
// bounds, then clamped to whichever bounds are finite. NaN in, NaN out.
func scaleToIdeal(bounds Bounds, raw float64) float64 {
	if math.IsNaN(raw) {
		return math.NaN()
	}
	if !bounds.HasIdealValue() || !bounds.Bounded() {
		return raw
	}

	var slope, run float64
	switch {
	case bounds.Ideal == bounds.Lower:
		run = bounds.Upper - bounds.Lower
		slope = -1 / run
	case bounds.Ideal == bounds.Upper:
		run = bounds.Upper - bounds.Lower
		slope = 1 / run
	case bounds.Lower < bounds.Ideal && bounds.Ideal < bounds.Upper && raw <= bounds.Ideal:
		run = bounds.Ideal - bounds.Lower
		slope = 1 / run
	case bounds.Lower < bounds.Ideal && bounds.Ideal < bounds.Upper && raw > bounds.Ideal:
		run = bounds.Upper - bounds.Ideal
		slope = -1 / run
	default:
		return raw
	}

	intercept := 1 - slope*bounds.Ideal
	scaled := slope*raw + intercept

	if bounds.HasUpperBound() {
		scaled = math.Min(scaled, bounds.Upper)
	}
	if bounds.HasLowerBound() {
		scaled = math.Max(scaled, bounds.Lower)
	}
	return scaled
}
