package scoring

import (
	"context"
	"math"

	"github.com/NOAA-OWP/evalcore/internal/distributor"
	"github.com/NOAA-OWP/evalcore/pkg/comm"
	"github.com/NOAA-OWP/evalcore/pkg/log"
)

// ScoringScheme orchestrates a set of metrics against one paired frame,
// dispatching one work item per metric through a distributor.Distributor
// and accumulating the results into a MetricResults.
type ScoringScheme struct {
	metrics           []Metric
	comms             *comm.Group
	name              string
	calculateInterval bool
}

// NewScoringScheme constructs a ScoringScheme. comms may be nil.
func NewScoringScheme(metrics []Metric, comms *comm.Group, name string, calculateInterval bool) *ScoringScheme {
	return &ScoringScheme{metrics: metrics, comms: comms, name: name, calculateInterval: calculateInterval}
}

func (s *ScoringScheme) Name() string { return s.name }

// Metrics returns the configured metric list, in input order.
func (s *ScoringScheme) Metrics() []Metric { return s.metrics }

// Score scores pairs across every configured metric and threshold,
// dispatching through dist (a nil dist defaults to distributor.Sequential{}),
// and returns the weighted aggregate. A NaN or zero weight defaults to 1.
// Fails with NoMetricsConfiguredError when no metrics were
// configured.
func (s *ScoringScheme) Score(
	ctx context.Context,
	dist distributor.Distributor,
	pairs Frame,
	observed, predicted string,
	thresholds []*Threshold,
	weight float64,
	metadata map[string]any,
) (*MetricResults, error) {
	if len(s.metrics) == 0 {
		return nil, &NoMetricsConfiguredError{}
	}
	if weight == 0 || math.IsNaN(weight) {
		weight = 1
	}
	if dist == nil {
		dist = distributor.Sequential{}
	}

	thresholds = NormalizeThresholds(thresholds)
	results := NewMetricResults(s.name, weight)

	work := make([]distributor.WorkFunc[any], len(s.metrics))
	for i, metric := range s.metrics {
		metric := metric
		work[i] = func(ctx context.Context) (any, error) {
			log.Debugf("Calling %s", metric.Name())
			return metric.Score(ctx, pairs, observed, predicted, thresholds, ScoreOptions{
				Comms:        s.comms,
				Metadata:     metadata,
				SkipInterval: !s.calculateInterval,
			})
		}
	}

	outcomes, err := dist.Perform(ctx, work)
	if err != nil {
		return nil, err
	}

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			return nil, outcome.Err
		}
		scores, ok := outcome.Value.(*Scores)
		if !ok || scores == nil {
			continue
		}
		if err := results.AddScores(scores); err != nil {
			return nil, err
		}
	}

	return results, nil
}
