package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultsWithRawValues(t *testing.T, raws ...float64) *MetricResults {
	t.Helper()
	results := NewMetricResults("location", 1)
	names := []string{"first", "second", "third", "fourth"}
	for i, raw := range raws {
		metric := constantMetric(t, names[i], 1, Bounds{Lower: 0, Upper: 1, Ideal: 1}, raw)
		scores := NewScores(metric)
		score, err := newScore(metric, raw, nil, Default(), 5)
		require.NoError(t, err)
		require.NoError(t, scores.Add(score))
		require.NoError(t, results.AddScores(scores))
	}
	return results
}

func TestMetricResultsAggregationMonotonicity(t *testing.T) {
	// Raising one metric's raw result toward its ideal must never lower
	// the overall scaled value.
	previous := math.Inf(-1)
	for _, raw := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		current := resultsWithRawValues(t, raw, 0.5).ScaledValue()
		assert.GreaterOrEqual(t, current, previous, "raw=%v", raw)
		previous = current
	}
}

func TestMetricResultsGetUnknownMetric(t *testing.T) {
	results := resultsWithRawValues(t, 1.0)
	_, err := results.Get("never registered")
	require.Error(t, err)
	var lookupErr *LookupError
	assert.ErrorAs(t, err, &lookupErr)
}

func TestMetricResultsAsMapDropsValuelessMetrics(t *testing.T) {
	results := NewMetricResults("location", 1)

	scored := constantMetric(t, "scored", 1, Bounds{Lower: 0, Upper: 1, Ideal: 1}, 1)
	scoredScores := NewScores(scored)
	score, err := newScore(scored, 1, nil, Default(), 5)
	require.NoError(t, err)
	require.NoError(t, scoredScores.Add(score))
	require.NoError(t, results.AddScores(scoredScores))

	unscored := constantMetric(t, "unscored", 1, Bounds{Lower: 0, Upper: 1, Ideal: 1}, 1)
	unscoredScores := NewScores(unscored)
	empty, err := newScore(unscored, math.NaN(), nil, Default(), 0)
	require.NoError(t, err)
	require.NoError(t, unscoredScores.Add(empty))
	require.NoError(t, results.AddScores(unscoredScores))

	m := results.AsMap()
	scores, ok := m["scores"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, scores, "scored")
	assert.NotContains(t, scores, "unscored")
}
