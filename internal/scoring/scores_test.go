package scoring

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantMetric(t *testing.T, name string, weight float64, bounds Bounds, value float64) Metric {
	t.Helper()
	fn := func(_ context.Context, pairs Frame, _ *Threshold) (float64, error) {
		if len(pairs) == 0 {
			return math.NaN(), nil
		}
		return value, nil
	}
	m, err := NewMetric(name, weight, bounds, true, "", fn)
	require.NoError(t, err)
	return m
}

func TestScoresAddRejectsDuplicateThreshold(t *testing.T) {
	metric := constantMetric(t, "m", 1, UnboundedBounds(), 1)
	scores := NewScores(metric)

	threshold := Default()
	score, err := newScore(metric, 1, nil, threshold, 3)
	require.NoError(t, err)

	require.NoError(t, scores.Add(score))
	assert.Error(t, scores.Add(score))
}

func TestScoresAddRejectsWrongMetric(t *testing.T) {
	metricA := constantMetric(t, "a", 1, UnboundedBounds(), 1)
	metricB := constantMetric(t, "b", 1, UnboundedBounds(), 1)

	scores := NewScores(metricA)
	score, err := newScore(metricB, 1, nil, Default(), 3)
	require.NoError(t, err)
	assert.Error(t, scores.Add(score))
}

func TestScoresPerformanceIgnoresEmptySamples(t *testing.T) {
	metric := constantMetric(t, "m", 1, Bounds{Lower: 0, Upper: 1, Ideal: 1}, 1)
	scores := NewScores(metric)

	present, err := NewThreshold("present", nil, 2, nil)
	require.NoError(t, err)
	absent, err := NewThreshold("absent", nil, 3, func(Frame) Frame { return nil })
	require.NoError(t, err)

	presentScore, err := newScore(metric, 1, nil, present, 5)
	require.NoError(t, err)
	absentScore, err := newScore(metric, math.NaN(), nil, absent, 0)
	require.NoError(t, err)

	require.NoError(t, scores.Add(presentScore))
	require.NoError(t, scores.Add(absentScore))

	// Only "present" counts: its scaled value is 1*2, averaged with
	// threshold weight 2, so the empty-sample threshold adds nothing.
	assert.InDelta(t, 2.0, scores.Performance(), 1e-9, "the empty-sample threshold must not dilute performance")
	assert.InDelta(t, 2.0, scores.ScaledValue(), 1e-9)
}

func TestScoresAsMapShape(t *testing.T) {
	metric := constantMetric(t, "m", 1, Bounds{Lower: 0, Upper: 1, Ideal: 1}, 1)
	scores := NewScores(metric)
	score, err := newScore(metric, 1, nil, Default(), 3)
	require.NoError(t, err)
	require.NoError(t, scores.Add(score))

	m := scores.AsMap()
	for _, key := range []string{"total", "interval", "scaled_value", "scaled_interval", "grade", "scores"} {
		_, ok := m[key]
		assert.True(t, ok, "missing key %q", key)
	}
}
