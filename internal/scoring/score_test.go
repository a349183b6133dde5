package scoring

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pearsonCorrelation is a minimal ScoreFunc standing in for the real
// metric catalog, which lives outside this package.
func pearsonCorrelation(_ context.Context, pairs Frame, _ *Threshold) (float64, error) {
	n := len(pairs)
	if n == 0 {
		return math.NaN(), nil
	}
	var sumO, sumP float64
	for _, p := range pairs {
		sumO += p.Observed
		sumP += p.Predicted
	}
	meanO, meanP := sumO/float64(n), sumP/float64(n)

	var num, denO, denP float64
	for _, p := range pairs {
		dO, dP := p.Observed-meanO, p.Predicted-meanP
		num += dO * dP
		denO += dO * dO
		denP += dP * dP
	}
	if denO == 0 || denP == 0 {
		return math.NaN(), nil
	}
	return num / math.Sqrt(denO*denP), nil
}

func TestScoreSingleThresholdIdentityMetric(t *testing.T) {
	metric, err := NewMetric("Pearson Correlation Coefficient", 10, Bounds{Lower: -1, Upper: 1, Ideal: 1}, true, "", pearsonCorrelation)
	require.NoError(t, err)

	pairs := Frame{{Observed: 1, Predicted: 1}, {Observed: 2, Predicted: 2}, {Observed: 3, Predicted: 3}}
	scores, err := metric.Score(context.Background(), pairs, "observed", "predicted", nil, ScoreOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, scores.Len())

	score, err := scores.Get(DefaultThresholdName)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, score.Value(), 1e-9)
	assert.InDelta(t, 1.0, score.ScaledValue(), 1e-9)
	assert.InDelta(t, 100.0, score.Grade(), 1e-6)
	assert.False(t, score.Failed())
}

func TestScoreFailureDetectionOnEmptyFrame(t *testing.T) {
	always0 := func(_ Frame) Frame { return nil }
	emptyThreshold, err := NewThreshold("empty", nil, 1, always0)
	require.NoError(t, err)

	pod := func(_ context.Context, pairs Frame, _ *Threshold) (float64, error) {
		if len(pairs) == 0 {
			return math.NaN(), nil
		}
		return 1, nil
	}
	metric, err := NewMetric("Probability of Detection", 5, Bounds{Lower: 0, Upper: 1, Ideal: 1}, true, "", pod)
	require.NoError(t, err)
	metric.WithFailsOn(0)

	scores, err := metric.Score(context.Background(), Frame{{Observed: 1, Predicted: 1}}, "observed", "predicted", []*Threshold{emptyThreshold}, ScoreOptions{})
	require.NoError(t, err)

	score, err := scores.Get("empty")
	require.NoError(t, err)
	assert.Equal(t, 0, score.SampleSize())
	assert.True(t, math.IsNaN(score.Value()))
	assert.True(t, math.IsNaN(score.ScaledValue()))
	assert.False(t, score.Failed(), "fails_on=0 is not NaN, so a NaN value doesn't match it")
}

func TestScoreFailedWhenValueMatchesFailsOn(t *testing.T) {
	constantZero := func(_ context.Context, _ Frame, _ *Threshold) (float64, error) { return 0, nil }
	metric, err := NewMetric("Constant", 1, UnboundedBounds(), true, "", constantZero)
	require.NoError(t, err)
	metric.WithFailsOn(0)

	scores, err := metric.Score(context.Background(), Frame{{Observed: 1, Predicted: 1}}, "o", "p", nil, ScoreOptions{})
	require.NoError(t, err)
	score, err := scores.Get(DefaultThresholdName)
	require.NoError(t, err)
	assert.True(t, score.Failed())
}

func TestScoreNotFailedWithoutFailsOnConfigured(t *testing.T) {
	constantZero := func(_ context.Context, _ Frame, _ *Threshold) (float64, error) { return 0, nil }
	metric, err := NewMetric("Constant", 1, UnboundedBounds(), true, "", constantZero)
	require.NoError(t, err)

	scores, err := metric.Score(context.Background(), Frame{{Observed: 1, Predicted: 1}}, "o", "p", nil, ScoreOptions{})
	require.NoError(t, err)
	score, err := scores.Get(DefaultThresholdName)
	require.NoError(t, err)
	assert.False(t, score.Failed())
}
