package scoring

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighestDensityIntervalShortCircuits(t *testing.T) {
	lo, hi := highestDensityInterval(nil, 0.95)
	assert.True(t, math.IsNaN(lo) && math.IsNaN(hi))

	lo, hi = highestDensityInterval([]float64{5}, 0.95)
	assert.Equal(t, 5.0, lo)
	assert.Equal(t, 5.0, hi)

	lo, hi = highestDensityInterval([]float64{3, 1, 2}, 0.95)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 3.0, hi)
}

func TestHighestDensityIntervalOrdersBounds(t *testing.T) {
	values := []float64{10, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	lo, hi := highestDensityInterval(values, 0.5)
	assert.LessOrEqual(t, lo, hi)
}

func TestBootstrapSufficiency(t *testing.T) {
	old := bootstrapRepetitions
	bootstrapRepetitions = 50
	defer func() { bootstrapRepetitions = old }()

	mean := func(_ context.Context, pairs Frame, _ *Threshold) (float64, error) {
		if len(pairs) == 0 {
			return math.NaN(), nil
		}
		sum := 0.0
		for _, p := range pairs {
			sum += p.Observed
		}
		return sum / float64(len(pairs)), nil
	}

	few := Frame{{Observed: 1}, {Observed: 2}, {Observed: 3}}
	interval, err := bootstrapMetricInterval(context.Background(), nil, Default(), few, mean, 1)
	require.NoError(t, err)
	assert.Nil(t, interval, "n<=3 must not generate a bootstrap interval")

	enough := Frame{{Observed: 1}, {Observed: 2}, {Observed: 3}, {Observed: 4}, {Observed: 5}}
	interval, err = bootstrapMetricInterval(context.Background(), nil, Default(), enough, mean, 1)
	require.NoError(t, err)
	require.NotNil(t, interval)
	assert.LessOrEqual(t, interval[0], interval[1])
}

func TestBootstrapIsDeterministicGivenSeed(t *testing.T) {
	old := bootstrapRepetitions
	bootstrapRepetitions = 200
	defer func() { bootstrapRepetitions = old }()

	mean := func(_ context.Context, pairs Frame, _ *Threshold) (float64, error) {
		sum := 0.0
		for _, p := range pairs {
			sum += p.Observed
		}
		return sum / float64(len(pairs)), nil
	}
	frame := Frame{{Observed: 1}, {Observed: 2}, {Observed: 3}, {Observed: 4}, {Observed: 5}, {Observed: 6}}

	a, err := bootstrapMetricInterval(context.Background(), nil, Default(), frame, mean, 7)
	require.NoError(t, err)
	b, err := bootstrapMetricInterval(context.Background(), nil, Default(), frame, mean, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
