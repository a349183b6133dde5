package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookupByNameOrIdentifier(t *testing.T) {
	metric, err := NewMetric("Mean Error", 1, UnboundedBounds(), false, "", func(ctx context.Context, f Frame, th *Threshold) (float64, error) {
		return 0, nil
	})
	require.NoError(t, err)

	Register(metric)

	found, ok := Lookup("Mean Error")
	require.True(t, ok)
	assert.Equal(t, metric.Identifier(), found.Identifier())

	foundByID, ok := Lookup("mean-error")
	require.True(t, ok)
	assert.Equal(t, metric.Identifier(), foundByID.Identifier())

	_, ok = Lookup("does not exist")
	assert.False(t, ok)
}

func TestRegisterReplacesEarlierRegistration(t *testing.T) {
	first, err := NewMetric("Replaceable", 1, UnboundedBounds(), false, "first", func(ctx context.Context, f Frame, th *Threshold) (float64, error) {
		return 1, nil
	})
	require.NoError(t, err)
	second, err := NewMetric("Replaceable", 2, UnboundedBounds(), false, "second", func(ctx context.Context, f Frame, th *Threshold) (float64, error) {
		return 2, nil
	})
	require.NoError(t, err)

	Register(first)
	Register(second)

	found, ok := Lookup("Replaceable")
	require.True(t, ok)
	assert.Equal(t, "second", found.Description())
}

func TestRegisteredIncludesEveryRegisteredMetric(t *testing.T) {
	metric, err := NewMetric("Listed Metric", 1, UnboundedBounds(), false, "", func(ctx context.Context, f Frame, th *Threshold) (float64, error) {
		return 0, nil
	})
	require.NoError(t, err)
	Register(metric)

	var found bool
	for _, m := range Registered() {
		if m.Identifier() == metric.Identifier() {
			found = true
		}
	}
	assert.True(t, found)
}
