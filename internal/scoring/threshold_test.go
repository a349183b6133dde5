package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThresholdRejectsNonPositiveWeight(t *testing.T) {
	_, err := NewThreshold("flood", 10.0, 0, nil)
	require.Error(t, err)
}

func TestNewThresholdRejectsEmptyName(t *testing.T) {
	_, err := NewThreshold("", 10.0, 1, nil)
	require.Error(t, err)
}

func TestDefaultThresholdSelectsEverything(t *testing.T) {
	d := Default()
	assert.Equal(t, "All", d.Name())
	assert.Equal(t, 1.0, d.Weight())

	frame := Frame{{Observed: 1, Predicted: 1}, {Observed: 2, Predicted: 3}}
	assert.Equal(t, frame, d.Apply(frame))
}

func TestThresholdIdentityEqualForSameNameAndValue(t *testing.T) {
	a, err := NewThreshold("flood", 10.0, 1, nil)
	require.NoError(t, err)
	b, err := NewThreshold("flood", 10.0, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Identity(), b.Identity())

	c, err := NewThreshold("flood", 20.0, 1, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Identity(), c.Identity())
}

func TestNormalizeThresholdsDefaultsEmpty(t *testing.T) {
	got := NormalizeThresholds(nil)
	require.Len(t, got, 1)
	assert.Equal(t, DefaultThresholdName, got[0].Name())
}
