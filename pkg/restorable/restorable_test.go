package restorable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain_moduleIsForbidden(t *testing.T) {
	Register("__main__", "anything", 1, false)
	p := Package{Module: "__main__", Name: "anything"}
	_, err := p.Restore(nil, nil)
	assert.Error(t, err)
	var restoreErr *RestoreError
	assert.ErrorAs(t, err, &restoreErr)
}

func TestRestoreValue(t *testing.T) {
	Register("thresholds", "default_weight", 1.0, false)
	p := Package{Module: "thresholds", Name: "default_weight"}
	v, err := p.Restore(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestRestoreFunctionInvokesAndChains(t *testing.T) {
	Register("metrics", "wrap", Func(func(args []any, kwargs map[string]any) (any, error) {
		return Func(func(args2 []any, kwargs2 map[string]any) (any, error) {
			return "done", nil
		}), nil
	}), false)

	p := Package{Module: "metrics", Name: "wrap"}
	v, err := p.Restore(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestRestoreIsFunctionReturnsPartial(t *testing.T) {
	Register("metrics", "add", Func(func(args []any, kwargs map[string]any) (any, error) {
		sum := 0
		for _, a := range args {
			sum += a.(int)
		}
		return sum, nil
	}), false)

	p := Package{Module: "metrics", Name: "add", Arguments: []any{1, 2}, IsFunction: true}
	v, err := p.Restore([]any{3}, nil)
	require.NoError(t, err)
	bound, ok := v.(Func)
	require.True(t, ok)

	result, err := bound(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, result)
}

func TestAsynchronousCallableRejected(t *testing.T) {
	Register("metrics", "asyncish", Func(func(args []any, kwargs map[string]any) (any, error) {
		return nil, nil
	}), true)

	p := Package{Module: "metrics", Name: "asyncish"}
	_, err := p.Restore(nil, nil)
	assert.Error(t, err)
}

func TestDeniedPrefixBlocksResolution(t *testing.T) {
	Register("sandbox", "collections.abc.Mapping", 1, false)
	DeniedPrefixes("sandbox", "collections.abc")

	p := Package{Module: "sandbox", Name: "collections.abc.Mapping"}
	_, err := p.Restore(nil, nil)
	assert.Error(t, err)
}
