package expression

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessExpressions_VariableAndExpressionResolution(t *testing.T) {
	data := map[string]any{
		"variables": map[string]any{
			"x": 10.0,
			"y": "<% '1' + '2' %>",
		},
		"out": "<% '{{% x %}}' + '{{% y %}}' %>",
	}

	err := ProcessExpressions(data, map[string]any{}, 0, clockwork.NewFakeClock())
	require.NoError(t, err)
	assert.Equal(t, 13.0, data["out"])
}

func TestProcessExpressions_Idempotent(t *testing.T) {
	data := map[string]any{
		"variables": map[string]any{"a": "hello"},
		"greeting":  "{{% a %}} world",
	}
	clock := clockwork.NewFakeClock()

	require.NoError(t, ProcessExpressions(data, map[string]any{}, 0, clock))
	assert.Equal(t, "hello world", data["greeting"])

	before := data["greeting"]
	require.NoError(t, ProcessExpressions(data, map[string]any{}, 0, clock))
	assert.Equal(t, before, data["greeting"])
}

func TestProcessExpressions_SelfReferentialVariableLoops(t *testing.T) {
	data := map[string]any{
		"variables": map[string]any{"a": "{{% a %}}"},
		"out":       "{{% a %}}",
	}

	err := ProcessExpressions(data, map[string]any{}, 0, clockwork.NewFakeClock())
	require.Error(t, err)
	var exprErr *ExpressionError
	assert.ErrorAs(t, err, &exprErr)
}

func TestCastValue_NumericAndSlice(t *testing.T) {
	v, err := castValue("3.5", "float")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	s, err := castValue("a,b,c", "list")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, s)

	sl, err := castValue("1,3", "slice")
	require.NoError(t, err)
	spec, ok := sl.(sliceSpec)
	require.True(t, ok)
	assert.Equal(t, 1, spec.start)
	assert.Equal(t, 3, spec.stop)
}

func TestApplyGet_IndexesSequencesAndSlices(t *testing.T) {
	out, err := applyGet([]any{"a", "b", "c", "d"}, sliceSpec{start: 1, stop: 3, hasStop: true})
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "c"}, out)

	v, err := applyGet(map[string]any{"k": 42}, "k")
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestApplyGet_DecodesJSONStringContainers(t *testing.T) {
	v, err := applyGet(`["a","b","c"]`, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	v, err = applyGet(`{"k": 7}`, "k")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestEvaluateOperator_CoalesceSkipsNilAndEmptyContainers(t *testing.T) {
	v, err := evaluateOperator(nil, "??", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	v, err = evaluateOperator([]any{}, "??", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)

	v, err = evaluateOperator([]any{"x"}, "??", "fallback")
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, v)
}

func TestResolveDotted_DeniesUnlistedModules(t *testing.T) {
	_, err := resolveDotted("collections.abc.Mapping")
	assert.Error(t, err)

	fn, err := resolveDotted("strings.contains")
	require.NoError(t, err)
	result, err := fn("hello world", "world")
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestConstantValues_NowIsDeterministicUnderFakeClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	data := map[string]any{"stamp": "{{% NOW NAIVE %}}"}

	require.NoError(t, ProcessExpressions(data, map[string]any{}, 0, clock))
	assert.Equal(t, clock.Now().Format("2006-01-02T15:04"), data["stamp"])
}
