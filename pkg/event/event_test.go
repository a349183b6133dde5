package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramSig(params ...EventFunctionParameter) Signature { return NewSignature(params) }

func TestSignature_CompliesWith_UniversalRules(t *testing.T) {
	universal := paramSig(
		EventFunctionParameter{Index: 0, Name: "args", IsArgs: true},
		EventFunctionParameter{Index: 1, Name: "kwargs", IsKwargs: true},
	)
	narrow := paramSig(EventFunctionParameter{Index: 0, Name: "a", Required: true})

	assert.True(t, universal.CompliesWith(narrow), "a universal candidate complies with anything")
	assert.False(t, narrow.CompliesWith(universal), "a narrow candidate cannot satisfy a universal declaration")
}

func TestSignature_CompliesWith_RequiredKeywordSubset(t *testing.T) {
	declared := paramSig(
		EventFunctionParameter{Index: 0, Name: "a", Required: true},
		EventFunctionParameter{Index: 1, Name: "b", Required: true},
	)
	tooNarrow := paramSig(EventFunctionParameter{Index: 0, Name: "a", Required: true})
	assert.False(t, tooNarrow.CompliesWith(declared), "required counts must match with no variadic escape hatch")

	withKwargs := paramSig(
		EventFunctionParameter{Index: 0, Name: "a", Required: true},
		EventFunctionParameter{Index: 1, Name: "extra", IsKwargs: true},
	)
	assert.True(t, withKwargs.CompliesWith(declared), "a kwargs escape hatch relaxes the required-count rule")
}

func TestSignature_CompliesWith_VariadicRequirement(t *testing.T) {
	declaredWithArgs := paramSig(
		EventFunctionParameter{Index: 0, Name: "a", Required: true},
		EventFunctionParameter{Index: 1, Name: "rest", IsArgs: true},
	)
	noArgs := paramSig(EventFunctionParameter{Index: 0, Name: "a", Required: true})
	assert.False(t, noArgs.CompliesWith(declaredWithArgs))
}

type fakeEvent struct{ name string }

func (f fakeEvent) Name() string { return f.name }

func TestNewEventFunction_RejectsNonEventFirstParameter(t *testing.T) {
	_, err := NewEventFunction(func(n int) error { return nil })
	require.Error(t, err)
	var compatErr *CompatibilityError
	assert.ErrorAs(t, err, &compatErr)
}

func TestNewEventFunction_AcceptsEventTypedFirstParameter(t *testing.T) {
	handler := func(e fakeEvent) error { return nil }
	ef, err := NewEventFunction(handler)
	require.NoError(t, err)
	assert.Equal(t, 1, ef.Signature().Len())
}

func TestNewEventFunction_AcceptsVariadicFirstParameter(t *testing.T) {
	handler := func(args ...any) error { return nil }
	_, err := NewEventFunction(handler)
	require.NoError(t, err)
}

func TestRouter_TriggerDispatchesInRegistrationOrder(t *testing.T) {
	router := NewRouter[string](true)
	var order []int

	require.NoError(t, router.RegisterHandler("scored", func(e Event[string]) error {
		order = append(order, 1)
		return nil
	}))
	require.NoError(t, router.RegisterHandler("scored", func(e Event[string]) error {
		order = append(order, 2)
		return nil
	}))

	require.NoError(t, router.Trigger("scored", "caller", nil, nil))
	assert.Equal(t, []int{1, 2}, order)
}

func TestRouter_PrepareRemapsPositionalsOntoKeywords(t *testing.T) {
	declared := paramSig(
		EventFunctionParameter{Index: 0, Name: "event", Required: true},
		EventFunctionParameter{Index: 1, Name: "a", Required: true},
		EventFunctionParameter{Index: 2, Name: "b"},
		EventFunctionParameter{Index: 3, Name: "args", IsArgs: true},
		EventFunctionParameter{Index: 4, Name: "kwargs", IsKwargs: true},
	)
	router := NewRouter[string](true)
	group := NewEventFunctionGroup(declared)

	ev := router.prepare(group, "evt", "caller", []any{5}, map[string]any{"b": 7})
	assert.Equal(t, map[string]any{"a": 5, "b": 7}, ev.Kwargs())
	assert.Empty(t, ev.Args())
}

func TestRouter_TriggerInvokesKwargsHandlerWithRemappedArguments(t *testing.T) {
	declared := paramSig(
		EventFunctionParameter{Index: 0, Name: "event", Required: true},
		EventFunctionParameter{Index: 1, Name: "a", Required: true},
		EventFunctionParameter{Index: 2, Name: "b"},
		EventFunctionParameter{Index: 3, Name: "kwargs", IsKwargs: true},
	)
	router := NewRouter[string](true)
	router.RegisterEvent("scored", declared)

	var received map[string]any
	require.NoError(t, router.RegisterHandler("scored", func(e Event[string], kwargs map[string]any) error {
		received = kwargs
		return nil
	}))

	require.NoError(t, router.Trigger("scored", "caller", []any{5}, map[string]any{"b": 7}))
	assert.Equal(t, map[string]any{"a": 5, "b": 7}, received)
}

func TestRouter_FireInvokesKwargsHandlerWithRemappedArguments(t *testing.T) {
	declared := paramSig(
		EventFunctionParameter{Index: 0, Name: "event", Required: true},
		EventFunctionParameter{Index: 1, Name: "a", Required: true},
		EventFunctionParameter{Index: 2, Name: "kwargs", IsKwargs: true},
	)
	router := NewRouter[string](true)
	router.RegisterEvent("scored", declared)

	var received map[string]any
	require.NoError(t, router.RegisterHandler("scored", func(e Event[string], kwargs map[string]any) error {
		received = kwargs
		return nil
	}))

	require.NoError(t, router.Fire("scored", "caller", []any{"flood"}, nil))
	assert.Equal(t, map[string]any{"a": "flood"}, received)
}

func TestRouter_Trigger_UnknownEventSilentlyDropped(t *testing.T) {
	router := NewRouter[string](false)
	require.NoError(t, router.Trigger("nothing-registered", "caller", nil, nil))
}

func TestRouter_Trigger_UnknownEventFailsWhenConfigured(t *testing.T) {
	router := NewRouter[string](true)
	err := router.Trigger("nothing-registered", "caller", nil, nil)
	require.Error(t, err)
	var lookupErr *LookupError
	assert.ErrorAs(t, err, &lookupErr)
}

func TestRouter_Fire_JoinsHandlerErrors(t *testing.T) {
	router := NewRouter[string](true)
	boom := errors.New("boom")
	require.NoError(t, router.RegisterHandler("failing", func(e Event[string]) error { return boom }))

	err := router.Fire("failing", "caller", nil, nil)
	require.Error(t, err)
}

func TestRouter_CompleteActiveTasks_DrainsDeferredWork(t *testing.T) {
	router := NewRouter[string](true)
	ran := false
	require.NoError(t, router.RegisterHandler("deferrable", func(e Event[string]) func() error {
		return func() error {
			ran = true
			return nil
		}
	}))

	require.NoError(t, router.Trigger("deferrable", "caller", nil, nil))
	require.NoError(t, router.CompleteActiveTasks())
	assert.True(t, ran)
}
