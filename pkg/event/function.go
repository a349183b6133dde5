package event

import (
	"fmt"
	"reflect"
)

// named is satisfied by Event[T] for any T; used to validate that a
// handler's first parameter is event-compatible. Go has no untyped
// parameters to duck-type over, leaving typed-Event and
// variadic-positional as the two admissible shapes.
type named interface {
	Name() string
}

var namedType = reflect.TypeOf((*named)(nil)).Elem()

// EventFunction wraps a callable plus its derived Signature, validated so
// that the first parameter is event-compatible: either the sole parameter
// of a fully variadic function, or a type implementing Name() string (as
// Event[T] does for every T).
type EventFunction struct {
	fn        reflect.Value
	signature Signature
}

// NewEventFunction validates fn and wraps it. fn must be a function value
// whose first parameter is event-compatible.
func NewEventFunction(fn any) (*EventFunction, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, &CompatibilityError{Reason: "event handlers must be callable"}
	}

	signature, err := SignatureFromFunc(fn)
	if err != nil {
		return nil, err
	}

	parameters := signature.Parameters()
	if len(parameters) == 0 {
		return nil, &CompatibilityError{Reason: "event handlers must accept at least one parameter"}
	}

	first := parameters[0]
	firstIsValid := false

	switch {
	case first.IsArgs:
		// A fully variadic first parameter accepts anything, including an Event.
		firstIsValid = true
	case first.IsKwargs:
		firstIsValid = false
	case first.Type != nil && first.Type.Implements(namedType):
		firstIsValid = true
	}

	if !firstIsValid {
		return nil, &CompatibilityError{
			Reason: fmt.Sprintf(
				"%s is not a valid event handler: the first parameter must be an Event-like value or a variadic slot",
				v.Type(),
			),
		}
	}

	return &EventFunction{fn: v, signature: signature}, nil
}

func (f *EventFunction) Signature() Signature { return f.signature }

// Call invokes the wrapped function, shaping the event, positional args
// and keyword map onto the function's own parameters: the first parameter
// receives the event (a fully variadic first parameter receives the event
// plus every positional), a trailing map parameter receives kwargs, a
// trailing variadic receives the leftover positionals, and any other
// parameter draws the next positional, falling back to a kwargs entry
// matching its synthesized name and then to its zero value.
func (f *EventFunction) Call(event any, args []any, kwargs map[string]any) ([]any, error) {
	params := f.signature.Parameters()
	in := make([]reflect.Value, 0, len(params)+len(args))
	remaining := args

	for i, param := range params {
		switch {
		case i == 0:
			in = append(in, reflect.ValueOf(event))
			if param.IsArgs {
				for _, a := range remaining {
					in = append(in, valueForType(param.Type.Elem(), a))
				}
				remaining = nil
			}
		case param.IsKwargs:
			if kwargs == nil {
				kwargs = map[string]any{}
			}
			in = append(in, reflect.ValueOf(kwargs))
		case param.IsArgs:
			for _, a := range remaining {
				in = append(in, valueForType(param.Type.Elem(), a))
			}
			remaining = nil
		default:
			var next any
			if len(remaining) > 0 {
				next, remaining = remaining[0], remaining[1:]
			} else if v, ok := kwargs[param.Name]; ok {
				next = v
			}
			in = append(in, valueForType(param.Type, next))
		}
	}

	out := f.fn.Call(in)

	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}

	for _, r := range results {
		if err, ok := r.(error); ok && err != nil {
			return results, err
		}
	}
	return results, nil
}

// valueForType wraps v for a parameter of type t, substituting the zero
// value when v is nil.
func valueForType(t reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.New(t).Elem()
	}
	return reflect.ValueOf(v)
}
