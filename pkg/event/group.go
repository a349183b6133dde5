package event

import "fmt"

// EventFunctionGroup is a collection of handlers that all comply with one
// declared Signature, the set of handlers attached to a single event name.
type EventFunctionGroup struct {
	expected  Signature
	functions []*EventFunction
}

func NewEventFunctionGroup(expected Signature) *EventFunctionGroup {
	return &EventFunctionGroup{expected: expected}
}

func (g *EventFunctionGroup) Signature() Signature { return g.expected }

// SignatureMatches reports whether fn's signature complies with the
// group's declared signature.
func (g *EventFunctionGroup) SignatureMatches(fn any) bool {
	ef, err := NewEventFunction(fn)
	if err != nil {
		return false
	}
	return ef.Signature().CompliesWith(g.expected)
}

// AddFunction validates and appends fn, or returns a CompatibilityError.
func (g *EventFunctionGroup) AddFunction(fn any) error {
	ef, err := NewEventFunction(fn)
	if err != nil {
		return err
	}
	if !ef.Signature().CompliesWith(g.expected) {
		return &CompatibilityError{Reason: fmt.Sprintf(
			"handler signature %v does not comply with the declared signature",
			ef.Signature().Parameters(),
		)}
	}
	g.functions = append(g.functions, ef)
	return nil
}

// Trigger invokes every handler in registration order with event, the
// positional args and the keyword map, returning any deferred tasks
// (handler results of type func() error) for later completion, and the
// first handler error encountered.
func (g *EventFunctionGroup) Trigger(event any, args []any, kwargs map[string]any) ([]func() error, error) {
	var deferred []func() error
	for _, fn := range g.functions {
		results, err := fn.Call(event, args, kwargs)
		if err != nil {
			return deferred, err
		}
		for _, r := range results {
			if task, ok := r.(func() error); ok {
				deferred = append(deferred, task)
			}
		}
	}
	return deferred, nil
}
