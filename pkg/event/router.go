package event

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Router routes named events and their payloads to validated handler
// groups, dispatching either synchronously (Trigger, which records
// deferred work) or concurrently (Fire). T is the type of the caller recorded on
// each dispatched Event.
type Router[T any] struct {
	failOnMissingEvent bool

	mu     sync.Mutex
	events map[string]*EventFunctionGroup
	active []func() error
}

// NewRouter constructs a Router. When failOnMissingEvent is true,
// Trigger/Fire against an unregistered event name return a LookupError
// instead of silently doing nothing.
func NewRouter[T any](failOnMissingEvent bool) *Router[T] {
	return &Router[T]{
		failOnMissingEvent: failOnMissingEvent,
		events:             map[string]*EventFunctionGroup{},
	}
}

// RegisterEvent declares the signature handlers for name must comply
// with. Re-registering an already-known name is a no-op.
func (r *Router[T]) RegisterEvent(name string, signature Signature) *Router[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[name]; exists {
		return r
	}
	r.events[name] = NewEventFunctionGroup(signature)
	return r
}

// RegisterHandler attaches handler to name, declaring the event (using
// handler's own derived signature) first if it isn't already known.
func (r *Router[T]) RegisterHandler(name string, handler any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, exists := r.events[name]
	if !exists {
		sig, err := SignatureFromFunc(handler)
		if err != nil {
			return err
		}
		group = NewEventFunctionGroup(sig)
		r.events[name] = group
	}
	return group.AddFunction(handler)
}

func (r *Router[T]) lookup(name string) (*EventFunctionGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, exists := r.events[name]
	if !exists {
		if r.failOnMissingEvent {
			return nil, &LookupError{Reason: "no registered handlers for event " + name}
		}
		return nil, nil
	}
	return group, nil
}

func (r *Router[T]) recordActive(tasks []func() error) {
	if len(tasks) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = append(r.active, tasks...)
}

// prepare builds the Event, remapping positional args onto the declared
// signature's parameter names where the keyword slot is unoccupied.
func (r *Router[T]) prepare(group *EventFunctionGroup, name string, caller T, args []any, kwargs map[string]any) Event[T] {
	remainingArgs := make([]any, len(args))
	copy(remainingArgs, args)
	mergedKwargs := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		mergedKwargs[k] = v
	}

	consumed := map[int]bool{}
	index := 0
	for i, param := range group.Signature().Parameters() {
		if index >= len(remainingArgs) {
			break
		}
		// The first parameter is the event slot itself and the variadic
		// slots have no single keyword to bind to; neither consumes a
		// positional argument.
		if i == 0 || param.IsArgs || param.IsKwargs {
			continue
		}
		if _, occupied := mergedKwargs[param.Name]; occupied {
			continue
		}
		mergedKwargs[param.Name] = remainingArgs[index]
		consumed[index] = true
		index++
	}

	finalArgs := make([]any, 0, len(remainingArgs))
	for i, a := range remainingArgs {
		if !consumed[i] {
			finalArgs = append(finalArgs, a)
		}
	}

	return NewEvent(name, caller, finalArgs, mergedKwargs)
}

// Trigger calls every handler registered for name synchronously, in
// registration order, recording any deferred tasks returned by handlers
// for later draining via CompleteActiveTasks. If the event is unknown and
// failOnMissingEvent is false, Trigger is a silent no-op.
func (r *Router[T]) Trigger(name string, caller T, args []any, kwargs map[string]any) error {
	group, err := r.lookup(name)
	if err != nil {
		return err
	}
	if group == nil {
		return nil
	}

	ev := r.prepare(group, name, caller, args, kwargs)
	deferred, err := group.Trigger(ev, ev.Args(), ev.Kwargs())
	r.recordActive(deferred)
	return err
}

// Fire is the concurrent variant: every handler runs inside an errgroup,
// and Fire returns once all of them (and any deferred task they returned)
// have completed, joining the first error encountered.
func (r *Router[T]) Fire(name string, caller T, args []any, kwargs map[string]any) error {
	group, err := r.lookup(name)
	if err != nil {
		return err
	}
	if group == nil {
		return nil
	}

	ev := r.prepare(group, name, caller, args, kwargs)

	var g errgroup.Group
	for _, handler := range group.functions {
		handler := handler
		g.Go(func() error {
			results, err := handler.Call(ev, ev.Args(), ev.Kwargs())
			if err != nil {
				return err
			}
			for _, res := range results {
				if task, ok := res.(func() error); ok {
					if taskErr := task(); taskErr != nil {
						return taskErr
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// CompleteActiveTasks drains and invokes every deferred task recorded by
// prior Trigger calls, in LIFO order, joining the first error encountered.
func (r *Router[T]) CompleteActiveTasks() error {
	for {
		r.mu.Lock()
		if len(r.active) == 0 {
			r.mu.Unlock()
			return nil
		}
		task := r.active[len(r.active)-1]
		r.active = r.active[:len(r.active)-1]
		r.mu.Unlock()

		if err := task(); err != nil {
			return err
		}
	}
}
