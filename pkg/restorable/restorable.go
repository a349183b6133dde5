// Package restorable implements the transport form for a callable or
// value (Package) and its reconstruction (Package.Restore), resolved
// through a build-time registry: every restorable callable or value is
// registered under a stable identifier, and a Package's name is a
// registry key.
package restorable

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Func is the uniform signature every registered callable must satisfy.
// Go has no native keyword-argument calling convention, so kwargs is
// passed as an explicit map rather than reflected from named parameters.
type Func func(args []any, kwargs map[string]any) (any, error)

// Async, when implemented by a registered value, lets the registry flag
// a callable as asynchronous; the restorer is synchronous and refuses to
// restore such values.
type Async interface {
	IsAsync() bool
}

type registryEntry struct {
	value   any
	isAsync bool
	denied  bool
}

var (
	mu       sync.RWMutex
	registry = map[string]map[string]*registryEntry{}
)

// RestoreError reports an unresolvable module/name, a forbidden
// "__main__" module, an asynchronous callable, or a missing nested
// module/name while reconstructing a Package.
type RestoreError struct {
	Reason string
}

func (e *RestoreError) Error() string { return "restorable: " + e.Reason }

func newRestoreError(format string, args ...any) error {
	return &RestoreError{Reason: fmt.Sprintf(format, args...)}
}

// SerializationError reports that a restorable's arguments cannot be
// serialized into a transport-safe form.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string { return "restorable: " + e.Reason }

// Register publishes value under (module, name) so Package{Module:
// module, Name: name} can later be restored. async marks the value as
// asynchronous, which makes any attempt to restore it fail.
func Register(module, name string, value any, async bool) {
	mu.Lock()
	defer mu.Unlock()
	if registry[module] == nil {
		registry[module] = map[string]*registryEntry{}
	}
	registry[module][name] = &registryEntry{value: value, isAsync: async}
}

// DeniedPrefixes blocks every registered name under module whose dotted
// name begins with one of prefixes, modeling the sandbox's access-control
// list over dotted lookups.
func DeniedPrefixes(module string, prefixes ...string) {
	mu.Lock()
	defer mu.Unlock()
	entries := registry[module]
	if entries == nil {
		return
	}
	for name, entry := range entries {
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				entry.denied = true
			}
		}
	}
}

func resolve(module, name string) (any, error) {
	if module == "__main__" {
		return nil, newRestoreError("module %q (the process entry module) cannot be restored from", module)
	}

	mu.RLock()
	defer mu.RUnlock()

	entries, ok := registry[module]
	if !ok {
		return nil, newRestoreError("module %q is not registered", module)
	}

	// An exact registration of the full dotted name wins outright; only
	// fall back to attribute-path descent through nested mappings when
	// no such registration exists.
	entry, ok := entries[name]
	leftover := ""
	if !ok {
		parts := strings.SplitN(name, ".", 2)
		entry, ok = entries[parts[0]]
		if !ok {
			return nil, newRestoreError("name %q is not registered under module %q", parts[0], module)
		}
		if len(parts) == 2 {
			leftover = parts[1]
		}
	}
	if entry.denied {
		return nil, newRestoreError("name %q in module %q is in a denied prefix", name, module)
	}
	if entry.isAsync {
		return nil, newRestoreError("%s.%s is asynchronous and cannot be restored", module, name)
	}

	cur := entry.value
	var descendParts []string
	if leftover != "" {
		descendParts = strings.Split(leftover, ".")
	}
	for _, p := range descendParts {
		nested, ok := cur.(map[string]any)
		if !ok {
			return nil, newRestoreError("cannot descend into %q: %s.%s is not a mapping", p, module, name)
		}
		cur, ok = nested[p]
		if !ok {
			return nil, newRestoreError("nested name %q is missing under %s.%s", p, module, name)
		}
	}

	if a, ok := cur.(Async); ok && a.IsAsync() {
		return nil, newRestoreError("%s.%s is asynchronous and cannot be restored", module, name)
	}

	return cur, nil
}

// Package is the on-wire representation of a restorable callable or
// value.
type Package struct {
	Module           string         `json:"module"`
	Name             string         `json:"name"`
	Arguments        []any          `json:"arguments,omitempty"`
	KeywordArguments map[string]any `json:"keyword_arguments,omitempty"`
	IsFunction       bool           `json:"is_function"`
}

// serializable reports whether v is safe to carry over the wire: nil,
// bool, numeric, string, another Package (recursively), a slice/map
// composed entirely of such values, or any other value encoding/json can
// marshal.
func serializable(v any) bool {
	switch x := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	case Package:
		return serializable(x.Arguments) && serializable(x.KeywordArguments)
	case []any:
		for _, e := range x {
			if !serializable(e) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, e := range x {
			if !serializable(e) {
				return false
			}
		}
		return true
	default:
		if _, err := json.Marshal(v); err != nil {
			return false
		}
		return true
	}
}

// Restore concatenates call-site args/kwargs with the Package's own and
// reconstructs the target:
//   - is_function + callable target: a partial application binding all
//     accumulated args/kwargs.
//   - callable target, not a function restore: invokes the target,
//     repeatedly invoking the result while it is itself callable.
//   - else: the named value as-is.
func (p Package) Restore(extraArgs []any, extraKwargs map[string]any) (any, error) {
	if !serializable(p.Arguments) || !serializable(p.KeywordArguments) {
		return nil, &SerializationError{Reason: fmt.Sprintf("arguments for %s.%s are not transport-safe", p.Module, p.Name)}
	}

	args, err := restoreArgs(p.Arguments)
	if err != nil {
		return nil, err
	}
	args = append(append([]any{}, args...), extraArgs...)

	kwargs, err := restoreKwargs(p.KeywordArguments)
	if err != nil {
		return nil, err
	}
	for k, v := range extraKwargs {
		kwargs[k] = v
	}

	target, err := resolve(p.Module, p.Name)
	if err != nil {
		return nil, err
	}

	fn, callable := target.(Func)
	if !callable {
		return target, nil
	}

	if p.IsFunction {
		boundArgs := append([]any{}, args...)
		boundKwargs := make(map[string]any, len(kwargs))
		for k, v := range kwargs {
			boundKwargs[k] = v
		}
		return Func(func(moreArgs []any, moreKwargs map[string]any) (any, error) {
			callArgs := append(append([]any{}, boundArgs...), moreArgs...)
			callKwargs := make(map[string]any, len(boundKwargs)+len(moreKwargs))
			for k, v := range boundKwargs {
				callKwargs[k] = v
			}
			for k, v := range moreKwargs {
				callKwargs[k] = v
			}
			return fn(callArgs, callKwargs)
		}), nil
	}

	result, err := fn(args, kwargs)
	if err != nil {
		return nil, err
	}
	for {
		next, ok := result.(Func)
		if !ok {
			return result, nil
		}
		result, err = next(nil, nil)
		if err != nil {
			return nil, err
		}
	}
}

func restoreArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		if nested, ok := a.(Package); ok {
			restored, err := nested.Restore(nil, nil)
			if err != nil {
				return nil, err
			}
			out[i] = restored
		} else {
			out[i] = a
		}
	}
	return out, nil
}

func restoreKwargs(kwargs map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(kwargs))
	for k, v := range kwargs {
		if nested, ok := v.(Package); ok {
			restored, err := nested.Restore(nil, nil)
			if err != nil {
				return nil, err
			}
			out[k] = restored
		} else {
			out[k] = v
		}
	}
	return out, nil
}
