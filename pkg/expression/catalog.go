// Package expression implements the variable-substitution and
// expression-evaluation pass that rewrites configuration trees in place:
// a tree walk collects scoped variables under a reserved key, substitutes
// "{{% name %}}" references, and evaluates "<% 'v1'[:cast1] OP
// 'v2'[:cast2] %>" two-operand expressions through a sandboxed operator
// and cast catalog.
package expression

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jonboulle/clockwork"
)

// DefaultProcessIterationCount bounds how many variable/expression passes
// ProcessExpressions performs before giving up on convergence.
const DefaultProcessIterationCount = 5

// VariableKey is the reserved mapping key holding scope-local variable
// definitions; child scopes shadow definitions from ancestors.
const VariableKey = "variables"

// variablePattern matches "{{% name %}}", allowing surrounding text and
// internal whitespace in name.
var variablePattern = regexp.MustCompile(`(?:\{\{%)\s*(?P<name>[-a-zA-Z0-9_+]+(?:\s+[-a-zA-Z0-9_+]+)*)\s*(?:%\}\})`)

// expressionPattern matches the five-field two-operand expression form:
// <% 'value1'[:cast1] OP 'value2'[:cast2] %>.
var expressionPattern = regexp.MustCompile(
	`<%\s*'(?P<value_one>[^']*)'(?:\s*:\s*(?P<value_one_cast>[-a-zA-Z0-9_.]+))?\s*` +
		`(?P<operator>[-+*/]|\?\?|get|[-a-zA-Z0-9_.]+)\s*` +
		`'(?P<value_two>[^']*)'(?:\s*:\s*(?P<value_two_cast>[-a-zA-Z0-9_.]+))?\s*%>`,
)

// ExpressionError reports an unknown operator or cast, a sandbox denial, a
// detected loop in repeated transformation, or a cycle in variable
// substitution.
type ExpressionError struct {
	Reason string
}

func (e *ExpressionError) Error() string { return "expression: " + e.Reason }

func newExpressionError(format string, args ...any) error {
	return &ExpressionError{Reason: fmt.Sprintf(format, args...)}
}

// AvailableModules is the sandbox's allow-list of top-level identifiers
// reachable from a dotted operator path. Anything not present here -
// notably abstract-collection and HTTP-client style modules - is denied
// simply by being absent; resolveDotted reports that absence as an
// ExpressionError.
var AvailableModules = map[string]any{
	"strings": map[string]any{
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"trim":      strings.TrimSpace,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
	},
}

// Clock supplies the current time for the built-in NOW constants; it is
// satisfied by clockwork.Clock so tests can inject clockwork.NewFakeClock().
type Clock = clockwork.Clock

var defaultClock Clock = clockwork.NewRealClock()

// constantValues backs the built-in variable constants table. Callable
// entries are invoked with no arguments at substitution time.
func constantValues(clock Clock) map[string]any {
	if clock == nil {
		clock = defaultClock
	}
	return map[string]any{
		"NOW NAIVE": func() any { return clock.Now().Format("2006-01-02T15:04") },
		"NOW UTC":   func() any { return clock.Now().UTC().Format("2006-01-02T15:04Z0700") },
		"NOW":       func() any { return clock.Now().Format("2006-01-02T15:04Z0700") },
		"NULL":      nil,
	}
}

func valueToSequence(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case string:
		switch {
		case strings.Contains(v, " "):
			return toAnySlice(strings.Split(v, " "))
		case strings.Contains(v, "|"):
			return toAnySlice(strings.Split(v, "|"))
		case strings.Contains(v, ","):
			return toAnySlice(strings.Split(v, ","))
		default:
			return []any{v}
		}
	default:
		return []any{value}
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// sliceSpec is the Go analogue of a Python slice object, produced by the
// "slice" cast and consumed by the "get" operator against a sequence.
type sliceSpec struct {
	start, stop, step int
	hasStop, hasStep  bool
}

func toSlice(value any) (any, error) {
	parts := valueToSequence(value)
	toInt := func(v any) (int, error) {
		switch x := v.(type) {
		case int:
			return x, nil
		case float64:
			return int(x), nil
		case string:
			return strconv.Atoi(strings.TrimSpace(x))
		default:
			return 0, fmt.Errorf("cannot interpret %v as a slice bound", v)
		}
	}
	start, err := toInt(parts[0])
	if err != nil {
		return nil, err
	}
	spec := sliceSpec{start: start}
	if len(parts) >= 2 {
		stop, err := toInt(parts[1])
		if err != nil {
			return nil, err
		}
		spec.stop, spec.hasStop = stop, true
	}
	if len(parts) >= 3 {
		step, err := toInt(parts[2])
		if err != nil {
			return nil, err
		}
		spec.step, spec.hasStep = step, true
	}
	return spec, nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("cannot cast %v (%T) to int", value, value)
	}
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("cannot cast %v (%T) to float", value, value)
	}
}

func parseDate(value any) (any, error) {
	if t, ok := value.(time.Time); ok {
		return t, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cannot cast %v (%T) to a date", value, value)
	}
	for _, layout := range []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("could not parse %q as a date", s)
}

func toDict(value any) (any, error) {
	if m, ok := value.(map[string]any); ok {
		return m, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cannot cast %v (%T) to a mapping", value, value)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// castCatalog is the fixed set of named conversions a cast operand may
// invoke. Keys are case-sensitive aliases of the same operation.
var castCatalog = map[string]func(any) (any, error){
	"list":  func(v any) (any, error) { return valueToSequence(v), nil },
	"slice": toSlice,
	"set": func(v any) (any, error) {
		set := mapset.NewSet[any]()
		for _, e := range valueToSequence(v) {
			set.Add(e)
		}
		return set, nil
	},
	"int":      func(v any) (any, error) { n, err := toInt64(v); return int(n), err },
	"integer":  func(v any) (any, error) { n, err := toInt64(v); return int(n), err },
	"float":    func(v any) (any, error) { return toFloat64(v) },
	"number":   func(v any) (any, error) { return toFloat64(v) },
	"str":      func(v any) (any, error) { return fmt.Sprintf("%v", v), nil },
	"string":   func(v any) (any, error) { return fmt.Sprintf("%v", v), nil },
	"date":     parseDate,
	"datetime": parseDate,
	"dict":     toDict,
	"map":      toDict,
	"path":     func(v any) (any, error) { return fmt.Sprintf("%v", v), nil },
}

// castValue applies the named cast, or returns value unchanged when
// castName is empty.
func castValue(value any, castName string) (any, error) {
	castName = strings.TrimSpace(castName)
	if castName == "" {
		return value, nil
	}
	if fn, ok := castCatalog[castName]; ok {
		out, err := fn(value)
		if err != nil {
			return nil, newExpressionError("could not perform the %q cast on %v: %v", castName, value, err)
		}
		return out, nil
	}
	return nil, newExpressionError("unknown cast operation %q", castName)
}

