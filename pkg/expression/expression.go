package expression

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// resolveOperand follows a chain of variable-to-variable references and
// nested expressions: a raw operand may be a variable name directly, may
// embed a "{{% name %}}" token, or, once substituted, may itself be
// another two-operand expression. Every textual form visited is recorded
// so a cycle raises a loop error instead of recursing forever.
func resolveOperand(variables map[string]any, raw string) (any, error) {
	seen := map[string]bool{}
	var value any = raw

	for {
		str, isString := value.(string)
		if !isString {
			return value, nil
		}
		if seen[str] {
			return nil, newExpressionError("cycle detected resolving operand %q", raw)
		}
		seen[str] = true

		if next, ok := variables[str]; ok {
			value = next
			continue
		}
		if variablePattern.MatchString(str) {
			substituted, err := applyVariable(defaultClock)(str, variables)
			if err != nil {
				return nil, err
			}
			if substituted == str {
				return value, nil
			}
			value = substituted
			continue
		}
		if expressionPattern.MatchString(str) {
			nested, matched, err := evaluateExpression(variables, str)
			if err != nil {
				return nil, err
			}
			if !matched {
				return value, nil
			}
			value = nested
			continue
		}
		return value, nil
	}
}

// coerceNumeric reports whether v can be treated as a number for an
// arithmetic operator, returning the parsed float64 when so.
func coerceNumeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func evaluateOperator(valueOne any, operator string, valueTwo any) (any, error) {
	switch operator {
	case "+", "-", "*", "/":
		if n1, ok1 := coerceNumeric(valueOne); ok1 {
			if n2, ok2 := coerceNumeric(valueTwo); ok2 {
				program, err := expr.Compile(fmt.Sprintf("value_one %s value_two", operator))
				if err != nil {
					return nil, newExpressionError("could not compile operator %q: %v", operator, err)
				}
				out, err := expr.Run(program, map[string]any{"value_one": n1, "value_two": n2})
				if err != nil {
					return nil, newExpressionError("operator %q failed on %v and %v: %v", operator, n1, n2, err)
				}
				return out, nil
			}
		}
		if operator != "+" {
			return nil, newExpressionError("operator %q requires numeric operands, got %v and %v", operator, valueOne, valueTwo)
		}
		program, err := expr.Compile("value_one + value_two")
		if err != nil {
			return nil, newExpressionError("could not compile operator %q: %v", operator, err)
		}
		out, err := expr.Run(program, map[string]any{
			"value_one": fmt.Sprintf("%v", valueOne),
			"value_two": fmt.Sprintf("%v", valueTwo),
		})
		if err != nil {
			return nil, newExpressionError("operator %q failed on %v and %v: %v", operator, valueOne, valueTwo, err)
		}
		return out, nil
	case "??":
		if valueOne == nil {
			return valueTwo, nil
		}
		// An empty container counts as missing for coalescing purposes.
		switch v := valueOne.(type) {
		case []any:
			if len(v) == 0 {
				return valueTwo, nil
			}
		case map[string]any:
			if len(v) == 0 {
				return valueTwo, nil
			}
		}
		return valueOne, nil
	case "get":
		return applyGet(valueOne, valueTwo)
	default:
		fn, err := resolveDotted(operator)
		if err != nil {
			return nil, err
		}
		return fn(valueOne, valueTwo)
	}
}

// applyGet implements index/key access into a sequence, map or string,
// including slice-cast operands produced by the "slice" cast. A string
// container that holds a JSON document is decoded first, so expressions
// can index straight into serialized lists and mappings.
func applyGet(container, key any) (any, error) {
	if s, ok := container.(string); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var decoded any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				container = decoded
			}
		}
	}
	if spec, ok := key.(sliceSpec); ok {
		seq := valueToSequence(container)
		n := len(seq)
		stop := n
		if spec.hasStop {
			stop = spec.stop
		}
		step := 1
		if spec.hasStep {
			step = spec.step
		}
		if spec.start < 0 || spec.start > n || stop < spec.start || stop > n || step <= 0 {
			return nil, newExpressionError("slice %+v is out of range for a sequence of length %d", spec, n)
		}
		out := make([]any, 0, (stop-spec.start)/step+1)
		for i := spec.start; i < stop; i += step {
			out = append(out, seq[i])
		}
		return out, nil
	}

	switch c := container.(type) {
	case map[string]any:
		k := fmt.Sprintf("%v", key)
		v, ok := c[k]
		if !ok {
			return nil, newExpressionError("key %q not present in mapping", k)
		}
		return v, nil
	case []any:
		idx, err := indexOf(key, len(c))
		if err != nil {
			return nil, err
		}
		return c[idx], nil
	case string:
		idx, err := indexOf(key, len(c))
		if err != nil {
			return nil, err
		}
		return string(c[idx]), nil
	default:
		return nil, newExpressionError("cannot perform 'get' on a value of type %T", container)
	}
}

func indexOf(key any, length int) (int, error) {
	n, err := toInt64(key)
	if err != nil {
		return 0, newExpressionError("cannot perform 'get' with a non-numeric index %v", key)
	}
	idx := int(n)
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, newExpressionError("index %v is out of range", key)
	}
	return idx, nil
}

// resolveDotted resolves a dotted operator path (e.g. "strings.upper")
// against the sandbox catalog, returning a two-argument callable. Any
// prefix absent from AvailableModules - including abstract-collection and
// HTTP-client style modules - fails as a sandbox denial.
func resolveDotted(path string) (func(a, b any) (any, error), error) {
	parts := strings.Split(path, ".")
	var cur any = AvailableModules
	for i, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, newExpressionError("sandbox denial: %q is not a module", strings.Join(parts[:i], "."))
		}
		next, ok := m[p]
		if !ok {
			return nil, newExpressionError("sandbox denial: %q is not an available module member", path)
		}
		cur = next
	}
	switch fn := cur.(type) {
	case func(a, b any) (any, error):
		return fn, nil
	case func(string) string:
		return func(a, b any) (any, error) { return fn(fmt.Sprintf("%v", a)), nil }, nil
	case func(string, string) bool:
		return func(a, b any) (any, error) {
			return fn(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)), nil
		}, nil
	default:
		return nil, newExpressionError("sandbox entry %q is not a recognized two-operand operator", path)
	}
}

// evaluateExpression parses and evaluates a single "<% 'v1'[:c1] OP
// 'v2'[:c2] %>" expression, or returns text unchanged if it does not
// match the expression pattern.
func evaluateExpression(variables map[string]any, text string) (any, bool, error) {
	match := expressionPattern.FindStringSubmatch(text)
	if match == nil {
		return text, false, nil
	}
	names := expressionPattern.SubexpNames()
	fields := map[string]string{}
	for i, name := range names {
		if name != "" {
			fields[name] = match[i]
		}
	}

	valueOneRaw := strings.TrimSpace(fields["value_one"])
	valueTwoRaw := strings.TrimSpace(fields["value_two"])
	operator := strings.TrimSpace(fields["operator"])

	valueOne, err := resolveOperand(variables, valueOneRaw)
	if err != nil {
		return nil, false, err
	}
	valueTwo, err := resolveOperand(variables, valueTwoRaw)
	if err != nil {
		return nil, false, err
	}

	valueOne, err = castValue(valueOne, fields["value_one_cast"])
	if err != nil {
		return nil, false, err
	}
	valueTwo, err = castValue(valueTwo, fields["value_two_cast"])
	if err != nil {
		return nil, false, err
	}

	result, err := evaluateOperator(valueOne, operator, valueTwo)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

// formatScalar renders a scalar value the way a substituted string value
// would be rendered when spliced back into a larger string.
func formatScalar(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
