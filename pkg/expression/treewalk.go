package expression

import (
	"fmt"
	"regexp"
	"strings"
)

// mergeVariables returns local overlaid on top of inherited: a key
// defined in local always wins, so child definitions
// shadow parents.
func mergeVariables(inherited, local map[string]any) map[string]any {
	out := make(map[string]any, len(inherited)+len(local))
	for k, v := range local {
		out[k] = v
	}
	for k, v := range inherited {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

func scopedVariables(tree map[string]any, inherited map[string]any) map[string]any {
	local, _ := tree[VariableKey].(map[string]any)
	return mergeVariables(inherited, local)
}

func equalValues(a, b any) bool {
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}

type predicateFunc func(value string, variables map[string]any) bool
type transformFunc func(value string, variables map[string]any) (any, error)

func walkMap(tree map[string]any, inherited map[string]any, predicate predicateFunc, transform transformFunc) (int, error) {
	scoped := scopedVariables(tree, inherited)
	changes := 0
	for key, value := range tree {
		if key == VariableKey {
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			c, err := walkMap(v, scoped, predicate, transform)
			if err != nil {
				return changes, err
			}
			changes += c
		case []any:
			c, err := walkSlice(v, scoped, predicate, transform)
			if err != nil {
				return changes, err
			}
			changes += c
		case string:
			if !predicate(v, scoped) {
				continue
			}
			newVal, err := transform(v, scoped)
			if err != nil {
				return changes, err
			}
			if !equalValues(newVal, value) {
				tree[key] = newVal
				changes++
			}
		}
	}
	return changes, nil
}

func walkSlice(seq []any, variables map[string]any, predicate predicateFunc, transform transformFunc) (int, error) {
	changes := 0
	for i, value := range seq {
		switch v := value.(type) {
		case map[string]any:
			c, err := walkMap(v, variables, predicate, transform)
			if err != nil {
				return changes, err
			}
			changes += c
		case []any:
			c, err := walkSlice(v, variables, predicate, transform)
			if err != nil {
				return changes, err
			}
			changes += c
		case string:
			if !predicate(v, variables) {
				continue
			}
			newVal, err := transform(v, variables)
			if err != nil {
				return changes, err
			}
			if !equalValues(newVal, value) {
				seq[i] = newVal
				changes++
			}
		}
	}
	return changes, nil
}

func shouldReplaceVariable(clock Clock) predicateFunc {
	return func(value string, variables map[string]any) bool {
		match := variablePattern.FindStringSubmatch(value)
		if match == nil {
			return false
		}
		name := strings.TrimSpace(namedGroupValue(variablePattern, match, "name"))
		if _, ok := variables[name]; ok {
			return true
		}
		_, ok := constantValues(clock)[name]
		return ok
	}
}

func applyVariable(clock Clock) transformFunc {
	return func(value string, variables map[string]any) (any, error) {
		match := variablePattern.FindStringSubmatch(value)
		if match == nil {
			return value, nil
		}
		token := match[0]
		name := strings.TrimSpace(namedGroupValue(variablePattern, match, "name"))

		var replacement any
		if v, ok := variables[name]; ok {
			replacement = v
		} else if c, ok := constantValues(clock)[name]; ok {
			replacement = c
		} else {
			return value, nil
		}
		if fn, ok := replacement.(func() any); ok {
			replacement = fn()
		}

		withoutToken := strings.Replace(value, token, "", 1)
		var result any
		if strings.TrimSpace(withoutToken) == "" {
			result = replacement
		} else {
			result = strings.Replace(value, token, formatScalar(replacement), 1)
		}

		if resultStr, ok := result.(string); ok {
			if again := variablePattern.FindStringSubmatch(resultStr); again != nil {
				if strings.TrimSpace(namedGroupValue(variablePattern, again, "name")) == name {
					return nil, newExpressionError("variable %q substitutes back into itself: loop detected", name)
				}
			}
		}
		return result, nil
	}
}

func namedGroupValue(re *regexp.Regexp, match []string, name string) string {
	for i, n := range re.SubexpNames() {
		if n == name && i < len(match) {
			return match[i]
		}
	}
	return ""
}

func isExpression(value string, _ map[string]any) bool {
	return expressionPattern.MatchString(value)
}

func applyExpression(value string, variables map[string]any) (any, error) {
	result, matched, err := evaluateExpression(variables, value)
	if err != nil {
		return nil, err
	}
	if !matched {
		return value, nil
	}
	return result, nil
}

func searchForAndApplyVariables(data map[string]any, variables map[string]any, clock Clock) (int, error) {
	return walkMap(data, variables, shouldReplaceVariable(clock), applyVariable(clock))
}

func searchForAndApplyExpressions(data map[string]any, variables map[string]any) (int, error) {
	return walkMap(data, variables, isExpression, applyExpression)
}

// ProcessExpressions alternates a variable-substitution pass and an
// expression-evaluation pass over data, up to iterations times (default
// DefaultProcessIterationCount), stopping early once a full pass mutates
// nothing. variables seeds the outermost scope; nested "variables" keys
// shadow it per-branch.
func ProcessExpressions(data map[string]any, variables map[string]any, iterations int, clock Clock) error {
	if iterations <= 0 {
		iterations = DefaultProcessIterationCount
	}
	if clock == nil {
		clock = defaultClock
	}
	for i := 0; i < iterations; i++ {
		changes, err := searchForAndApplyVariables(data, variables, clock)
		if err != nil {
			return err
		}
		exprChanges, err := searchForAndApplyExpressions(data, variables)
		if err != nil {
			return err
		}
		if changes+exprChanges == 0 {
			break
		}
	}
	return nil
}
