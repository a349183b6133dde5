package event

import "reflect"

// EventFunctionParameter describes one parameter position within a
// Signature: whether it is the trailing variadic slot, whether it is
// required, and the type it accepts.
type EventFunctionParameter struct {
	Index          int
	Name           string
	Type           reflect.Type
	IsArgs         bool
	IsKwargs       bool
	Required       bool
	PositionalOnly bool
	KeywordOnly    bool
}

// Signature is an ordered sequence of parameters describing how a handler
// may be invoked.
type Signature struct {
	parameters []EventFunctionParameter
}

func NewSignature(parameters []EventFunctionParameter) Signature {
	cp := make([]EventFunctionParameter, len(parameters))
	copy(cp, parameters)
	return Signature{parameters: cp}
}

func (s Signature) Parameters() []EventFunctionParameter {
	out := make([]EventFunctionParameter, len(s.parameters))
	copy(out, s.parameters)
	return out
}

func (s Signature) Len() int { return len(s.parameters) }

func (s Signature) HasArgs() bool {
	for _, p := range s.parameters {
		if p.IsArgs {
			return true
		}
	}
	return false
}

func (s Signature) HasKwargs() bool {
	for _, p := range s.parameters {
		if p.IsKwargs {
			return true
		}
	}
	return false
}

// Keywords is the set of parameter names reachable by keyword (every
// parameter not marked positional-only).
func (s Signature) Keywords() map[string]bool {
	out := map[string]bool{}
	for _, p := range s.parameters {
		if !p.PositionalOnly {
			out[p.Name] = true
		}
	}
	return out
}

func (s Signature) RequiredKeywords() map[string]bool {
	out := map[string]bool{}
	for _, p := range s.parameters {
		if !p.PositionalOnly && p.Required {
			out[p.Name] = true
		}
	}
	return out
}

// IsUniversal reports whether this signature is exactly (*args, **kwargs):
// a single variadic-positional parameter followed by a single
// variadic-keyword parameter, accepting anything.
func (s Signature) IsUniversal() bool {
	return len(s.parameters) == 2 && s.parameters[0].IsArgs && s.parameters[1].IsKwargs
}

// RequiredVariableCount counts the leading run of required parameters,
// stopping at the first non-required parameter.
func (s Signature) RequiredVariableCount() int {
	count := 0
	for _, p := range s.parameters {
		if !p.Required {
			break
		}
		count++
	}
	return count
}

// CompliesWith reports whether this signature can be used wherever a
// handler of the expected signature would be used: every possible
// invocation permitted by expected must also be permitted by s. Checked as
// six ordered rules.
func (s Signature) CompliesWith(expected Signature) bool {
	// 1. If the declared signature is universal, the candidate must be too.
	if expected.IsUniversal() && !s.IsUniversal() {
		return false
	}
	// 2. A universal candidate complies with anything.
	if s.IsUniversal() {
		return true
	}
	// 3. If the declared signature accepts *args, the candidate must too.
	if expected.HasArgs() && !s.HasArgs() {
		return false
	}
	// 4. If the declared signature accepts **kwargs, the candidate must too.
	if expected.HasKwargs() && !s.HasKwargs() {
		return false
	}
	// 5. The candidate's keywords must be a subset of the declared
	// signature's required keywords, unless the candidate also accepts
	// **kwargs.
	if !s.HasKwargs() {
		required := expected.RequiredKeywords()
		for name := range s.Keywords() {
			if !required[name] {
				return false
			}
		}
	}
	// 6. Without variadic escape hatches on either side, required-positional
	// counts must match exactly.
	if !(s.HasArgs() || expected.HasArgs() || s.HasKwargs() || expected.HasKwargs()) {
		if s.RequiredVariableCount() != expected.RequiredVariableCount() {
			return false
		}
	}
	return true
}

// SignatureFromFunc builds a Signature by reflecting over a Go function
// value's type. Go carries no runtime parameter names, so parameters are
// named positionally ("arg_a", "arg_b", ...); a trailing variadic parameter
// is marked IsArgs, and a non-variadic trailing map[string]any parameter
// is treated as the Go analogue of **kwargs (a named place to pass
// additional data without an exact type).
func SignatureFromFunc(fn any) (Signature, error) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return Signature{}, &CompatibilityError{Reason: "value is not a function"}
	}

	numIn := t.NumIn()
	parameters := make([]EventFunctionParameter, 0, numIn)

	for i := 0; i < numIn; i++ {
		paramType := t.In(i)
		isVariadicArgs := t.IsVariadic() && i == numIn-1
		isKwargs := !isVariadicArgs && i == numIn-1 && paramType.Kind() == reflect.Map &&
			paramType.Key().Kind() == reflect.String

		parameters = append(parameters, EventFunctionParameter{
			Index:    i,
			Name:     paramName(i),
			Type:     paramType,
			IsArgs:   isVariadicArgs,
			IsKwargs: isKwargs,
			Required: !isVariadicArgs && !isKwargs,
		})
	}

	return NewSignature(parameters), nil
}

func paramName(index int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if index < len(letters) {
		return "arg_" + string(letters[index])
	}
	return "arg"
}
