// Package group implements a finite, circular, ordered value space
// (Group) and mutable pointers into it (Member), used by
// pkg/clockwork to model calendar units (months, days-of-month, hours,
// minutes, seconds) that wrap and carry into one another.
package group

import (
	"fmt"
)

// RolloverHandler is invoked on a Member when an Increment/Decrement
// crosses the group's upper or lower boundary. It receives the number of
// whole wraps that occurred, so callers can carry that count into a
// higher-order unit (e.g. incrementing the day member 32 times wraps the
// month member forward by 1).
type RolloverHandler[T comparable] func(m *Member[T], wraps int)

// Comparator orders two values of T; required only by Member.Compare when
// comparing against a non-Member value (Design Notes, Open Question 2).
type Comparator[T comparable] func(a, b T) int

// Group is an immutable, circular, ordered collection of unique values.
type Group[T comparable] struct {
	name    string
	values  []T
	index   map[T]int
	compare Comparator[T]
}

// New constructs a Group. values must be non-empty and unique.
func New[T comparable](name string, values []T, compare Comparator[T]) (*Group[T], error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("group %q: a finite group requires at least one value", name)
	}
	idx := make(map[T]int, len(values))
	for i, v := range values {
		if _, exists := idx[v]; exists {
			return nil, fmt.Errorf("group %q: duplicate value %v", name, v)
		}
		idx[v] = i
	}
	cp := make([]T, len(values))
	copy(cp, values)
	return &Group[T]{name: name, values: cp, index: idx, compare: compare}, nil
}

func (g *Group[T]) Name() string { return g.name }

func (g *Group[T]) Len() int { return len(g.values) }

func (g *Group[T]) Max() T { return g.values[len(g.values)-1] }

func (g *Group[T]) Min() T { return g.values[0] }

// AbsoluteIndex reduces an arbitrary integer index into [0, Len) modulo
// the group's length.
func (g *Group[T]) AbsoluteIndex(i int) int {
	n := len(g.values)
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (g *Group[T]) RawValue(i int) T {
	return g.values[g.AbsoluteIndex(i)]
}

// ByIndex returns a Member pointing at the given (possibly out of range)
// index, normalized modulo the group length.
func (g *Group[T]) ByIndex(i int) *Member[T] {
	return &Member[T]{group: g, index: g.AbsoluteIndex(i)}
}

func (g *Group[T]) First() *Member[T] { return g.ByIndex(0) }

func (g *Group[T]) Last() *Member[T] { return g.ByIndex(-1) }

// IndexOf returns the index of value within the group.
func (g *Group[T]) IndexOf(value T) (int, error) {
	i, ok := g.index[value]
	if !ok {
		return 0, fmt.Errorf("group %q: %v is not a member of this group", g.name, value)
	}
	return i, nil
}

// Get returns a Member for value.
func (g *Group[T]) Get(value T) (*Member[T], error) {
	i, err := g.IndexOf(value)
	if err != nil {
		return nil, err
	}
	return g.ByIndex(i), nil
}

// Members returns every value in the group as a Member, in group order.
func (g *Group[T]) Members() []*Member[T] {
	out := make([]*Member[T], len(g.values))
	for i := range g.values {
		out[i] = g.ByIndex(i)
	}
	return out
}

// Member is a mutable pointer into a Group.
type Member[T comparable] struct {
	group      *Group[T]
	index      int
	OnRollover RolloverHandler[T]
	OnRollback RolloverHandler[T]
}

func (m *Member[T]) Group() *Group[T] { return m.group }

func (m *Member[T]) Index() int { return m.index }

func (m *Member[T]) Value() T { return m.group.RawValue(m.index) }

// Increment advances the member by n (n may be negative, delegating to
// Decrement). Returns the number of whole wraps past the end of the group
// and, when that number is positive, fires OnRollover once with it.
func (m *Member[T]) Increment(n int) int {
	if n < 0 {
		return m.Decrement(-n)
	}
	length := m.group.Len()
	total := m.index + n
	wraps := total / length
	m.index = total % length
	if wraps > 0 && m.OnRollover != nil {
		m.OnRollover(m, wraps)
	}
	return wraps
}

// Decrement retreats the member by n. Returns the number of whole wraps
// back past the group's start and, when that number is positive, fires
// OnRollback once with it.
func (m *Member[T]) Decrement(n int) int {
	if n < 0 {
		return m.Increment(-n)
	}
	length := m.group.Len()
	total := m.index - n
	wraps := 0
	if total < 0 {
		wraps = (-total-1)/length + 1
	}
	m.index = m.group.AbsoluteIndex(total)
	if wraps > 0 && m.OnRollback != nil {
		m.OnRollback(m, wraps)
	}
	return wraps
}

// Set repoints the member at value without firing rollover handlers.
func (m *Member[T]) Set(value T) error {
	i, err := m.group.IndexOf(value)
	if err != nil {
		return err
	}
	m.index = i
	return nil
}

// SetIndex repoints the member at an absolute index (modulo the group
// length) without firing rollover handlers.
func (m *Member[T]) SetIndex(i int) {
	m.index = m.group.AbsoluteIndex(i)
}

// Compare orders this member against other. If other is a *Member of the
// same group, comparison is by index (Design Notes, Open Question 2).
// Otherwise other must be a bare T, compared by value via the group's
// Comparator; a group without a Comparator cannot compare against bare
// values and returns an error.
func (m *Member[T]) Compare(other any) (int, error) {
	if om, ok := other.(*Member[T]); ok {
		if om.group != m.group {
			return 0, fmt.Errorf("cannot compare members of different groups %q and %q", m.group.name, om.group.name)
		}
		switch {
		case m.index < om.index:
			return -1, nil
		case m.index > om.index:
			return 1, nil
		default:
			return 0, nil
		}
	}
	value, ok := other.(T)
	if !ok {
		return 0, fmt.Errorf("group %q: %v is not comparable to a member", m.group.name, other)
	}
	if m.group.compare == nil {
		return 0, fmt.Errorf("group %q: values of this group are not orderable", m.group.name)
	}
	return m.group.compare(m.Value(), value), nil
}
