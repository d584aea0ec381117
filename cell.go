package lex

import "fmt"

// Cell is a mutable value box with an ordered subscriber list. It is the
// only reactive primitive in lex.
//
// SetValue replaces the value and notifies every subscriber synchronously,
// in registration order. There is no batching, no equality check and no
// deferral: a subscriber that sets another cell runs that propagation to
// completion before the outer SetValue returns. A panicking subscriber stops
// the remaining notifications for that write.
//
// A Cell has no idea where it is bound. The Element constructor attaches
// bindings by subscribing closures.
//
// Cells are not safe for concurrent use.
type Cell[T any] struct {
	value T
	subs  []func(T)
}

// NewCell creates a cell holding v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// UseState creates a cell and its setter. The setter is the sanctioned way
// for components to mutate state; SetValue remains usable directly.
//
//	count, setCount := lex.UseState(0)
//	inc := func() { setCount(count.Value() + 1) }
func UseState[T any](v T) (*Cell[T], func(T)) {
	c := NewCell(v)
	return c, c.SetValue
}

// Value returns the current value.
func (c *Cell[T]) Value() T {
	return c.value
}

// SetValue stores v and notifies the subscribers registered before the call.
func (c *Cell[T]) SetValue(v T) {
	c.value = v
	// range evaluates c.subs once, so subscribers added during this write
	// are not called for it.
	for _, fn := range c.subs {
		fn(v)
	}
}

// Subscribe appends fn to the subscriber list. A nil fn is ignored.
func (c *Cell[T]) Subscribe(fn func(T)) {
	if fn == nil {
		return
	}
	c.subs = append(c.subs, fn)
}

// String formats the current value, so a cell can stand in for its value as
// text.
func (c *Cell[T]) String() string {
	return fmt.Sprint(c.value)
}

func (c *Cell[T]) current() any {
	return c.value
}

func (c *Cell[T]) watch(fn func(any)) {
	c.Subscribe(func(v T) { fn(v) })
}

// reactive is the type-erased view of a Cell used by the constructor.
type reactive interface {
	current() any
	watch(fn func(any))
}
