package sig

import "github.com/AnatoleLucet/sig/v2/internal"

type Context[T any] struct {
	defaultValue T
}

// NewContext creates a new reactive context with an initial value.
func NewContext[T any](initial T) *Context[T] {
	return &Context[T]{initial}
}

// Value retrieves the current value of the context,
// inheriting from parent owners if not set in the current owner.
func (c *Context[T]) Value() T {
	if v, ok := internal.GetRuntime().CurrentOwner().Lookup(c); ok {
		return as[T](v)
	}
	return c.defaultValue
}

// Set a new value for the context in the current owner.
// Without an owner it does nothing.
func (c *Context[T]) Set(value T) {
	if o := internal.GetRuntime().CurrentOwner(); o != nil {
		o.Provide(c, value)
	}
}

// Provide runs fn under a child owner where ctx holds value.
func Provide[T, R any](ctx *Context[T], value T, fn func() R) R {
	r := internal.GetRuntime()

	o := r.NewOwner()
	o.Provide(ctx, value)

	var result R
	r.RunWithOwner(o, func() { result = fn() })
	return result
}
