package sig

import (
	"time"

	"github.com/AnatoleLucet/sig/v2/internal"
)

type options[T any] struct {
	equals func(a, b T) bool
	always bool

	// deferred values only
	timeout  time.Duration
	deadline bool
}

// Option configures a signal, a computed value or a deferred value.
type Option[T any] func(*options[T])

func applyOptions[T any](opts []Option[T]) options[T] {
	var cfg options[T]
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithEquals replaces the comparator used to skip writes of an unchanged value.
func WithEquals[T any](equals func(a, b T) bool) Option[T] {
	return func(o *options[T]) {
		o.equals = equals
		o.always = false
	}
}

// AlwaysNotify makes every write notify dependents, equal or not.
func AlwaysNotify[T any]() Option[T] {
	return func(o *options[T]) {
		o.equals = nil
		o.always = true
	}
}

// WithTimeout bounds how long a deferred value may lag behind its source.
// Other nodes ignore it.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(o *options[T]) {
		o.timeout = d
		o.deadline = true
	}
}

func (o options[T]) comparator() func(a, b any) bool {
	if o.always {
		return nil
	}
	if eq := o.equals; eq != nil {
		return func(a, b any) bool { return eq(as[T](a), as[T](b)) }
	}
	return internal.Equal
}
