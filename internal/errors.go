package internal

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrInfiniteUpdateLoop is raised when a single flush queues more updates
// than Runtime.MaxUpdates. It skips error handlers.
var ErrInfiniteUpdateLoop = errors.New("sig: potential infinite update loop")

// PanicError wraps a recovered panic value that was not an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("sig: panic: %v", e.Value)
}

// ToError converts a recovered panic value into an error.
func ToError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func isFatal(err error) bool {
	return errors.Is(err, ErrInfiniteUpdateLoop)
}

// handleError delivers err to the nearest handlers above owner, or panics
// with it when there are none. Inside a flush the handlers run as an effect.
func (r *Runtime) handleError(err error, owner *Owner) {
	if isFatal(err) {
		panic(err)
	}

	h := owner.handlerOwner()
	if h == nil {
		panic(err)
	}

	r.logger().Debug("sig: computation error handled", "error", err)

	if r.effects != nil {
		c := &Computation{
			fn: func(any) any {
				r.runErrors(err, h)
				return nil
			},
			state: Stale,
		}
		c.comp = c
		r.effects.push(c)
		return
	}

	r.runErrors(err, h)
}

func (r *Runtime) runErrors(err error, h *Owner) {
	defer func() {
		if p := recover(); p != nil {
			r.handleError(ToError(p), h.owner)
		}
	}()

	for _, fn := range h.handlers() {
		fn(err)
	}
}
