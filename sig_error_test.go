package sig

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestErrors(t *testing.T) {
	t.Run("catch a panicking computation", func(t *testing.T) {
		var got error

		CatchError(func() struct{} {
			NewComputed(func() int { panic("boom") })
			return struct{}{}
		}, func(err error) { got = err })

		var pe *PanicError
		require.ErrorAs(t, got, &pe)
		assert.Equal(t, "boom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
		assert.EqualError(t, got, "sig: panic: boom")
	})

	t.Run("errors are delivered as is", func(t *testing.T) {
		var got error

		CatchError(func() struct{} {
			NewEffect(func() { panic(errBoom) })
			return struct{}{}
		}, func(err error) { got = err })

		assert.ErrorIs(t, got, errBoom)
	})

	t.Run("failed computations retry on the next change", func(t *testing.T) {
		log := []string{}

		n := NewSignal(0)
		double := CatchError(func() *Computed[int] {
			return NewComputed(func() int {
				if n.Read() == 1 {
					panic(errBoom)
				}
				return n.Read() * 2
			})
		}, func(err error) { log = append(log, err.Error()) })

		n.Write(1)
		assert.Equal(t, []string{"boom"}, log)

		n.Write(2)
		assert.Equal(t, 4, double.Read())
		assert.Equal(t, []string{"boom"}, log)
	})

	t.Run("unhandled errors panic", func(t *testing.T) {
		assert.PanicsWithError(t, "sig: panic: boom", func() {
			NewEffect(func() { panic("boom") })
		})
	})

	t.Run("unhandled errors leave siblings running", func(t *testing.T) {
		log := []string{}

		s := NewSignal(0)
		NewEffect(func() {
			if s.Read() == 1 {
				panic(errBoom)
			}
			log = append(log, "first")
		})
		NewEffect(func() {
			log = append(log, fmt.Sprintf("second %d", s.Read()))
		})

		assert.PanicsWithError(t, "boom", func() { s.Write(1) })
		assert.Equal(t, []string{"first", "second 0", "second 1"}, log)

		// the runtime keeps working after the panic
		s.Write(2)
		assert.Equal(t, []string{"first", "second 0", "second 1", "first", "second 2"}, log)
	})

	t.Run("infinite update loops", func(t *testing.T) {
		var buf bytes.Buffer
		Configure(
			WithMaxUpdates(5),
			WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		)

		s := NewSignal(0)
		for range 10 {
			NewComputed(func() int { return s.Read() + 1 })
		}

		assert.PanicsWithValue(t, ErrInfiniteUpdateLoop, func() { s.Write(1) })
		assert.Contains(t, buf.String(), "sig: update queue overflow")
		assert.Contains(t, buf.String(), "pending=10")
	})

	t.Run("infinite update loops skip error handlers", func(t *testing.T) {
		Configure(WithMaxUpdates(2), WithLogger(slog.New(slog.DiscardHandler)))
		handled := false

		s := NewSignal(0)
		assert.PanicsWithValue(t, ErrInfiniteUpdateLoop, func() {
			CatchError(func() struct{} {
				for range 3 {
					NewComputed(func() int { return s.Read() })
				}
				s.Write(1)
				return struct{}{}
			}, func(error) { handled = true })
		})
		assert.False(t, handled)
	})

	t.Run("root error handlers", func(t *testing.T) {
		var got error

		s := NewSignal(0)
		NewRoot(func(func()) struct{} {
			OnError(func(err error) { got = err })
			NewComputed(func() int {
				if s.Read() > 0 {
					panic(errBoom)
				}
				return 0
			})
			return struct{}{}
		})
		assert.NoError(t, got)

		s.Write(1)
		assert.ErrorIs(t, got, errBoom)
	})

	t.Run("panicking handlers reach the parent handler", func(t *testing.T) {
		var outer error

		NewRoot(func(func()) struct{} {
			OnError(func(err error) { outer = err })

			CatchError(func() struct{} {
				NewEffect(func() { panic(errBoom) })
				return struct{}{}
			}, func(err error) { panic(fmt.Errorf("handler: %w", err)) })

			return struct{}{}
		})

		assert.ErrorIs(t, outer, errBoom)
		assert.EqualError(t, outer, "handler: boom")
	})

	t.Run("owners route errors of run", func(t *testing.T) {
		var got error

		o := NewOwner()
		o.OnError(func(err error) { got = err })

		err := o.Run(func() error {
			panic(errBoom)
		})

		assert.NoError(t, err)
		assert.ErrorIs(t, got, errBoom)
	})
}
