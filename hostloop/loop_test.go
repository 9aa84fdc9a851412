package hostloop

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/sig/v2/scheduler"
)

func TestLoop(t *testing.T) {
	t.Run("microtasks run before the next task", func(t *testing.T) {
		l := New()
		log := []string{}

		l.Post(func() {
			log = append(log, "task 1")
			l.QueueMicrotask(func() { log = append(log, "micro 1") })
			l.QueueMicrotask(func() {
				log = append(log, "micro 2")
				l.QueueMicrotask(func() { log = append(log, "micro 3") })
			})
		})
		l.Post(func() { log = append(log, "task 2") })

		n, err := l.RunUntilIdle()
		require.NoError(t, err)

		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"task 1", "micro 1", "micro 2", "micro 3", "task 2"}, log)
	})

	t.Run("tasks posted while running are processed", func(t *testing.T) {
		l := New()
		count := 0

		var post func()
		post = func() {
			count++
			if count < 3 {
				l.Post(post)
			}
		}
		l.Post(post)

		n, err := l.RunUntilIdle()
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Zero(t, l.Pending())
	})

	t.Run("panicking tasks are logged", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		ran := false

		l.Post(func() { panic("boom") })
		l.Post(func() { ran = true })

		_, err := l.RunUntilIdle()
		require.NoError(t, err)

		assert.True(t, ran)
		assert.Contains(t, buf.String(), "hostloop: task panicked")
		assert.Contains(t, buf.String(), "panic=boom")
	})

	t.Run("panic handler", func(t *testing.T) {
		var got any
		l := New(WithPanicHandler(func(v any) { got = v }))

		l.QueueMicrotask(func() { panic("boom") })
		_, err := l.RunUntilIdle()
		require.NoError(t, err)

		assert.Equal(t, "boom", got)
	})

	t.Run("run until closed", func(t *testing.T) {
		l := New()
		done := make(chan error, 1)

		go func() { done <- l.Run(context.Background()) }()

		ran := false
		err := l.Do(context.Background(), func() { ran = true })
		require.NoError(t, err)
		assert.True(t, ran)

		l.Close()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("loop did not stop")
		}

		assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrLoopClosed)
	})

	t.Run("run until the context is done", func(t *testing.T) {
		l := New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, l.Run(ctx), context.Canceled)
	})

	t.Run("a loop runs once at a time", func(t *testing.T) {
		l := New()
		var nested error

		l.Post(func() { _, nested = l.RunUntilIdle() })
		_, err := l.RunUntilIdle()
		require.NoError(t, err)

		assert.ErrorIs(t, nested, ErrLoopRunning)
	})

	t.Run("do respects the context", func(t *testing.T) {
		l := New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		// nothing runs the loop
		err := l.Do(ctx, func() {})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("posts after close are dropped", func(t *testing.T) {
		l := New(WithLogger(slog.New(slog.DiscardHandler)))
		l.Post(func() {})
		l.Close()
		l.Close()

		l.Post(func() { t.Fatal("ran after close") })
		n, err := l.RunUntilIdle()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("drives a scheduler", func(t *testing.T) {
		l := New()
		s := scheduler.New(l.WithInput(func() bool { return false }))
		log := []string{}

		s.Schedule(func(bool) scheduler.TaskFunc {
			log = append(log, "first")
			return func(bool) scheduler.TaskFunc {
				log = append(log, "continued")
				return nil
			}
		})
		s.Schedule(func(bool) scheduler.TaskFunc {
			log = append(log, "second")
			return nil
		})

		_, err := l.RunUntilIdle()
		require.NoError(t, err)

		assert.Equal(t, []string{"first", "continued", "second"}, log)
		assert.Zero(t, s.Pending())
	})
}
