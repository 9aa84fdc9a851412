package scheduler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testHost struct {
	ticks []func()
}

func (h *testHost) Post(fn func()) {
	h.ticks = append(h.ticks, fn)
}

// step runs the oldest posted tick.
func (h *testHost) step() {
	fn := h.ticks[0]
	h.ticks = h.ticks[1:]
	fn()
}

// drain runs ticks until none are left, up to a bound.
func (h *testHost) drain(t *testing.T) {
	for i := 0; len(h.ticks) > 0; i++ {
		require.Less(t, i, 1000, "host never went idle")
		h.step()
	}
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestScheduler(host Host, opts ...Option) (*Scheduler, *testClock) {
	clock := &testClock{now: time.Unix(0, 0)}
	return New(host, append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func task(log *[]string, name string) TaskFunc {
	return func(didTimeout bool) TaskFunc {
		*log = append(*log, fmt.Sprintf("%s %t", name, didTimeout))
		return nil
	}
}

func TestSchedule(t *testing.T) {
	t.Run("runs tasks in expiration order", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, _ := newTestScheduler(host)

		s.Schedule(task(&log, "a"))
		s.Schedule(task(&log, "b"), WithTimeout(10*time.Millisecond))
		s.Schedule(task(&log, "c"), WithTimeout(time.Millisecond))

		assert.Empty(t, log)
		host.drain(t)

		assert.Equal(t, []string{"c false", "b false", "a false"}, log)
		assert.Equal(t, 0, s.Pending())
	})

	t.Run("keeps scheduling order for equal expirations", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, _ := newTestScheduler(host)

		for _, name := range []string{"a", "b", "c"} {
			s.Schedule(task(&log, name), WithTimeout(time.Second))
		}
		host.drain(t)

		assert.Equal(t, []string{"a false", "b false", "c false"}, log)
	})

	t.Run("zero timeout runs as timed out", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, _ := newTestScheduler(host)

		s.Schedule(task(&log, "late"), WithTimeout(0))
		s.Schedule(task(&log, "normal"))
		host.drain(t)

		assert.Equal(t, []string{"late true", "normal false"}, log)
	})

	t.Run("expired tasks are flagged", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, clock := newTestScheduler(host)

		s.Schedule(task(&log, "a"), WithTimeout(20*time.Millisecond))
		clock.advance(time.Second)
		host.drain(t)

		assert.Equal(t, []string{"a true"}, log)
	})

	t.Run("assigns increasing ids", func(t *testing.T) {
		s, _ := newTestScheduler(&testHost{})

		a := s.Schedule(func(bool) TaskFunc { return nil })
		b := s.Schedule(func(bool) TaskFunc { return nil })

		assert.Equal(t, a.ID()+1, b.ID())
	})
}

func TestCancel(t *testing.T) {
	t.Run("cancelled task never runs", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, _ := newTestScheduler(host)

		a := s.Schedule(task(&log, "a"))
		s.Schedule(task(&log, "b"))
		s.Cancel(a)

		assert.True(t, a.Done())
		assert.Equal(t, 2, s.Pending())

		host.drain(t)

		assert.Equal(t, []string{"b false"}, log)
		assert.Equal(t, 0, s.Pending())
	})

	t.Run("cancel from a running task", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, _ := newTestScheduler(host)

		var b *Task
		s.Schedule(func(bool) TaskFunc {
			log = append(log, "a")
			s.Cancel(b)
			return nil
		}, WithTimeout(time.Millisecond))
		b = s.Schedule(task(&log, "b"))
		host.drain(t)

		assert.Equal(t, []string{"a"}, log)
	})
}

func TestWorkLoop(t *testing.T) {
	t.Run("yields when the slice is spent", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, clock := newTestScheduler(host)

		for i := range 3 {
			s.Schedule(func(bool) TaskFunc {
				log = append(log, fmt.Sprintf("task %d", i))
				clock.advance(3 * time.Millisecond)
				return nil
			})
		}

		host.step()
		assert.Equal(t, []string{"task 0", "task 1"}, log)
		assert.Equal(t, 1, s.Pending())
		assert.Len(t, host.ticks, 1)

		host.step()
		assert.Equal(t, []string{"task 0", "task 1", "task 2"}, log)
		assert.Empty(t, host.ticks)
	})

	t.Run("does not yield before expired tasks", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, clock := newTestScheduler(host)

		for i := range 3 {
			s.Schedule(func(didTimeout bool) TaskFunc {
				log = append(log, fmt.Sprintf("task %d %t", i, didTimeout))
				clock.advance(10 * time.Millisecond)
				return nil
			}, WithTimeout(0))
		}

		host.step()
		assert.Equal(t, []string{"task 0 true", "task 1 true", "task 2 true"}, log)
	})

	t.Run("continuations keep the task queued", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, clock := newTestScheduler(host)

		steps := 0
		var work TaskFunc
		work = func(bool) TaskFunc {
			steps++
			log = append(log, fmt.Sprintf("step %d", steps))
			clock.advance(4 * time.Millisecond)
			if steps < 3 {
				return work
			}
			return nil
		}
		tk := s.Schedule(work)

		host.step()
		assert.Equal(t, []string{"step 1", "step 2"}, log)
		assert.False(t, tk.Done())

		host.drain(t)
		assert.Equal(t, []string{"step 1", "step 2", "step 3"}, log)
		assert.True(t, tk.Done())
	})

	t.Run("tasks scheduled while working run in the same slice", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, _ := newTestScheduler(host)

		s.Schedule(func(bool) TaskFunc {
			log = append(log, "outer")
			s.Schedule(task(&log, "inner"))
			return nil
		})

		host.step()
		assert.Equal(t, []string{"outer", "inner false"}, log)
		assert.Empty(t, host.ticks)
	})

	t.Run("panicking task leaves a tick posted", func(t *testing.T) {
		log := []string{}
		host := &testHost{}
		s, _ := newTestScheduler(host)

		s.Schedule(func(bool) TaskFunc { panic("boom") })
		s.Schedule(task(&log, "after"))

		assert.PanicsWithValue(t, "boom", host.step)
		assert.Len(t, host.ticks, 1)

		host.drain(t)
		assert.Equal(t, []string{"after false"}, log)
	})

	t.Run("reports slices", func(t *testing.T) {
		host := &testHost{}
		obs := &sliceRecorder{}
		s, clock := newTestScheduler(host, WithObserver(obs))

		for range 3 {
			s.Schedule(func(bool) TaskFunc {
				clock.advance(3 * time.Millisecond)
				return nil
			})
		}
		host.drain(t)

		require.Len(t, obs.slices, 2)
		assert.Equal(t, 2, obs.slices[0].Tasks)
		assert.True(t, obs.slices[0].Yielded)
		assert.Equal(t, 1, obs.slices[0].Pending)
		assert.Equal(t, 6*time.Millisecond, obs.slices[0].Duration)
		assert.Equal(t, 1, obs.slices[1].Tasks)
		assert.False(t, obs.slices[1].Yielded)
	})
}

type sliceRecorder struct {
	slices []SliceStats
}

func (r *sliceRecorder) SliceFinished(stats SliceStats) {
	r.slices = append(r.slices, stats)
}

func TestHost(t *testing.T) {
	t.Run("posts a single tick for a burst of tasks", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		host := NewMockHost(ctrl)

		var ticks []func()
		host.EXPECT().Post(gomock.Any()).Do(func(fn func()) {
			ticks = append(ticks, fn)
		}).Times(1)

		s, _ := newTestScheduler(host)
		count := 0
		for range 3 {
			s.Schedule(func(bool) TaskFunc {
				count++
				return nil
			})
		}

		require.Len(t, ticks, 1)
		ticks[0]()
		assert.Equal(t, 3, count)
	})

	t.Run("keeps working past the slice while no input is pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		host := NewMockInputPendingHost(ctrl)

		var ticks []func()
		host.EXPECT().Post(gomock.Any()).Do(func(fn func()) {
			ticks = append(ticks, fn)
		}).AnyTimes()
		host.EXPECT().InputPending().Return(false).AnyTimes()

		s, clock := newTestScheduler(host)
		count := 0
		for range 40 {
			s.Schedule(func(bool) TaskFunc {
				count++
				clock.advance(10 * time.Millisecond)
				return nil
			})
		}

		ticks[0]()
		assert.Equal(t, 30, count)
		assert.Equal(t, 10, s.Pending())
	})

	t.Run("yields as soon as input is pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		host := NewMockInputPendingHost(ctrl)

		var ticks []func()
		host.EXPECT().Post(gomock.Any()).Do(func(fn func()) {
			ticks = append(ticks, fn)
		}).AnyTimes()
		host.EXPECT().InputPending().Return(true).AnyTimes()

		s, clock := newTestScheduler(host)
		count := 0
		for range 3 {
			s.Schedule(func(bool) TaskFunc {
				count++
				clock.advance(10 * time.Millisecond)
				return nil
			})
		}

		ticks[0]()
		assert.Equal(t, 1, count)
		assert.Len(t, ticks, 2)
	})
}
