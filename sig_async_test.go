package sig

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/sig/v2/hostloop"
	"github.com/AnatoleLucet/sig/v2/scheduler"
)

// drain runs the loop on the calling goroutine until it is idle.
func drain(t *testing.T, loop *hostloop.Loop) {
	t.Helper()

	_, err := loop.RunUntilIdle()
	require.NoError(t, err)
}

// waitFor drains the loop until cond holds. The loop must run on the test
// goroutine, which owns the graph, so this polls instead of using
// assert.Eventually.
func waitFor(t *testing.T, loop *hostloop.Loop, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		drain(t, loop)
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestObserve(t *testing.T) {
	t.Run("subscribe", func(t *testing.T) {
		log := []int{}

		s := NewSignal(0)
		unsubscribe := s.Subscribe(func(v int) { log = append(log, v) })

		s.Write(1)
		unsubscribe()
		s.Write(2)

		assert.Equal(t, []int{0, 1}, log)
	})

	t.Run("observers end with their owner", func(t *testing.T) {
		log := []int{}

		s := NewSignal(0)
		double := NewComputed(func() int { return s.Read() * 2 })

		o := NewOwner()
		o.Run(func() error {
			double.Subscribe(func(v int) { log = append(log, v) })
			return nil
		})

		s.Write(1)
		o.Dispose()
		s.Write(2)

		assert.Equal(t, []int{0, 2}, log)
	})

	t.Run("from a producer", func(t *testing.T) {
		log := []int{}
		stopped := false
		var set func(int)

		dispose := NewRoot(func(dispose func()) func() {
			v := From(func(s func(int)) func() {
				set = s
				return func() { stopped = true }
			}, 0)

			NewEffect(func() { log = append(log, v()) })
			return dispose
		})

		set(1)
		set(1)
		dispose()

		assert.Equal(t, []int{0, 1, 1}, log)
		assert.True(t, stopped)
	})

	t.Run("from a channel", func(t *testing.T) {
		loop := hostloop.New()
		ch := make(chan int)
		log := []int{}

		dispose := NewRoot(func(dispose func()) func() {
			v := FromChan(ch, loop, 0)
			NewEffect(func() { log = append(log, v()) })
			return dispose
		})

		ch <- 1
		waitFor(t, loop, func() bool { return len(log) == 2 })
		ch <- 2
		waitFor(t, loop, func() bool { return len(log) == 3 })

		dispose()
		close(ch)

		assert.Equal(t, []int{0, 1, 2}, log)
	})

	t.Run("from a channel without host", func(t *testing.T) {
		assert.PanicsWithValue(t, ErrNoHost, func() {
			FromChan(make(chan int), nil, 0)
		})
	})
}

func TestFuture(t *testing.T) {
	t.Run("settled futures", func(t *testing.T) {
		v, settled, err := Resolved(42).Result()
		assert.Equal(t, 42, v)
		assert.True(t, settled)
		assert.NoError(t, err)

		_, settled, err = Rejected[int](errBoom).Result()
		assert.True(t, settled)
		assert.ErrorIs(t, err, errBoom)

		called := false
		Resolved("now").Then(func(v string, err error) {
			called = true
			assert.Equal(t, "now", v)
		})
		assert.True(t, called)
	})

	t.Run("callbacks run on the host", func(t *testing.T) {
		loop := hostloop.New()
		log := []string{}

		f, resolve, reject := NewFuture[string](loop)
		f.Then(func(v string, err error) { log = append(log, "early "+v) })
		assert.False(t, f.Settled())

		resolve("a")
		resolve("b")
		reject(errBoom)
		assert.Empty(t, log)

		drain(t, loop)
		assert.Equal(t, []string{"early a"}, log)

		f.Then(func(v string, err error) { log = append(log, "late "+v) })
		assert.Len(t, log, 1)

		drain(t, loop)
		assert.Equal(t, []string{"early a", "late a"}, log)

		v, _, err := f.Result()
		assert.Equal(t, "a", v)
		assert.NoError(t, err)
	})

	t.Run("go", func(t *testing.T) {
		loop := hostloop.New()
		Configure(WithHost(loop))

		f := Go(context.Background(), nil, func(ctx context.Context) (int, error) {
			return 42, nil
		})
		waitFor(t, loop, f.Settled)

		v, _, err := f.Result()
		assert.Equal(t, 42, v)
		assert.NoError(t, err)
	})

	t.Run("go with a canceled context", func(t *testing.T) {
		loop := hostloop.New()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := Go(ctx, loop, func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
		waitFor(t, loop, f.Settled)

		_, _, err := f.Result()
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("go with a panic", func(t *testing.T) {
		loop := hostloop.New()

		f := Go(context.Background(), loop, func(context.Context) (int, error) {
			panic("boom")
		})
		waitFor(t, loop, f.Settled)

		_, _, err := f.Result()
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "boom", pe.Value)
	})

	t.Run("no host", func(t *testing.T) {
		assert.PanicsWithValue(t, ErrNoHost, func() {
			NewFuture[int](nil)
		})
	})
}

func TestResource(t *testing.T) {
	t.Run("latest fetch wins", func(t *testing.T) {
		loop := hostloop.New()
		Configure(WithHost(loop))

		resolvers := []func(string){}
		refetching := []any{}

		res := NewResource(func(info FetchInfo[string]) *Future[string] {
			f, resolve, _ := NewFuture[string](nil)
			resolvers = append(resolvers, resolve)
			refetching = append(refetching, info.Refetching)
			return f
		})
		assert.Equal(t, Pending, res.State())
		assert.True(t, res.Loading())

		drain(t, loop)
		res.Refetch()
		assert.Equal(t, []any{false, true}, refetching)

		resolvers[1]("fast")
		drain(t, loop)
		resolvers[0]("slow")
		drain(t, loop)

		assert.Equal(t, "fast", res.Read())
		assert.Equal(t, Ready, res.State())
		assert.False(t, res.Loading())
	})

	t.Run("refetches before the next microtask are dropped", func(t *testing.T) {
		loop := hostloop.New()
		fetches := 0

		res := NewResource(func(FetchInfo[int]) *Future[int] {
			fetches++
			f, _, _ := NewFuture[int](loop)
			return f
		}, WithResourceHost[int](loop))

		res.Refetch()
		assert.Equal(t, 1, fetches)

		drain(t, loop)
		res.Refetch()
		assert.Equal(t, 2, fetches)
	})

	t.Run("refreshing keeps the latest value", func(t *testing.T) {
		loop := hostloop.New()
		var resolve func(string)

		res := NewResource(func(info FetchInfo[string]) *Future[string] {
			if info.Refetching == false {
				return Resolved("v1")
			}
			f, r, _ := NewFuture[string](loop)
			resolve = r
			return f
		}, WithResourceHost[string](loop))
		assert.Equal(t, Ready, res.State())
		assert.Equal(t, "v1", res.Read())

		res.Refetch()
		assert.Equal(t, Refreshing, res.State())
		assert.Equal(t, "v1", res.Latest())

		resolve("v2")
		drain(t, loop)

		assert.Equal(t, Ready, res.State())
		assert.Equal(t, "v2", res.Latest())
	})

	t.Run("errors", func(t *testing.T) {
		fail := true

		res := NewResource(func(FetchInfo[string]) *Future[string] {
			if fail {
				return Rejected[string](errBoom)
			}
			return Resolved("ok")
		})

		assert.Equal(t, Errored, res.State())
		assert.ErrorIs(t, res.Error(), errBoom)
		assert.PanicsWithError(t, "boom", func() { res.Read() })

		fail = false
		res.Refetch()

		assert.Equal(t, Ready, res.State())
		assert.NoError(t, res.Error())
		assert.Equal(t, "ok", res.Read())
	})

	t.Run("errors reach error handlers of readers", func(t *testing.T) {
		var got error

		res := NewResource(func(FetchInfo[int]) *Future[int] {
			return Rejected[int](errBoom)
		})

		CatchError(func() struct{} {
			NewEffect(func() { res.Read() })
			return struct{}{}
		}, func(err error) { got = err })

		assert.ErrorIs(t, got, errBoom)
	})

	t.Run("source driven fetches", func(t *testing.T) {
		log := []string{}

		user := NewSignal(0)
		res := NewSourceResource(func() (int, bool) {
			id := user.Read()
			return id, id > 0
		}, func(id int, info FetchInfo[string]) *Future[string] {
			return Resolved(fmt.Sprintf("user %d", id))
		})
		assert.Equal(t, Unresolved, res.State())

		NewEffect(func() { log = append(log, res.State().String()) })

		user.Write(1)
		assert.Equal(t, "user 1", res.Read())

		user.Write(2)
		assert.Equal(t, "user 2", res.Read())

		assert.Equal(t, []string{"unresolved", "ready"}, log)
	})

	t.Run("refetch with info", func(t *testing.T) {
		infos := []FetchInfo[string]{}

		res := NewResource(func(info FetchInfo[string]) *Future[string] {
			infos = append(infos, info)
			return Resolved(fmt.Sprintf("page %d", len(infos)))
		})

		res.RefetchWith(2)

		assert.Equal(t, []FetchInfo[string]{
			{Value: "", Refetching: false},
			{Value: "page 1", Refetching: 2},
		}, infos)
		assert.Equal(t, "page 2", res.Read())
	})

	t.Run("results after disposal are ignored", func(t *testing.T) {
		loop := hostloop.New()
		var resolve func(string)
		var res *Resource[string]

		dispose := NewRoot(func(dispose func()) func() {
			res = NewResource(func(FetchInfo[string]) *Future[string] {
				f, r, _ := NewFuture[string](loop)
				resolve = r
				return f
			}, WithResourceHost[string](loop))
			return dispose
		})

		dispose()
		resolve("late")
		drain(t, loop)

		assert.Equal(t, Pending, res.State())
		assert.Equal(t, "", res.Latest())
	})

	t.Run("mutate", func(t *testing.T) {
		res := NewResource(func(FetchInfo[string]) *Future[string] {
			return Resolved("fetched")
		}, WithInitialValue("initial"))

		res.Mutate("local")

		assert.Equal(t, "local", res.Read())
		assert.Equal(t, Ready, res.State())
	})

	t.Run("no host", func(t *testing.T) {
		assert.PanicsWithValue(t, ErrNoHost, func() {
			NewResource(func(FetchInfo[int]) *Future[int] {
				return &Future[int]{host: nil}
			})
		})
	})
}

func TestDeferred(t *testing.T) {
	t.Run("lags behind its source", func(t *testing.T) {
		loop := hostloop.New()
		Configure(WithScheduler(scheduler.New(loop)))
		log := []int{}

		s := NewSignal(1)
		deferred := NewDeferred(s.Read)
		NewEffect(func() { log = append(log, deferred()) })
		drain(t, loop)

		s.Write(2)
		s.Write(3)
		assert.Equal(t, 1, deferred())

		drain(t, loop)
		assert.Equal(t, 3, deferred())
		assert.Equal(t, []int{1, 3}, log)
	})

	t.Run("disposal cancels the pending update", func(t *testing.T) {
		loop := hostloop.New()
		sched := scheduler.New(loop)
		Configure(WithScheduler(sched))

		s := NewSignal(1)
		var deferred Accessor[int]
		dispose := NewRoot(func(dispose func()) func() {
			deferred = NewDeferred(s.Read, WithTimeout[int](time.Second))
			return dispose
		})
		drain(t, loop)

		s.Write(2)
		assert.Equal(t, 1, sched.Pending())

		dispose()
		drain(t, loop)

		assert.Zero(t, sched.Pending())
		assert.Equal(t, 1, deferred())
	})

	t.Run("no scheduler", func(t *testing.T) {
		assert.PanicsWithValue(t, ErrNoScheduler, func() {
			NewDeferred(func() int { return 0 })
		})
	})
}
