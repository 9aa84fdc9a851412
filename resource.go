package sig

import "github.com/AnatoleLucet/sig/v2/internal"

type ResourceState uint8

const (
	// Unresolved resources never loaded a value.
	Unresolved ResourceState = iota
	// Pending resources are loading their first value.
	Pending
	Ready
	// Refreshing resources are loading a new value over a ready one.
	Refreshing
	Errored
)

func (s ResourceState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Refreshing:
		return "refreshing"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// FetchInfo is passed to fetchers.
type FetchInfo[T any] struct {
	// Value is the current value of the resource.
	Value T
	// Refetching is false for loads driven by the resource itself, true for
	// Refetch and the given value for RefetchWith.
	Refetching any
}

type resourceOptions[T any] struct {
	initial    T
	hasInitial bool
	host       Host
}

type ResourceOption[T any] func(*resourceOptions[T])

// WithInitialValue starts the resource ready with v.
func WithInitialValue[T any](v T) ResourceOption[T] {
	return func(o *resourceOptions[T]) {
		o.initial = v
		o.hasInitial = true
	}
}

// WithResourceHost sets the host used to debounce loads. It defaults to
// the one configured with WithHost.
func WithResourceHost[T any](h Host) ResourceOption[T] {
	return func(o *resourceOptions[T]) {
		o.host = h
	}
}

// Resource exposes the result of asynchronous fetches as reactive state.
// Only the latest fetch counts: a future settling after another fetch
// started is ignored.
type Resource[T any] struct {
	value *Signal[T]
	err   *Signal[error]
	state *Signal[ResourceState]

	fetch func(refetching any) (*Future[T], bool)
	host  Host

	inflight  *Future[T]
	resolved  bool
	scheduled bool
}

// NewResource creates a resource fetching once right away.
func NewResource[T any](fetcher func(info FetchInfo[T]) *Future[T], opts ...ResourceOption[T]) *Resource[T] {
	res := newResource(opts)
	res.fetch = func(refetching any) (*Future[T], bool) {
		info := FetchInfo[T]{Value: res.value.Peek(), Refetching: refetching}
		return Untrack(func() *Future[T] { return fetcher(info) }), true
	}

	res.load(false)
	return res
}

type sourceValue[S any] struct {
	value S
	ok    bool
}

// NewSourceResource creates a resource fetching each time source changes.
// While source reports false, nothing is fetched and any fetch in flight is
// dropped.
func NewSourceResource[S, T any](source func() (S, bool), fetcher func(source S, info FetchInfo[T]) *Future[T], opts ...ResourceOption[T]) *Resource[T] {
	res := newResource(opts)

	dynamic := NewComputed(func() sourceValue[S] {
		v, ok := source()
		return sourceValue[S]{v, ok}
	})

	res.fetch = func(refetching any) (*Future[T], bool) {
		src := dynamic.Read()
		if !src.ok {
			return nil, false
		}

		info := FetchInfo[T]{Value: res.value.Peek(), Refetching: refetching}
		return Untrack(func() *Future[T] { return fetcher(src.value, info) }), true
	}

	NewComputation(func() { res.load(false) })
	return res
}

func newResource[T any](opts []ResourceOption[T]) *Resource[T] {
	var cfg resourceOptions[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	initialState := Unresolved
	if cfg.hasInitial {
		initialState = Ready
	}

	res := &Resource[T]{
		value:    NewSignal(cfg.initial),
		err:      NewSignal[error](nil),
		state:    NewSignal(initialState),
		host:     cfg.host,
		resolved: cfg.hasInitial,
	}

	// results arriving after disposal are dropped
	OnCleanup(func() { res.inflight = nil })

	return res
}

func isRefetch(refetching any) bool {
	b, ok := refetching.(bool)
	return !ok || b
}

func (res *Resource[T]) load(refetching any) {
	if isRefetch(refetching) && res.scheduled {
		return
	}
	res.scheduled = false

	f, ok := res.fetch(refetching)
	if !ok || f == nil {
		res.loadEnd(res.inflight, res.value.Peek(), nil, false)
		return
	}

	res.inflight = f
	if v, settled, err := f.Result(); settled {
		res.loadEnd(f, v, err, true)
		return
	}

	res.scheduled = true
	res.microtask(func() { res.scheduled = false })

	if res.resolved {
		res.state.Write(Refreshing)
	} else {
		res.state.Write(Pending)
	}

	f.Then(func(v T, err error) {
		res.loadEnd(f, v, err, true)
	})
}

func (res *Resource[T]) microtask(fn func()) {
	host := res.host
	if host == nil {
		host = internal.GetRuntime().Host
	}
	if host == nil {
		panic(ErrNoHost)
	}
	host.QueueMicrotask(fn)
}

func (res *Resource[T]) loadEnd(f *Future[T], v T, err error, fetched bool) {
	if res.inflight != f {
		return
	}

	res.inflight = nil
	if fetched {
		res.resolved = true
	}

	NewBatch(func() {
		if err == nil {
			res.value.Write(v)
		}

		switch {
		case err != nil:
			res.state.Write(Errored)
		case res.resolved:
			res.state.Write(Ready)
		default:
			res.state.Write(Unresolved)
		}

		res.err.Write(err)
	})
}

// Read returns the current value. It panics with the fetch error while the
// resource is errored with no fetch in flight.
func (res *Resource[T]) Read() T {
	v := res.value.Read()
	if err := res.err.Read(); err != nil && res.inflight == nil {
		panic(err)
	}
	return v
}

// Latest is Read, except that it keeps returning the last ready value
// while a refresh is in flight.
func (res *Resource[T]) Latest() T {
	if !res.resolved {
		return res.Read()
	}
	if err := res.err.Read(); err != nil && res.inflight == nil {
		panic(err)
	}
	return res.value.Read()
}

func (res *Resource[T]) State() ResourceState {
	return res.state.Read()
}

// Error returns the error of the last fetch, if it failed.
func (res *Resource[T]) Error() error {
	return res.err.Read()
}

// Loading reports whether a fetch is in flight.
func (res *Resource[T]) Loading() bool {
	s := res.state.Read()
	return s == Pending || s == Refreshing
}

// Refetch fetches again with Refetching set to true.
func (res *Resource[T]) Refetch() {
	res.load(true)
}

// RefetchWith fetches again, passing info as FetchInfo.Refetching.
func (res *Resource[T]) RefetchWith(info any) {
	res.load(info)
}

// Mutate overwrites the value without fetching.
func (res *Resource[T]) Mutate(v T) {
	res.value.Write(v)
}
