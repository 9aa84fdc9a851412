package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AnatoleLucet/sig/v2"
	"github.com/AnatoleLucet/sig/v2/hostloop"
	"github.com/AnatoleLucet/sig/v2/instrument"
	"github.com/AnatoleLucet/sig/v2/scheduler"
	"github.com/AnatoleLucet/sig/v2/store"
)

// ErrInvalidWorkload is returned for workloads that cannot run.
var ErrInvalidWorkload = errors.New("sigbench: invalid workload")

// Workload describes a reactive graph and the writes driving it.
//
//	name: chains
//	iterations: 1000
//	signals: 100
//	depth: 4
//	effects: 50
//	tasks: 10
//	deferred: true
//	store:
//	  seed:
//	    counter: 0
//	  updates:
//	    - path: [counter]
//	      increment: true
type Workload struct {
	Name       string `yaml:"name"`
	Iterations int    `yaml:"iterations"`

	// Signals source signals, each followed by a chain of Depth memos.
	Signals int `yaml:"signals"`
	Depth   int `yaml:"depth"`
	// Effects each read the tail of one chain.
	Effects int `yaml:"effects"`

	// Tasks scheduled per iteration, each bumping a counter.
	Tasks       int           `yaml:"tasks"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
	// Deferred follows the sum of every chain through the scheduler.
	Deferred bool `yaml:"deferred"`

	MaxUpdates int `yaml:"max_updates"`

	Store *StoreWorkload `yaml:"store"`
}

type StoreWorkload struct {
	Seed    map[string]any `yaml:"seed"`
	Updates []StoreUpdate  `yaml:"updates"`
}

// StoreUpdate is applied once per iteration: the value at Path is set to
// Value, or incremented.
type StoreUpdate struct {
	Path      []any `yaml:"path"`
	Value     any   `yaml:"value"`
	Increment bool  `yaml:"increment"`
}

// Result summarizes a run.
type Result struct {
	Name         string        `yaml:"name"`
	Iterations   int           `yaml:"iterations"`
	Duration     time.Duration `yaml:"duration"`
	Flushes      int           `yaml:"flushes"`
	Computations int           `yaml:"computations"`
	Effects      int           `yaml:"effects"`
	Errors       int           `yaml:"errors"`
	Slices       int           `yaml:"slices"`
	Tasks        int           `yaml:"tasks"`
	Sum          int           `yaml:"sum"`
	Deferred     int           `yaml:"deferred,omitempty"`
	Store        any           `yaml:"store,omitempty"`
}

// ParseWorkload decodes a workload, rejecting unknown fields.
func ParseWorkload(data []byte) (*Workload, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var w Workload
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("sigbench: decode workload: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

func LoadWorkload(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sigbench: read workload: %w", err)
	}
	return ParseWorkload(data)
}

func (w *Workload) Validate() error {
	switch {
	case w.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidWorkload)
	case w.Signals < 0 || w.Depth < 0 || w.Effects < 0 || w.Tasks < 0:
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidWorkload)
	case w.Signals == 0 && w.Store == nil:
		return fmt.Errorf("%w: nothing to run", ErrInvalidWorkload)
	case w.Effects > 0 && w.Signals == 0:
		return fmt.Errorf("%w: effects need signals", ErrInvalidWorkload)
	}
	return nil
}

// tally counts what the runtime and the scheduler report.
type tally struct {
	flushes, computations, effects, errors, slices int
}

func (t *tally) FlushFinished(stats sig.FlushStats) {
	t.flushes++
	t.computations += stats.Computations
	t.effects += stats.Effects
}

func (t *tally) ComputationFailed(error, bool) { t.errors++ }

func (t *tally) SliceFinished(scheduler.SliceStats) { t.slices++ }

// Run executes w on a loop driven by the calling goroutine, whose runtime is
// released afterwards. observers get the runtime and scheduler events too.
func Run(w *Workload, logger *slog.Logger, observers ...any) (res *Result, err error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	defer sig.Release()
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = fmt.Errorf("sigbench: workload %q: %w", w.Name, e)
			} else {
				err = fmt.Errorf("sigbench: workload %q: %v", w.Name, p)
			}
			res = nil
		}
	}()

	t := &tally{}
	obs := instrument.Multi(append([]any{t}, observers...)...)

	loop := hostloop.New(hostloop.WithLogger(logger))
	defer loop.Close()

	sched := scheduler.New(loop, scheduler.WithObserver(obs))

	opts := []sig.ConfigOption{
		sig.WithLogger(logger),
		sig.WithObserver(obs),
		sig.WithHost(loop),
		sig.WithScheduler(sched),
	}
	if w.MaxUpdates > 0 {
		opts = append(opts, sig.WithMaxUpdates(w.MaxUpdates))
	}
	sig.Configure(opts...)

	g := build(w)
	g.sched = sched
	defer g.dispose()

	logger.Debug("sigbench: running workload", "name", w.Name, "iterations", w.Iterations)

	start := time.Now()
	for i := 1; i <= w.Iterations; i++ {
		g.step(w, i)
		if _, err := loop.RunUntilIdle(); err != nil {
			return nil, err
		}
	}

	res = &Result{
		Name:         w.Name,
		Iterations:   w.Iterations,
		Duration:     time.Since(start),
		Flushes:      t.flushes,
		Computations: t.computations,
		Effects:      t.effects,
		Errors:       t.errors,
		Slices:       t.slices,
		Tasks:        g.ticks.Peek(),
		Sum:          g.sum.Peek(),
	}
	if g.deferred != nil {
		res.Deferred = g.deferred()
	}
	if g.view != nil {
		res.Store = g.view.Snapshot()
	}
	return res, nil
}

type graph struct {
	signals  []*sig.Signal[int]
	sum      *sig.Computed[int]
	deferred sig.Accessor[int]
	ticks    *sig.Signal[int]
	timeout  []scheduler.TaskOption

	view *store.View
	set  store.Setter

	sched   *scheduler.Scheduler
	dispose func()
}

func build(w *Workload) *graph {
	g := &graph{ticks: sig.NewSignal(0)}
	if w.TaskTimeout > 0 {
		g.timeout = append(g.timeout, scheduler.WithTimeout(w.TaskTimeout))
	}

	sig.NewRoot(func(dispose func()) struct{} {
		g.dispose = dispose

		tails := make([]*sig.Computed[int], w.Signals)
		for i := range w.Signals {
			s := sig.NewSignal(0)
			g.signals = append(g.signals, s)

			tail := sig.NewComputed(s.Read)
			for range w.Depth {
				prev := tail
				tail = sig.NewComputed(func() int { return prev.Read() + 1 })
			}
			tails[i] = tail
		}

		g.sum = sig.NewComputed(func() int {
			total := 0
			for _, tail := range tails {
				total += tail.Read()
			}
			return total
		})

		for i := range w.Effects {
			tail := tails[i%len(tails)]
			sig.NewEffect(func() { tail.Read() })
		}

		if w.Deferred {
			var opts []sig.Option[int]
			if w.TaskTimeout > 0 {
				opts = append(opts, sig.WithTimeout[int](w.TaskTimeout))
			}
			g.deferred = sig.NewDeferred(g.sum.Read, opts...)
			sig.NewEffect(func() { g.deferred() })
		}

		if w.Store != nil {
			g.view, g.set = store.New(w.Store.Seed)
			for _, key := range g.view.Keys() {
				sig.NewEffect(func() { g.view.Get(key) })
			}
		}

		return struct{}{}
	})

	return g
}

func (g *graph) step(w *Workload, i int) {
	sig.NewBatch(func() {
		for _, s := range g.signals {
			s.Write(i)
		}
	})

	if w.Store != nil {
		for _, u := range w.Store.Updates {
			var value any = u.Value
			if u.Increment {
				value = increment
			}
			g.set(append(slices.Clone(u.Path), value)...)
		}
	}

	for range w.Tasks {
		g.sched.Schedule(func(bool) scheduler.TaskFunc {
			g.ticks.Update(func(n int) int { return n + 1 })
			return nil
		}, g.timeout...)
	}
}

func increment(prev any) any {
	switch n := prev.(type) {
	case int:
		return n + 1
	case float64:
		return n + 1
	default:
		return 1
	}
}
