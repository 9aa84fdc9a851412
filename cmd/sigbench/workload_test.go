package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/sig/v2"
)

const chains = `
name: chains
iterations: 5
signals: 3
depth: 2
effects: 2
tasks: 2
deferred: true
store:
  seed:
    counter: 0
    name: a
  updates:
    - path: [counter]
      increment: true
    - path: [name]
      value: b
`

var discard = slog.New(slog.DiscardHandler)

func TestParseWorkload(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		w, err := ParseWorkload([]byte(chains))
		require.NoError(t, err)

		assert.Equal(t, "chains", w.Name)
		assert.Equal(t, 3, w.Signals)
		assert.True(t, w.Deferred)
		require.NotNil(t, w.Store)
		assert.Equal(t, map[string]any{"counter": 0, "name": "a"}, w.Store.Seed)
		assert.Equal(t, []any{"counter"}, w.Store.Updates[0].Path)
	})

	t.Run("durations", func(t *testing.T) {
		w, err := ParseWorkload([]byte("iterations: 1\nsignals: 1\ntask_timeout: 250ms\n"))
		require.NoError(t, err)
		assert.Equal(t, "250ms", w.TaskTimeout.String())
	})

	t.Run("unknown fields", func(t *testing.T) {
		_, err := ParseWorkload([]byte("iterations: 1\nsignals: 1\nsignal: 2\n"))
		assert.ErrorContains(t, err, "sigbench: decode workload")
	})

	t.Run("invalid", func(t *testing.T) {
		cases := map[string]string{
			"no iterations":    "signals: 1\n",
			"negative":         "iterations: 1\nsignals: -1\n",
			"nothing to run":   "iterations: 1\n",
			"effects no input": "iterations: 1\neffects: 1\nstore: {seed: {a: 1}}\n",
		}
		for name, doc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := ParseWorkload([]byte(doc))
				assert.ErrorIs(t, err, ErrInvalidWorkload)
			})
		}
	})

	t.Run("load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "chains.yaml")
		require.NoError(t, os.WriteFile(path, []byte(chains), 0o644))

		w, err := LoadWorkload(path)
		require.NoError(t, err)
		assert.Equal(t, 5, w.Iterations)

		_, err = LoadWorkload(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "sigbench: read workload")
	})
}

func TestRun(t *testing.T) {
	t.Run("chains", func(t *testing.T) {
		w, err := ParseWorkload([]byte(chains))
		require.NoError(t, err)

		res, err := Run(w, discard)
		require.NoError(t, err)

		assert.Equal(t, 5, res.Iterations)
		assert.Equal(t, 3*(5+2), res.Sum)
		assert.Equal(t, 3*(5+2), res.Deferred)
		assert.Equal(t, 10, res.Tasks)
		assert.Zero(t, res.Errors)
		assert.Positive(t, res.Slices)
		assert.GreaterOrEqual(t, res.Effects, 5*2)
		assert.GreaterOrEqual(t, res.Computations, 5*(3*3+1))
		assert.Equal(t, map[string]any{"counter": 5, "name": "b"}, res.Store)
	})

	t.Run("observers see the run", func(t *testing.T) {
		w, err := ParseWorkload([]byte("iterations: 3\nsignals: 1\neffects: 1\n"))
		require.NoError(t, err)

		counted := &tally{}
		res, err := Run(w, discard, counted)
		require.NoError(t, err)

		assert.Equal(t, res.Flushes, counted.flushes)
		assert.Equal(t, res.Effects, counted.effects)
	})

	t.Run("update loops fail the run", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		w, err := ParseWorkload([]byte("name: loop\niterations: 1\nsignals: 10\ndepth: 1\nmax_updates: 5\n"))
		require.NoError(t, err)

		res, err := Run(w, logger)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, sig.ErrInfiniteUpdateLoop)
		assert.ErrorContains(t, err, `workload "loop"`)
		assert.Contains(t, buf.String(), "sig: update queue overflow")
	})

	t.Run("store only", func(t *testing.T) {
		w, err := ParseWorkload([]byte(`
iterations: 2
store:
  seed:
    todos:
      - {title: a, done: false}
      - {title: b, done: false}
  updates:
    - path: [todos, 1, done]
      value: true
`))
		require.NoError(t, err)

		res, err := Run(w, discard)
		require.NoError(t, err)

		assert.Equal(t, map[string]any{
			"todos": []any{
				map[string]any{"title": "a", "done": false},
				map[string]any{"title": "b", "done": true},
			},
		}, res.Store)
	})
}
