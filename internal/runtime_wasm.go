//go:build wasm

package internal

import "sync"

var (
	once          sync.Once
	globalRuntime *Runtime
)

// GetRuntime returns the single runtime of the wasm module.
func GetRuntime() *Runtime {
	once.Do(func() {
		globalRuntime = NewRuntime()
	})

	return globalRuntime
}

func ReleaseRuntime() {}
