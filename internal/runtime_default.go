//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

// one runtime per goroutine, so the graph is never touched concurrently
var runtimes sync.Map

func GetRuntime() *Runtime {
	gid := getGID()

	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r := NewRuntime()
	runtimes.Store(gid, r)
	return r
}

// ReleaseRuntime forgets the runtime of the calling goroutine.
func ReleaseRuntime() {
	runtimes.Delete(getGID())
}

func getGID() int64 {
	return goid.Get()
}
