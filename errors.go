package sig

import (
	"errors"

	"github.com/AnatoleLucet/sig/v2/internal"
)

var (
	// ErrInfiniteUpdateLoop is panicked when a flush queues more updates than
	// the configured maximum. Error handlers never see it.
	ErrInfiniteUpdateLoop = internal.ErrInfiniteUpdateLoop

	// ErrNoHost is panicked when a future or resource needs a host and none
	// was given or configured.
	ErrNoHost = errors.New("sig: no host configured")

	// ErrNoScheduler is panicked when a deferred value is created on a
	// runtime without a scheduler.
	ErrNoScheduler = errors.New("sig: no scheduler configured")
)

// PanicError carries a recovered panic value that was not an error, along
// with the stack it was raised from.
type PanicError = internal.PanicError
