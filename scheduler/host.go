package scheduler

//go:generate mockgen -source=host.go -destination=host_mock.go -package=scheduler

// Host hands control back to the host loop.
type Host interface {
	// Post runs fn on a future host tick.
	Post(fn func())
}

// InputPendingHost is a Host that can tell whether user input is waiting.
type InputPendingHost interface {
	Host
	InputPending() bool
}
