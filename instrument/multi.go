package instrument

import (
	"github.com/AnatoleLucet/sig/v2"
	"github.com/AnatoleLucet/sig/v2/scheduler"
)

// Fanout forwards events to several observers.
type Fanout struct {
	runtime   []sig.Observer
	scheduler []scheduler.Observer
}

var (
	_ sig.Observer       = (*Fanout)(nil)
	_ scheduler.Observer = (*Fanout)(nil)
)

// Multi combines observers. Each one gets the events of the interfaces it
// implements, sig.Observer, scheduler.Observer or both. Other values are
// ignored.
func Multi(observers ...any) *Fanout {
	f := &Fanout{}
	for _, o := range observers {
		if r, ok := o.(sig.Observer); ok {
			f.runtime = append(f.runtime, r)
		}
		if s, ok := o.(scheduler.Observer); ok {
			f.scheduler = append(f.scheduler, s)
		}
	}
	return f
}

func (f *Fanout) FlushFinished(stats sig.FlushStats) {
	for _, o := range f.runtime {
		o.FlushFinished(stats)
	}
}

func (f *Fanout) ComputationFailed(err error, handled bool) {
	for _, o := range f.runtime {
		o.ComputationFailed(err, handled)
	}
}

func (f *Fanout) SliceFinished(stats scheduler.SliceStats) {
	for _, o := range f.scheduler {
		o.SliceFinished(stats)
	}
}
