package instrument

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AnatoleLucet/sig/v2"
	"github.com/AnatoleLucet/sig/v2/scheduler"
)

const defaultTracerName = "github.com/AnatoleLucet/sig/v2"

type TracingOption func(*Tracing)

// WithTracer replaces the tracer resolved from the global provider.
func WithTracer(tracer trace.Tracer) TracingOption {
	return func(t *Tracing) {
		t.tracer = tracer
	}
}

// WithContext sets the parent of the recorded spans.
func WithContext(ctx context.Context) TracingOption {
	return func(t *Tracing) {
		t.ctx = ctx
	}
}

// Tracing records flushes and scheduler slices as spans. Spans are created
// once the work is over, back dated to when it started.
type Tracing struct {
	tracer trace.Tracer
	ctx    context.Context
}

var (
	_ sig.Observer       = (*Tracing)(nil)
	_ scheduler.Observer = (*Tracing)(nil)
)

// NewTracing uses the global OpenTelemetry tracer provider unless
// WithTracer is given.
func NewTracing(opts ...TracingOption) *Tracing {
	t := &Tracing{ctx: context.Background()}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(defaultTracerName)
	}
	return t
}

func (t *Tracing) FlushFinished(stats sig.FlushStats) {
	_, span := t.tracer.Start(t.ctx, "sig.flush",
		trace.WithTimestamp(stats.Start),
		trace.WithAttributes(
			attribute.Int("sig.computations", stats.Computations),
			attribute.Int("sig.effects", stats.Effects),
		),
	)
	span.End(trace.WithTimestamp(stats.Start.Add(stats.Duration)))
}

func (t *Tracing) ComputationFailed(err error, handled bool) {
	_, span := t.tracer.Start(t.ctx, "sig.computation_error",
		trace.WithAttributes(attribute.Bool("sig.handled", handled)),
	)
	span.RecordError(err)
	if !handled {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *Tracing) SliceFinished(stats scheduler.SliceStats) {
	_, span := t.tracer.Start(t.ctx, "scheduler.slice",
		trace.WithTimestamp(stats.Start),
		trace.WithAttributes(
			attribute.Int("scheduler.tasks", stats.Tasks),
			attribute.Int("scheduler.timed_out", stats.TimedOut),
			attribute.Int("scheduler.pending", stats.Pending),
			attribute.Bool("scheduler.yielded", stats.Yielded),
		),
	)
	span.End(trace.WithTimestamp(stats.Start.Add(stats.Duration)))
}
