package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ehr/enrollment"

// Tracer starts spans around backend calls. The global provider is used
// unless another tracer is injected.
type Tracer struct {
	tracer trace.Tracer
}

type TracerOption func(*Tracer)

func WithTracer(t trace.Tracer) TracerOption {
	return func(tr *Tracer) { tr.tracer = t }
}

func NewTracer(opts ...TracerOption) *Tracer {
	t := &Tracer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(instrumentationName)
	}
	return t
}

// Start opens a span. The returned function ends it and records err when
// non-nil.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
