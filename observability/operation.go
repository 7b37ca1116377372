package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Resolution statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ResolveOperation tracks one resolution from start to end.
type ResolveOperation struct {
	ServiceType string
	Engine      string
	StartTime   time.Time
	Metrics     *Metrics

	span trace.Span
}

// StartResolve starts a resolver.resolve span and records the start metric.
// If metrics is nil, metric recording is silently skipped.
func StartResolve(ctx context.Context, tracer trace.Tracer, serviceType, engine string, metrics *Metrics) (context.Context, *ResolveOperation) {
	if tracer == nil {
		tracer = Tracer(defaultTracerName)
	}
	ctx, span := tracer.Start(ctx, SpanResolve, trace.WithAttributes(
		attribute.String(AttrServiceType, serviceType),
		attribute.String(AttrEngine, engine),
	))
	op := &ResolveOperation{
		ServiceType: serviceType,
		Engine:      engine,
		StartTime:   time.Now(),
		Metrics:     metrics,
		span:        span,
	}
	if metrics != nil {
		metrics.RecordResolveStart(ctx)
	}
	return ctx, op
}

// End ends the span and records the resolution metrics. code classifies a
// failure for the error counter and may be empty.
func (op *ResolveOperation) End(ctx context.Context, err error, code string) {
	duration := time.Since(op.StartTime)
	status := StatusOK
	if err != nil {
		status = StatusError
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()

	if op.Metrics == nil {
		return
	}
	op.Metrics.RecordResolveEnd(ctx, op.ServiceType, op.Engine, status, duration)
	if err != nil {
		if code == "" {
			code = "USER_ERROR"
		}
		op.Metrics.RecordError(ctx, code, "resolver")
	}
}

// Duration returns the elapsed time since the resolution started.
func (op *ResolveOperation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
