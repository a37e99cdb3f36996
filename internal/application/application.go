package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Instrument carries the RED metrics, tracer and base logger shared by the use
// cases of one service.
type Instrument struct {
	tracer  observability.Tracer
	log     observability.Logger
	req     observability.Counter
	dur     observability.Histogram
	service string
}

func NewInstrument(tel observability.Observability, service string) *Instrument {
	in := &Instrument{
		tracer:  observability.NopTracer(),
		log:     observability.NopLogger(),
		service: service,
	}
	metrics := observability.NopMetrics()
	if tel != nil {
		in.tracer = tel.Tracer()
		in.log = tel.Logger()
		metrics = tel.Metrics()
	}
	in.log = in.log.With(observability.F("service", service))
	in.req = metrics.Counter(observability.MUsecaseRequests)
	in.dur = metrics.Histogram(observability.MUsecaseDuration)
	return in
}

// Logger returns the service logger, preferring the request-scoped one on ctx.
func (in *Instrument) Logger(ctx context.Context) observability.Logger {
	return logctx.FromOr(ctx, in.log)
}

// Call is one instrumented use case execution.
type Call struct {
	useCase string
	start   time.Time
	span    trace.Span
	ctx     context.Context
	log     observability.Logger
	status  string
	fields  []observability.Field
	in      *Instrument
}

// Start opens span UC.<spanName> and returns the derived context. fields are
// attached to every log line of the call.
func (in *Instrument) Start(ctx context.Context, useCase, spanName string, fields ...observability.Field) (context.Context, *Call) {
	attrs := make([]attribute.KeyValue, 0, len(fields)+1)
	attrs = append(attrs, attribute.String("use_case", useCase))
	for _, f := range fields {
		if s, ok := f.Value.(string); ok {
			attrs = append(attrs, attribute.String(f.Key, s))
		}
	}
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	logger := logctx.FromOr(ctx, in.log).With(append([]observability.Field{observability.F("use_case", useCase)}, fields...)...)
	return logctx.With(ctx, logger), &Call{
		useCase: useCase,
		start:   time.Now(),
		span:    span,
		ctx:     ctx,
		log:     logger,
		in:      in,
	}
}

// Status overrides the status text logged and set on the span.
func (c *Call) Status(text string) { c.status = text }

// With adds result fields to the use_case_done line.
func (c *Call) With(fields ...observability.Field) { c.fields = append(c.fields, fields...) }

func (c *Call) Logger() observability.Logger { return c.log }

// End records metrics, ends the span and logs use_case_done. Call it deferred
// with the named error result.
func (c *Call) End(err error) {
	outcome, statusText := "success", "OK"
	if err != nil {
		outcome, statusText = "error", failure.CodeOf(err)
	}
	if c.status != "" {
		statusText = c.status
	}

	if c.span != nil {
		if err != nil {
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, statusText)
		} else {
			c.span.SetStatus(codes.Ok, statusText)
		}
		c.span.End()
	}

	latency := time.Since(c.start).Seconds()
	c.in.req.Add(1,
		observability.L("use_case", c.useCase),
		observability.L("outcome", outcome),
	)
	c.in.dur.Observe(latency, observability.L("use_case", c.useCase))

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
		observability.F("latency_seconds", latency),
	}
	if sc := trace.SpanContextFromContext(c.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, c.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	if err != nil && failure.IsTransient(err) {
		c.log.Warn("use_case_done", fields...)
		return
	}
	c.log.Info("use_case_done", fields...)
}

// WithTimeout bounds one call to an external collaborator. Errors outside the
// domain taxonomy, deadlines included, surface as transient failures.
func WithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return failure.Transient(fn(ctx))
}
