package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCounter struct {
	labels [][]observability.Label
}

func (r *recordingCounter) Add(_ float64, labels ...observability.Label) {
	r.labels = append(r.labels, labels)
}
func (r *recordingCounter) Bind(...observability.Label) observability.BoundCounter { return nil }

type recordingMetrics struct {
	counter *recordingCounter
}

func (m recordingMetrics) Counter(observability.MetricKey) observability.Counter { return m.counter }
func (m recordingMetrics) Histogram(observability.MetricKey) observability.Histogram {
	return observability.NopHistogram()
}

type testObs struct{ metrics recordingMetrics }

func (testObs) Tracer() observability.Tracer     { return observability.NopTracer() }
func (testObs) Logger() observability.Logger     { return observability.NopLogger() }
func (o testObs) Metrics() observability.Metrics { return o.metrics }

func TestCallEndRecordsOutcome(t *testing.T) {
	counter := &recordingCounter{}
	in := NewInstrument(testObs{metrics: recordingMetrics{counter: counter}}, "test")

	_, call := in.Start(context.Background(), "test.ok", "Ok")
	call.End(nil)
	_, call = in.Start(context.Background(), "test.fail", "Fail")
	call.End(failure.New("BAD", "bad"))

	require.Len(t, counter.labels, 2)
	assert.Equal(t, []observability.Label{observability.L("use_case", "test.ok"), observability.L("outcome", "success")}, counter.labels[0])
	assert.Equal(t, []observability.Label{observability.L("use_case", "test.fail"), observability.L("outcome", "error")}, counter.labels[1])
}

func TestWithTimeoutClassifiesFailures(t *testing.T) {
	err := WithTimeout(context.Background(), time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.True(t, failure.IsTransient(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	plain := errors.New("plain")
	err = WithTimeout(context.Background(), time.Second, func(context.Context) error { return plain })
	assert.ErrorIs(t, err, plain)
	assert.True(t, failure.IsTransient(err))

	domain := failure.New("PRODUCT_NOT_FOUND", "missing")
	err = WithTimeout(context.Background(), time.Second, func(context.Context) error { return domain })
	assert.Same(t, domain, err)
	assert.NoError(t, WithTimeout(context.Background(), time.Second, func(context.Context) error { return nil }))
}
