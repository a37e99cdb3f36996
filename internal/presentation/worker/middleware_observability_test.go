package workerpresentation

import (
	"context"
	"errors"
	"testing"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type captureLogger struct {
	fields []observability.Field
}

func (l *captureLogger) With(fs ...observability.Field) observability.Logger {
	return &captureLogger{fields: append(append([]observability.Field{}, l.fields...), fs...)}
}
func (l *captureLogger) Debug(string, ...observability.Field) {}
func (l *captureLogger) Info(string, ...observability.Field)  {}
func (l *captureLogger) Warn(string, ...observability.Field)  {}
func (l *captureLogger) Error(string, ...observability.Field) {}

func fieldMap(l observability.Logger) map[string]any {
	out := map[string]any{}
	for _, f := range l.(*captureLogger).fields {
		out[f.Key] = f.Value
	}
	return out
}

func TestWithEventContextKeepsGivenEventID(t *testing.T) {
	ctx := WithEventContext(context.Background(), &captureLogger{}, trace.TraceID{}, trace.SpanID{}, map[string]string{
		"event_id": "evt-1",
		"event":    "payment.session_verified",
		"empty":    "",
	})

	fields := fieldMap(logctx.FromOr(ctx, nil))
	require.Equal(t, "evt-1", fields["event_id"])
	require.Equal(t, "payment.session_verified", fields["event"])
	require.NotContains(t, fields, "empty")
	require.NotContains(t, fields, "trace_id")
}

func TestEventScopeScopesLoggerAndPassesErrors(t *testing.T) {
	boom := errors.New("boom")
	var seen map[string]any
	h := EventScope(nil, "audit_worker")(func(ctx context.Context, e domoutbox.Event) error {
		seen = fieldMap(logctx.FromOr(ctx, &captureLogger{}))
		return boom
	})

	ctx := logctx.With(context.Background(), &captureLogger{})
	err := h(ctx, payment.SessionRejectedEvent{SessionID: "s-1"})
	require.ErrorIs(t, err, boom)
	require.Equal(t, "audit_worker", seen["consumer"])
	require.Equal(t, payment.SessionRejectedEvent{}.EventName(), seen["event"])
	require.NotEmpty(t, seen["event_id"])
}
