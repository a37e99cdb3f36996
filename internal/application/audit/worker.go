package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

const auditWorker = "audit_worker"

// Middleware wraps every handler the worker registers, e.g. to scope a logger.
type Middleware func(domoutbox.Handler) domoutbox.Handler

// Worker copies payment events into the audit log.
type Worker struct {
	subscriber domoutbox.Subscriber
	sink       ports.AuditLog
	log        observability.Logger
	events     observability.Counter
	wrap       Middleware
}

func New(subscriber domoutbox.Subscriber, sink ports.AuditLog, tel observability.Observability, wrap Middleware) *Worker {
	log := observability.NopLogger()
	metrics := observability.NopMetrics()
	if tel != nil {
		log = tel.Logger()
		metrics = tel.Metrics()
	}
	if wrap == nil {
		wrap = func(h domoutbox.Handler) domoutbox.Handler { return h }
	}
	return &Worker{
		subscriber: subscriber,
		sink:       sink,
		log:        log.With(observability.F("component", auditWorker)),
		events:     metrics.Counter(observability.MAuditEvents),
		wrap:       wrap,
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.sink == nil {
		return
	}
	for _, name := range []string{
		payment.SessionVerifiedEvent{}.EventName(),
		payment.SessionRejectedEvent{}.EventName(),
		payment.TransactionDeletedEvent{}.EventName(),
	} {
		w.subscriber.Subscribe(name, w.wrap(w.handle))
	}
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) (err error) {
	logger := logctx.FromOr(ctx, w.log)
	defer func() {
		outcome := "stored"
		if err != nil {
			outcome = "error"
		}
		w.events.Add(1, observability.L("event", e.EventName()), observability.L("outcome", outcome))
	}()

	entry, err := entryFor(e)
	if err != nil {
		logger.Warn("audit_event_unsupported", observability.F("error", err.Error()))
		return err
	}
	if err := w.sink.Append(ctx, entry); err != nil {
		logger.Warn("audit_append_failed",
			observability.F("session_id", entry.SessionID),
			observability.F("error", err.Error()),
		)
		return err
	}
	logger.Debug("audit_appended", observability.F("session_id", entry.SessionID))
	return nil
}

func entryFor(e domoutbox.Event) (ports.AuditEntry, error) {
	entry := ports.AuditEntry{Event: e.EventName()}
	switch evt := e.(type) {
	case payment.SessionVerifiedEvent:
		entry.SessionID, entry.Actor, entry.OccurredAt = evt.SessionID, evt.Actor, evt.OccurredAt
	case payment.SessionRejectedEvent:
		entry.SessionID, entry.OccurredAt = evt.SessionID, evt.OccurredAt
	case payment.TransactionDeletedEvent:
		entry.SessionID, entry.Actor, entry.OccurredAt = evt.SessionID, evt.Actor, evt.OccurredAt
	default:
		return entry, fmt.Errorf("audit: unsupported event %T", e)
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return entry, fmt.Errorf("audit: encode %s: %w", entry.Event, err)
	}
	entry.Payload = string(payload)
	return entry, nil
}
