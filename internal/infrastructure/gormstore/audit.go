package gormstore

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/ports"
	"gorm.io/gorm"
)

type AuditLog struct{ c conn }

var _ ports.AuditLog = (*AuditLog)(nil)

func (a *AuditLog) Append(ctx context.Context, e ports.AuditEntry) error {
	row := auditRow{
		Event:      e.Event,
		SessionID:  e.SessionID,
		Actor:      e.Actor,
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt.UTC(),
	}
	return a.c.run(ctx, func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
}

// BySession returns the trail of one session, oldest first.
func (a *AuditLog) BySession(ctx context.Context, sessionID string) ([]ports.AuditEntry, error) {
	var rows []auditRow
	err := a.c.run(ctx, func(db *gorm.DB) error {
		return db.Where("session_id = ?", sessionID).Order("id").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]ports.AuditEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, ports.AuditEntry{
			Event:      r.Event,
			SessionID:  r.SessionID,
			Actor:      r.Actor,
			Payload:    r.Payload,
			OccurredAt: r.OccurredAt.UTC(),
		})
	}
	return out, nil
}
