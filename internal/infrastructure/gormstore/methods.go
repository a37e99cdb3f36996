package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/failure"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type methodRepo struct{ c conn }

func (r methodRepo) Get(ctx context.Context, id string) (*payment.Method, error) {
	var row methodRow
	err := r.c.run(ctx, func(db *gorm.DB) error {
		return db.First(&row, "id = ?", payment.NormalizeMethodID(id)).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payment.ErrMethodNotFound
	}
	if err != nil {
		return nil, err
	}
	m := row.toDomain()
	return &m, nil
}

func (r methodRepo) ListEnabled(ctx context.Context) ([]payment.Method, error) {
	return r.list(ctx, true)
}

func (r methodRepo) List(ctx context.Context) ([]payment.Method, error) {
	return r.list(ctx, false)
}

func (r methodRepo) list(ctx context.Context, enabledOnly bool) ([]payment.Method, error) {
	var rows []methodRow
	err := r.c.run(ctx, func(db *gorm.DB) error {
		q := db.Order("id")
		if enabledOnly {
			q = q.Where("enabled = ?", true)
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]payment.Method, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r methodRepo) Upsert(ctx context.Context, m payment.Method) error {
	m.ID = payment.NormalizeMethodID(m.ID)
	if m.ID == "" {
		return failure.Invalid("method id is required")
	}
	if !m.Kind.Valid() {
		return failure.Invalid("method kind must be plain or chained")
	}
	row := methodRow{
		ID:               m.ID,
		DisplayName:      m.DisplayName,
		Kind:             string(m.Kind),
		Enabled:          m.Enabled,
		RecipientName:    m.RecipientName,
		RecipientAccount: m.RecipientAccount,
		UpdatedAt:        time.Now().UTC(),
	}
	return r.c.run(ctx, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "kind", "enabled", "recipient_name", "recipient_account", "updated_at"}),
		}).Create(&row).Error
	})
}

func (r methodRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	return r.update(ctx, id, map[string]any{"enabled": enabled})
}

func (r methodRepo) SetRecipient(ctx context.Context, id, name, account string) error {
	return r.update(ctx, id, map[string]any{"recipient_name": name, "recipient_account": account})
}

func (r methodRepo) update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	return r.c.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&methodRow{}).Where("id = ?", payment.NormalizeMethodID(id)).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return payment.ErrMethodNotFound
		}
		return nil
	})
}

func (row methodRow) toDomain() payment.Method {
	return payment.Method{
		ID:               row.ID,
		DisplayName:      row.DisplayName,
		Kind:             payment.MethodKind(row.Kind),
		Enabled:          row.Enabled,
		RecipientName:    row.RecipientName,
		RecipientAccount: row.RecipientAccount,
	}
}
