package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionRepo struct{ c conn }

func (r sessionRepo) Insert(ctx context.Context, s *payment.Session) error {
	row := toSessionRow(s)
	return r.c.run(ctx, func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
}

func (r sessionRepo) Get(ctx context.Context, id string) (*payment.Session, error) {
	var row sessionRow
	err := r.c.run(ctx, func(db *gorm.DB) error {
		return db.First(&row, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payment.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r sessionRepo) Save(ctx context.Context, s *payment.Session, from payment.Status) error {
	return r.c.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&sessionRow{}).
			Where("id = ? AND status = ?", s.ID, string(from)).
			Updates(map[string]any{
				"reference":     s.Reference,
				"sender_name":   s.SenderName,
				"sender_amount": s.SenderAmount,
				"status":        string(s.Status),
				"reject_reason": s.RejectReason,
				"submitted_at":  s.SubmittedAt,
				"verified_at":   s.VerifiedAt,
				"decided_at":    s.DecidedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := db.Model(&sessionRow{}).Where("id = ?", s.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return payment.ErrSessionNotFound
			}
			return payment.ErrStaleSession
		}
		return nil
	})
}

func (r sessionRepo) Delete(ctx context.Context, id string) error {
	return r.c.run(ctx, func(db *gorm.DB) error {
		res := db.Delete(&sessionRow{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return payment.ErrSessionNotFound
		}
		return nil
	})
}

type referenceRepo struct{ c conn }

// referenceKey folds case and surrounding space so "txn123 " replays "TXN123".
func referenceKey(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

func (r referenceRepo) Claim(ctx context.Context, methodID, reference, sessionID string) error {
	row := referenceClaimRow{
		MethodID:  methodID,
		Reference: referenceKey(reference),
		SessionID: sessionID,
		ClaimedAt: time.Now().UTC(),
	}
	return r.c.run(ctx, func(db *gorm.DB) error {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		var existing referenceClaimRow
		if err := db.First(&existing, "method_id = ? AND reference = ?", row.MethodID, row.Reference).Error; err != nil {
			return err
		}
		if existing.SessionID != sessionID {
			return payment.ErrReferenceReused
		}
		return nil
	})
}

func (r referenceRepo) Release(ctx context.Context, sessionID string) error {
	return r.c.run(ctx, func(db *gorm.DB) error {
		return db.Delete(&referenceClaimRow{}, "session_id = ?", sessionID).Error
	})
}

func toSessionRow(s *payment.Session) sessionRow {
	return sessionRow{
		ID:           s.ID,
		UserID:       s.UserID,
		ProductID:    s.ProductID,
		MethodID:     s.MethodID,
		MethodKind:   string(s.MethodKind),
		Amount:       s.Amount,
		Reference:    s.Reference,
		SenderName:   s.SenderName,
		SenderAmount: s.SenderAmount,
		Status:       string(s.Status),
		RejectReason: s.RejectReason,
		CreatedAt:    s.CreatedAt,
		SubmittedAt:  s.SubmittedAt,
		VerifiedAt:   s.VerifiedAt,
		DecidedAt:    s.DecidedAt,
	}
}

func (row sessionRow) toDomain() *payment.Session {
	return &payment.Session{
		ID:           row.ID,
		UserID:       row.UserID,
		ProductID:    row.ProductID,
		MethodID:     row.MethodID,
		MethodKind:   payment.MethodKind(row.MethodKind),
		Amount:       row.Amount,
		Reference:    row.Reference,
		SenderName:   row.SenderName,
		SenderAmount: row.SenderAmount,
		Status:       payment.Status(row.Status),
		RejectReason: row.RejectReason,
		CreatedAt:    row.CreatedAt.UTC(),
		SubmittedAt:  utcPtr(row.SubmittedAt),
		VerifiedAt:   utcPtr(row.VerifiedAt),
		DecidedAt:    utcPtr(row.DecidedAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
