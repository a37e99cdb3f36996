package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"gorm.io/gorm"
)

type tokenRepo struct{ c conn }

func (r tokenRepo) Insert(ctx context.Context, t *delivery.Token) error {
	row := deliveryTokenRow{
		Token:         t.Token,
		TransactionID: t.TransactionID,
		AssetLocation: t.AssetLocation,
		IssuedAt:      t.IssuedAt.UTC(),
		ExpiresAt:     t.ExpiresAt.UTC(),
		UsedAt:        utcPtr(t.UsedAt),
	}
	return r.c.run(ctx, func(db *gorm.DB) error {
		return db.Create(&row).Error
	})
}

func (r tokenRepo) Get(ctx context.Context, token string) (*delivery.Token, error) {
	var row deliveryTokenRow
	err := r.c.run(ctx, func(db *gorm.DB) error {
		return db.First(&row, "token = ?", token).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, delivery.ErrTokenUnknown
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// LatestUsable filters expiry in Go; SQLite compares timestamps as text.
func (r tokenRepo) LatestUsable(ctx context.Context, transactionID string, now time.Time) (*delivery.Token, error) {
	var rows []deliveryTokenRow
	err := r.c.run(ctx, func(db *gorm.DB) error {
		return db.Where("transaction_id = ? AND used_at IS NULL", transactionID).
			Order("issued_at DESC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		t := row.toDomain()
		if t.Usable(now) {
			return t, nil
		}
	}
	return nil, nil
}

func (r tokenRepo) MarkUsed(ctx context.Context, token string, now time.Time) (bool, error) {
	var ok bool
	err := r.c.run(ctx, func(db *gorm.DB) error {
		res := db.Model(&deliveryTokenRow{}).
			Where("token = ? AND used_at IS NULL", token).
			Update("used_at", now.UTC())
		if res.Error != nil {
			return res.Error
		}
		ok = res.RowsAffected == 1
		return nil
	})
	return ok, err
}

func (r tokenRepo) DeleteByTransaction(ctx context.Context, transactionID string) error {
	return r.c.run(ctx, func(db *gorm.DB) error {
		return db.Delete(&deliveryTokenRow{}, "transaction_id = ?", transactionID).Error
	})
}

func (row deliveryTokenRow) toDomain() *delivery.Token {
	return &delivery.Token{
		Token:         row.Token,
		TransactionID: row.TransactionID,
		AssetLocation: row.AssetLocation,
		IssuedAt:      row.IssuedAt.UTC(),
		ExpiresAt:     row.ExpiresAt.UTC(),
		UsedAt:        utcPtr(row.UsedAt),
	}
}
