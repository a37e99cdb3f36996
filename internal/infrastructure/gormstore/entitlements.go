package gormstore

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fulfillment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type entitlementRepo struct{ c conn }

func (r entitlementRepo) Grant(ctx context.Context, rec fulfillment.Record) (*fulfillment.Record, bool, error) {
	row := entitlementRow{
		UserID:        rec.UserID,
		ProductID:     rec.ProductID,
		TransactionID: rec.TransactionID,
		GrantedAt:     rec.GrantedAt.UTC(),
	}
	var (
		stored  entitlementRow
		created bool
	)
	err := r.c.run(ctx, func(db *gorm.DB) error {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		return db.First(&stored, "user_id = ? AND product_id = ?", rec.UserID, rec.ProductID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return stored.toDomain(), created, nil
}

func (r entitlementRepo) Find(ctx context.Context, userID, productID string) (*fulfillment.Record, error) {
	var row entitlementRow
	err := r.c.run(ctx, func(db *gorm.DB) error {
		return db.First(&row, "user_id = ? AND product_id = ?", userID, productID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fulfillment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r entitlementRepo) DeleteByTransaction(ctx context.Context, transactionID string) error {
	return r.c.run(ctx, func(db *gorm.DB) error {
		return db.Delete(&entitlementRow{}, "transaction_id = ?", transactionID).Error
	})
}

func (row entitlementRow) toDomain() *fulfillment.Record {
	return &fulfillment.Record{
		UserID:        row.UserID,
		ProductID:     row.ProductID,
		TransactionID: row.TransactionID,
		GrantedAt:     row.GrantedAt.UTC(),
	}
}
