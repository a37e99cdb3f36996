package gormstore

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type receiptRepo struct{ c conn }

func (r receiptRepo) Create(ctx context.Context, rc *receipt.Receipt) (*receipt.Receipt, bool, error) {
	row := receiptRow{
		ID:            rc.ID,
		TransactionID: rc.TransactionID,
		Product:       rc.Product,
		Buyer:         rc.Buyer,
		Amount:        rc.Amount,
		MethodID:      rc.MethodID,
		Reference:     rc.Reference,
		IssuedAt:      rc.IssuedAt.UTC(),
	}
	var (
		stored  receiptRow
		created bool
	)
	err := r.c.run(ctx, func(db *gorm.DB) error {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		return db.First(&stored, "transaction_id = ?", rc.TransactionID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return stored.toDomain(), created, nil
}

func (r receiptRepo) Get(ctx context.Context, id string) (*receipt.Receipt, error) {
	return r.first(ctx, "id = ?", id)
}

func (r receiptRepo) GetByTransaction(ctx context.Context, transactionID string) (*receipt.Receipt, error) {
	return r.first(ctx, "transaction_id = ?", transactionID)
}

func (r receiptRepo) first(ctx context.Context, where string, arg string) (*receipt.Receipt, error) {
	var row receiptRow
	err := r.c.run(ctx, func(db *gorm.DB) error {
		return db.First(&row, where, arg).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, receipt.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r receiptRepo) DeleteByTransaction(ctx context.Context, transactionID string) error {
	return r.c.run(ctx, func(db *gorm.DB) error {
		return db.Delete(&receiptRow{}, "transaction_id = ?", transactionID).Error
	})
}

func (row receiptRow) toDomain() *receipt.Receipt {
	return &receipt.Receipt{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		Product:       row.Product,
		Buyer:         row.Buyer,
		Amount:        row.Amount,
		MethodID:      row.MethodID,
		Reference:     row.Reference,
		IssuedAt:      row.IssuedAt.UTC(),
	}
}
