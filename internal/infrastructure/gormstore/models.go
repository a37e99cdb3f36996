package gormstore

import (
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/receipt"
	"github.com/shopspring/decimal"
)

type methodRow struct {
	ID               string `gorm:"primaryKey;size:64"`
	DisplayName      string `gorm:"size:128"`
	Kind             string `gorm:"size:16;not null"`
	Enabled          bool   `gorm:"not null;default:false"`
	RecipientName    string `gorm:"size:128"`
	RecipientAccount string `gorm:"size:128"`
	UpdatedAt        time.Time
}

func (methodRow) TableName() string { return "payment_methods" }

type sessionRow struct {
	ID           string              `gorm:"primaryKey;size:36"`
	UserID       string              `gorm:"size:64;not null;index:idx_sessions_user_product"`
	ProductID    string              `gorm:"size:64;not null;index:idx_sessions_user_product"`
	MethodID     string              `gorm:"size:64;not null"`
	MethodKind   string              `gorm:"size:16;not null"`
	Amount       decimal.Decimal     `gorm:"type:varchar(32);not null"`
	Reference    string              `gorm:"size:128"`
	SenderName   string              `gorm:"size:128"`
	SenderAmount decimal.NullDecimal `gorm:"type:varchar(32)"`
	Status       string              `gorm:"size:32;not null;index"`
	RejectReason string              `gorm:"size:64"`
	CreatedAt    time.Time
	SubmittedAt  *time.Time
	VerifiedAt   *time.Time
	DecidedAt    *time.Time
}

func (sessionRow) TableName() string { return "payment_sessions" }

// referenceClaimRow makes a transaction reference single-use per method. The
// composite primary key is the replay-protection constraint.
type referenceClaimRow struct {
	MethodID  string `gorm:"primaryKey;size:64"`
	Reference string `gorm:"primaryKey;size:128"`
	SessionID string `gorm:"size:36;not null;index"`
	ClaimedAt time.Time
}

func (referenceClaimRow) TableName() string { return "payment_reference_claims" }

// entitlementRow's composite primary key is the one-owner-per-product constraint.
type entitlementRow struct {
	UserID        string `gorm:"primaryKey;size:64"`
	ProductID     string `gorm:"primaryKey;size:64"`
	TransactionID string `gorm:"size:36;not null;uniqueIndex"`
	GrantedAt     time.Time
}

func (entitlementRow) TableName() string { return "fulfillment_records" }

type receiptRow struct {
	ID            string                  `gorm:"primaryKey;size:36"`
	TransactionID string                  `gorm:"size:36;not null;uniqueIndex"`
	Product       receipt.ProductSnapshot `gorm:"serializer:json;type:text"`
	Buyer         receipt.BuyerSnapshot   `gorm:"serializer:json;type:text"`
	Amount        decimal.Decimal         `gorm:"type:varchar(32);not null"`
	MethodID      string                  `gorm:"size:64"`
	Reference     string                  `gorm:"size:128"`
	IssuedAt      time.Time
}

func (receiptRow) TableName() string { return "receipts" }

type deliveryTokenRow struct {
	Token         string `gorm:"primaryKey;size:64"`
	TransactionID string `gorm:"size:36;not null;index"`
	AssetLocation string `gorm:"size:1024;not null"`
	IssuedAt      time.Time
	ExpiresAt     time.Time `gorm:"not null"`
	UsedAt        *time.Time
}

func (deliveryTokenRow) TableName() string { return "delivery_tokens" }

type auditRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Event      string `gorm:"size:64;not null;index"`
	SessionID  string `gorm:"size:36;index"`
	Actor      string `gorm:"size:64"`
	Payload    string `gorm:"type:text"`
	OccurredAt time.Time
}

func (auditRow) TableName() string { return "audit_log" }
