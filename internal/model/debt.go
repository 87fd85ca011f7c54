package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Debt is what a buyer still owes a seller for a pay-by-debt sale. Amount only
// goes down; the sum of Payments plus Amount always equals OriginalAmount.
type Debt struct {
	BaseModel
	SellerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller         *User           `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	BuyerID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Buyer          *User           `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Product        *Product        `json:"product,omitempty"`
	TransactionID  *uuid.UUID      `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
	OriginalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"original_amount"`
	Amount         decimal.Decimal `gorm:"type:numeric(18,2);not null;check:amount >= 0" json:"amount"`
	IsPaid         bool            `gorm:"not null;default:false" json:"is_paid"`
	Payments       []DebtPayment   `gorm:"foreignKey:DebtID" json:"payments,omitempty"`
}

type DebtPayment struct {
	BaseModel
	DebtID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"debt_id"`
	SellerID uuid.UUID       `gorm:"type:uuid;not null" json:"seller_id"`
	BuyerID  uuid.UUID       `gorm:"type:uuid;not null" json:"buyer_id"`
	Amount   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Note     string          `gorm:"type:text" json:"note,omitempty"`
}
