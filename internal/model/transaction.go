package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusShipping  TransactionStatus = "sedang dikirim"
	StatusCompleted TransactionStatus = "selesai"
	StatusCancelled TransactionStatus = "dibatalkan"
	StatusReturned  TransactionStatus = "dikembalikan"
)

func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	switch st := TransactionStatus(s); st {
	case StatusShipping, StatusCompleted, StatusCancelled, StatusReturned:
		return st, true
	}
	return "", false
}

// Transaction is one sale of a quantity of a product from seller to buyer.
// TotalPrice and Profit are snapshots taken at sale time.
type Transaction struct {
	BaseModel
	ProductID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product          `json:"product,omitempty"`
	SellerID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"seller_id"`
	Seller     *User             `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	BuyerID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Buyer      *User             `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Quantity   int               `gorm:"not null;check:quantity > 0" json:"quantity"`
	TotalPrice decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"total_price"`
	Profit     decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"profit"`
	Status     TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
}
