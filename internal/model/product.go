package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultPosition = "not set"

// Product is a stock line owned by one user. Names are unique per owner among
// live rows; deleted rows are kept so old transactions still resolve.
type Product struct {
	BaseModel
	UserID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_owner_name,where:deleted_at IS NULL" json:"user_id"`
	Owner         *User           `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Name          string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_products_owner_name,where:deleted_at IS NULL" json:"name"`
	Category      string          `gorm:"type:varchar(100);not null" json:"category"`
	ProductPrice  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"product_price"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"purchase_price"`
	HET           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"het"`
	Quantity      int             `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	ExpiredDate   *time.Time      `json:"expired_date,omitempty"`
	Position      string          `gorm:"type:varchar(100);not null;default:'not set'" json:"position"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"` // Soft Delete support
}
