package model

import "github.com/google/uuid"

type NotificationType string

const (
	NotifProductUpdated       NotificationType = "PRODUCT_UPDATED"
	NotifDebtUpdated          NotificationType = "DEBT_UPDATED"
	NotifTransactionCreated   NotificationType = "TRANSACTION_CREATED"
	NotifTransactionCompleted NotificationType = "TRANSACTION_COMPLETED"
)

// Notification is the durable record of an event. UpdatedAt doubles as the
// last-updated time used by the retention sweep.
type Notification struct {
	BaseModel
	SenderID   uuid.UUID        `gorm:"type:uuid;not null" json:"sender_id"`
	Sender     *User            `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID uuid.UUID        `gorm:"type:uuid;not null;index" json:"receiver_id"`
	Receiver   *User            `gorm:"foreignKey:ReceiverID" json:"-"`
	Type       NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	ReadStatus bool             `gorm:"not null;default:false;index" json:"read_status"`
}
