package repository

import (
	"context"
	"time"

	"go-distribution-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository interface {
	Create(tx *gorm.DB, n *model.Notification) error
	ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, receiverID uuid.UUID) (int64, error)
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db}
}

func (r *notificationRepo) Create(tx *gorm.DB, n *model.Notification) error {
	return tx.Omit(clause.Associations).Create(n).Error
}

func (r *notificationRepo) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

// MarkRead only touches an unread notification owned by receiverID, so a
// repeated call reports 0.
func (r *notificationRepo) MarkRead(ctx context.Context, id, receiverID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND receiver_id = ? AND read_status = ?", id, receiverID, false).
		Update("read_status", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("read_status = ? AND updated_at < ?", true, before).
		Delete(&model.Notification{})
	return res.RowsAffected, res.Error
}
