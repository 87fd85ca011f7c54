package service

import (
	"context"
	"time"

	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
)

// NotificationRetention is how long a read notification survives after its last update.
const NotificationRetention = 3 * 24 * time.Hour

type NotificationService interface {
	List(ctx context.Context, receiverID uuid.UUID) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, receiverID uuid.UUID) (int64, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo, now: time.Now}
}

// List sweeps expired rows first so callers never see them.
func (s *notificationService) List(ctx context.Context, receiverID uuid.UUID) ([]model.Notification, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListByReceiver(ctx, receiverID)
}

// MarkRead returns 1 when the notification flipped to read, 0 when it was
// already read or does not belong to receiverID.
func (s *notificationService) MarkRead(ctx context.Context, id, receiverID uuid.UUID) (int64, error) {
	return s.repo.MarkRead(ctx, id, receiverID)
}

func (s *notificationService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteReadBefore(ctx, s.now().Add(-NotificationRetention))
}
