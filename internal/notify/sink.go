// Package notify records notifications durably and pushes them to live clients.
package notify

import (
	"go-distribution-ws/internal/applog"
	"go-distribution-ws/internal/model"
	"go-distribution-ws/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const EventNotification = "notification"

// Publisher fans an event out to connected clients. Implementations must not block.
type Publisher interface {
	Emit(event string, payload interface{}) error
}

// Envelope is the wire shape of every live event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Sink struct {
	repo repository.NotificationRepository
	pub  Publisher
}

func NewSink(repo repository.NotificationRepository, pub Publisher) *Sink {
	return &Sink{repo: repo, pub: pub}
}

// Record stores a notification inside the caller's transaction so it commits
// or rolls back together with the change it describes.
func (s *Sink) Record(tx *gorm.DB, sender, receiver uuid.UUID, kind model.NotificationType) (*model.Notification, error) {
	n := &model.Notification{
		SenderID:   sender,
		ReceiverID: receiver,
		Type:       kind,
	}
	if err := s.repo.Create(tx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Push is best-effort: failures are logged and never reach the caller.
func (s *Sink) Push(n *model.Notification) {
	if n == nil || s.pub == nil {
		return
	}
	if err := s.pub.Emit(EventNotification, n); err != nil {
		applog.Warn(nil, "notification.push_failed", err, map[string]any{
			"notification_id": n.ID.String(),
			"type":            string(n.Type),
		})
	}
}
