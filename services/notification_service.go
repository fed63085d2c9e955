package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/locentra/locentra-api/db"
	"github.com/locentra/locentra-api/metrics"
	"github.com/locentra/locentra-api/models"
	"github.com/locentra/locentra-api/realtime"
)

// NotificationService persists notification rows and pushes them to the
// owner's live feed connection, when one exists.
type NotificationService interface {
	Notify(n *models.Notification) error
	ListNotifications(session models.AuthSession) ([]models.Notification, error)
	MarkRead(session models.AuthSession, id uuid.UUID) error
	Delete(session models.AuthSession, id uuid.UUID) error
}

type notificationService struct {
	notificationRepo db.NotificationRepository
	feed             *realtime.Hub
}

func NewNotificationService(notificationRepo db.NotificationRepository, feed *realtime.Hub) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		feed:             feed,
	}
}

// Notify inserts the row, then pushes it over the change feed. The push is
// best effort: an offline user reads the row on their next fetch.
func (s *notificationService) Notify(n *models.Notification) error {
	if err := s.notificationRepo.CreateNotification(n); err != nil {
		return err
	}
	metrics.NotificationsCreated.Inc()

	if s.feed != nil {
		s.feed.NotifyUser(n.UserID, n)
	} else {
		log.Printf("notification feed not wired; row %s stored only", n.ID)
	}
	return nil
}

func (s *notificationService) ListNotifications(session models.AuthSession) ([]models.Notification, error) {
	return s.notificationRepo.ListNotifications(session.UserID)
}

func (s *notificationService) MarkRead(session models.AuthSession, id uuid.UUID) error {
	return s.notificationRepo.MarkNotificationRead(id, session.UserID)
}

func (s *notificationService) Delete(session models.AuthSession, id uuid.UUID) error {
	return s.notificationRepo.DeleteNotification(id, session.UserID)
}
