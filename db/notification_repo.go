package db

import (
	"github.com/google/uuid"
	"github.com/locentra/locentra-api/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// NotificationRepository interface
type NotificationRepository interface {
	CreateNotification(n *models.Notification) error
	ListNotifications(userID uint) ([]models.Notification, error)
	MarkNotificationRead(id uuid.UUID, userID uint) error
	DeleteNotification(id uuid.UUID, userID uint) error
}

type notificationRepo struct {
	DB *gorm.DB
}

func NewNotificationRepo(db *GormDB) NotificationRepository {
	return &notificationRepo{db.DB}
}

func (r *notificationRepo) CreateNotification(n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if err := r.DB.Create(n).Error; err != nil {
		return errors.Wrap(err, "gorm.create error")
	}
	return nil
}

func (r *notificationRepo) ListNotifications(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&notifications).Error
	if err != nil {
		return nil, errors.Wrap(err, "gorm.find error")
	}
	return notifications, nil
}

// MarkNotificationRead only flips rows owned by the caller.
func (r *notificationRepo) MarkNotificationRead(id uuid.UUID, userID uint) error {
	err := r.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
	return errors.Wrap(err, "gorm.update error")
}

// DeleteNotification is a unilateral hard delete by the viewing user.
func (r *notificationRepo) DeleteNotification(id uuid.UUID, userID uint) error {
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{}).Error
	return errors.Wrap(err, "gorm.delete error")
}
