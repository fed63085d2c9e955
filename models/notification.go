package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// RelatedKind discriminates what a notification points at.
type RelatedKind string

const (
	RelatedJob       RelatedKind = "job"
	RelatedMessage   RelatedKind = "message"
	RelatedHomeowner RelatedKind = "homeowner"
	RelatedSystem    RelatedKind = "system"
	RelatedReview    RelatedKind = "review"
)

// Notification is an in-app notice pushed to its user over the change feed.
// The related pointer is a tagged union: RelatedKind selects which of the
// typed reference columns is meaningful, the rest stay null. RelatedName and
// RelatedAvatarURL are denormalized for display.
type Notification struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Type             NotificationType `gorm:"default:info" json:"type"`
	IsRead           bool             `gorm:"default:false" json:"is_read"`
	RelatedKind      RelatedKind      `gorm:"default:system" json:"related_kind"`
	RelatedJobID     *uuid.UUID       `gorm:"type:uuid" json:"related_job_id,omitempty"`
	RelatedMessageID *uuid.UUID       `gorm:"type:uuid" json:"related_message_id,omitempty"`
	RelatedUserID    *uint            `json:"related_user_id,omitempty"`
	RelatedReviewID  *uuid.UUID       `gorm:"type:uuid" json:"related_review_id,omitempty"`
	RelatedName      string           `json:"related_name,omitempty"`
	RelatedAvatarURL string           `json:"related_avatar_url,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewMessageNotification builds the message-case notification.
func NewMessageNotification(userID uint, msg *Message, senderName, senderAvatar string) *Notification {
	id := msg.ID
	return &Notification{
		ID:               uuid.New(),
		UserID:           userID,
		Title:            "New message",
		Description:      senderName + " sent you a message",
		Type:             NotificationInfo,
		RelatedKind:      RelatedMessage,
		RelatedMessageID: &id,
		RelatedName:      senderName,
		RelatedAvatarURL: senderAvatar,
	}
}

// NewJobNotification builds the job-case notification.
func NewJobNotification(userID uint, jobID uuid.UUID, title, description string, typ NotificationType) *Notification {
	id := jobID
	return &Notification{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        title,
		Description:  description,
		Type:         typ,
		RelatedKind:  RelatedJob,
		RelatedJobID: &id,
	}
}

// NewSystemNotification builds the system-case notification, which carries
// no reference columns at all.
func NewSystemNotification(userID uint, title, description string, typ NotificationType) *Notification {
	return &Notification{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Type:        typ,
		RelatedKind: RelatedSystem,
	}
}
