package models

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to exactly one conversation. It carries a text body, an
// image URL, or both; after insert the only mutation ever applied is the
// read flag. Individual messages are never deleted, only the conversation
// cascade removes them.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uint      `gorm:"not null" json:"sender_id"`
	Body           string    `json:"body,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	ThumbnailURL   string    `json:"thumbnail_url,omitempty"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// Empty reports whether the message carries no content at all.
func (m *Message) Empty() bool {
	return m.Body == "" && m.ImageURL == ""
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}
