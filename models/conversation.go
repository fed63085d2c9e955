package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation pairs one homeowner and one tradie around a specific job.
// Only those two participants may read or write it. Deleting a conversation
// is unilateral and hard-deletes its messages with it.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HomeownerID uint      `gorm:"not null;index" json:"homeowner_id"`
	TradieID    uint      `gorm:"not null;index" json:"tradie_id"`
	JobID       uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	LastMessage string    `json:"last_message"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Participant reports whether the given user is one of the two parties.
func (c *Conversation) Participant(userID uint) bool {
	return c.HomeownerID == userID || c.TradieID == userID
}

// CounterpartID returns the other party's user id.
func (c *Conversation) CounterpartID(userID uint) uint {
	if c.HomeownerID == userID {
		return c.TradieID
	}
	return c.HomeownerID
}

// ConversationSummary is the joined row the contact-list pane renders:
// the conversation plus job title and counterpart display fields.
type ConversationSummary struct {
	ID                uuid.UUID `json:"id"`
	JobID             uuid.UUID `json:"job_id"`
	JobTitle          string    `json:"job_title"`
	CounterpartID     uint      `json:"counterpart_id"`
	CounterpartName   string    `json:"counterpart_name"`
	CounterpartAvatar string    `json:"counterpart_avatar"`
	LastMessage       string    `json:"last_message"`
	UnreadCount       int64     `json:"unread_count"`
	UpdatedAt         time.Time `json:"updated_at"`
}
