package models

import (
	"time"

	"gorm.io/gorm"
)

// Model is the base for soft-deletable entities keyed by auto-increment id.
// Rows that are hard-deleted (conversations, messages, notifications) do
// not embed it.
type Model struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
