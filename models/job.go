package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusOpen      = "open"
	JobStatusAssigned  = "assigned"
	JobStatusCompleted = "completed"
)

// Job is a homeowner's work posting. Open jobs are the "leads" tradies see.
// AssignedTradieID is nil while the job is unassigned; the messaging access
// gate reads it on every evaluation.
type Job struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HomeownerID      uint      `gorm:"not null;index" json:"homeowner_id"`
	Homeowner        User      `gorm:"foreignKey:HomeownerID" json:"-"`
	Title            string    `json:"title" binding:"required"`
	Description      string    `json:"description"`
	Suburb           string    `json:"suburb"`
	Status           string    `gorm:"default:open" json:"status"`
	AssignedTradieID *uint     `gorm:"index" json:"assigned_tradie_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AssignedTo reports whether the job is currently assigned to the given user.
func (j *Job) AssignedTo(userID uint) bool {
	return j.AssignedTradieID != nil && *j.AssignedTradieID == userID
}

// Unassigned reports whether no tradie has been given the job yet.
func (j *Job) Unassigned() bool {
	return j.AssignedTradieID == nil
}

type CreateJobRequest struct {
	Title       string `json:"title" binding:"required,min=2"`
	Description string `json:"description"`
	Suburb      string `json:"suburb"`
}
