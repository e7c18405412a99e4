// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageLog records a rendered reminder and where it was handed off.
// Delivery is never confirmed; Status only says whether the hand-off worked.
type MessageLog struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID    uuid.UUID    `gorm:"type:uuid;index;not null" json:"profile_id"`
	ClientID     uuid.UUID    `gorm:"type:uuid;index;not null" json:"client_id"`
	FollowupID   *uuid.UUID   `gorm:"type:uuid;index" json:"followup_id"`
	Type         FollowupType `gorm:"type:varchar(20)" json:"type"`
	Channel      string       `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	Message      string       `gorm:"type:text" json:"message"`
	Link         string       `gorm:"type:text" json:"link"`
	Status       string       `gorm:"type:varchar(20)" json:"status"` // opened, dispatched, failed
	ErrorMessage string       `gorm:"type:text" json:"error_message,omitempty"`
	ExternalID   string       `gorm:"type:varchar(64)" json:"external_id,omitempty"`
	SentAt       time.Time    `json:"sent_at"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (r *MessageLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
