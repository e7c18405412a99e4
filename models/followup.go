package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FollowupStatus string

const (
	FollowupPending FollowupStatus = "pending"
	FollowupOverdue FollowupStatus = "overdue"
	FollowupSent    FollowupStatus = "sent"
)

// Active reports whether the followup still awaits a reminder.
func (s FollowupStatus) Active() bool {
	return s == FollowupPending || s == FollowupOverdue
}

type FollowupType string

const (
	FollowupReminder FollowupType = "reminder"
	FollowupBirthday FollowupType = "birthday"
	FollowupReview   FollowupType = "review"
)

func (t FollowupType) Valid() bool {
	switch t {
	case FollowupReminder, FollowupBirthday, FollowupReview:
		return true
	}
	return false
}

// Followup tracks a single outreach attempt to a client.
// The partial unique index keeps at most one active followup per client.
type Followup struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_followups_active_client,where:status <> 'sent'" json:"client_id"`
	DateSent time.Time      `gorm:"not null" json:"date_sent"`
	Type     FollowupType   `gorm:"type:varchar(20);not null" json:"type"`
	Status   FollowupStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Followup) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}
