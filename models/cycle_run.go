package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CycleRun is the persisted outcome of one daily followup cycle.
type CycleRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RunDate    time.Time      `gorm:"type:date;index;not null" json:"run_date"`
	Phases     string         `gorm:"type:varchar(32)" json:"phases"`
	Success    bool           `json:"success"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Summary    datatypes.JSON `gorm:"type:jsonb" json:"summary"`
	StartedAt  time.Time      `json:"started_at"`
}

func (r *CycleRun) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
