package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a salon client tracked for rebooking. NextDue is always derived
// from LastVisit and the interval of ServiceType; it is never written from input.
type Client struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID uuid.UUID  `gorm:"type:uuid;index;not null" json:"profile_id"`
	TeamID    *uuid.UUID `gorm:"type:uuid;index" json:"team_id"`

	Name        string     `gorm:"not null" json:"name"`
	Phone       string     `gorm:"not null" json:"phone"`
	ServiceType string     `gorm:"not null;index" json:"service_type"`
	LastVisit   *time.Time `gorm:"type:date" json:"last_visit"`
	NextDue     *time.Time `gorm:"type:date;index" json:"next_due"`
	Stylist     *string    `json:"stylist"`
	Notes       *string    `json:"notes"`

	ServiceRule *ServiceRule `gorm:"foreignKey:ServiceType;references:ServiceType;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	Followups   []Followup   `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// StylistName returns the assigned stylist or "" when none is set.
func (c *Client) StylistName() string {
	if c.Stylist == nil {
		return ""
	}
	return *c.Stylist
}
