package models

import "time"

// ServiceRule maps a service category to its expected return interval.
// Rules are shared by every account of the deployment.
type ServiceRule struct {
	ServiceType  string `gorm:"primaryKey" json:"service_type"`
	IntervalDays int    `gorm:"not null;check:interval_days >= 1" json:"interval_days"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
