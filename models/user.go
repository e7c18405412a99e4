package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleStylist Role = "stylist"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleStylist
}

// Profile is the local record of an account managed by the hosted auth
// provider. ID is the provider's subject claim.
type Profile struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string     `gorm:"index" json:"email"`
	Role      Role       `gorm:"type:varchar(20);not null" json:"role"`
	SalonName *string    `json:"salon_name"`
	TeamID    *uuid.UUID `gorm:"type:uuid;index" json:"team_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
