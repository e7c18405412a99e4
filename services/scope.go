package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"retentionflow-backend/models"
)

// Scope is the caller identity every client-facing query is filtered by.
// A caller sees its own clients and, when it belongs to a team, the team's.
type Scope struct {
	AccountID uuid.UUID
	TeamID    *uuid.UUID
	Role      models.Role
	Email     string
}

// ScopeFor builds the scope of a loaded profile.
func ScopeFor(p *models.Profile) Scope {
	return Scope{AccountID: p.ID, TeamID: p.TeamID, Role: p.Role, Email: p.Email}
}

// Clients is a gorm scope restricting the clients table to what s may see.
func (s Scope) Clients(db *gorm.DB) *gorm.DB {
	if s.TeamID != nil {
		return db.Where("clients.profile_id = ? OR clients.team_id = ?", s.AccountID, *s.TeamID)
	}
	return db.Where("clients.profile_id = ?", s.AccountID)
}

// Owns reports whether c was created by the caller.
func (s Scope) Owns(c *models.Client) bool {
	return c.ProfileID == s.AccountID
}

// CanSee reports whether c is visible to the caller.
func (s Scope) CanSee(c *models.Client) bool {
	if s.Owns(c) {
		return true
	}
	return s.TeamID != nil && c.TeamID != nil && *c.TeamID == *s.TeamID
}
