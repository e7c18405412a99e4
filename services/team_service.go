package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"retentionflow-backend/models"
	"retentionflow-backend/utils"
)

type InvitationInput struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// CreatedInvitation carries the one-time token. Only its hash is stored.
type CreatedInvitation struct {
	models.TeamInvitation
	Token string `json:"token"`
}

type TeamService struct {
	db    *gorm.DB
	authz *Authorizer
	ttl   time.Duration
	now   func() time.Time
}

func NewTeamService(db *gorm.DB, authz *Authorizer, invitationTTL time.Duration) *TeamService {
	if invitationTTL <= 0 {
		invitationTTL = 7 * 24 * time.Hour
	}
	return &TeamService{db: db, authz: authz, ttl: invitationTTL, now: time.Now}
}

// EnsureProfile returns the profile of an authenticated account, creating
// it as a solo owner on first sight.
func (s *TeamService) EnsureProfile(ctx context.Context, accountID uuid.UUID, email string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).
		Where(models.Profile{ID: accountID}).
		Attrs(models.Profile{Email: email, Role: models.RoleOwner}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if email != "" && profile.Email != email {
		profile.Email = email
		if err := s.db.WithContext(ctx).Model(&profile).Update("email", email).Error; err != nil {
			log.Warn().Err(err).Str("account_id", accountID.String()).Msg("Failed to refresh profile email")
		}
	}
	return &profile, nil
}

func (s *TeamService) Team(ctx context.Context, scope Scope) (*models.Team, error) {
	if scope.TeamID == nil {
		return nil, ErrNotFound
	}
	var team models.Team
	err := s.db.WithContext(ctx).First(&team, "id = ?", *scope.TeamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	return &team, nil
}

// CreateTeam makes the caller owner of a new team. Clients the caller
// already has become visible to the team.
func (s *TeamService) CreateTeam(ctx context.Context, scope Scope, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidation)
	}
	if scope.TeamID != nil {
		return nil, fmt.Errorf("%w: already a member of a team", ErrValidation)
	}

	team := models.Team{Name: name, OwnerID: scope.AccountID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		err := tx.Model(&models.Profile{}).Where("id = ?", scope.AccountID).Updates(map[string]interface{}{
			"team_id":    team.ID,
			"role":       models.RoleOwner,
			"salon_name": name,
		}).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Client{}).
			Where("profile_id = ? AND team_id IS NULL", scope.AccountID).
			Update("team_id", team.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return &team, nil
}

func (s *TeamService) Members(ctx context.Context, scope Scope) ([]models.Profile, error) {
	if scope.TeamID == nil {
		return []models.Profile{}, nil
	}
	var members []models.Profile
	err := s.db.WithContext(ctx).Where("team_id = ?", *scope.TeamID).Order("created_at").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

func (s *TeamService) CreateInvitation(ctx context.Context, scope Scope, in InvitationInput) (*CreatedInvitation, error) {
	if err := s.authz.Allow(scope.Role, ResourceTeam, ActionManage); err != nil {
		return nil, err
	}
	if scope.TeamID == nil {
		return nil, fmt.Errorf("%w: create a team before inviting members", ErrValidation)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	role := in.Role
	if role == "" {
		role = models.RoleStylist
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	token, err := utils.RandomToken(24)
	if err != nil {
		return nil, fmt.Errorf("generate invitation token: %w", err)
	}
	hash, err := utils.HashToken(token)
	if err != nil {
		return nil, fmt.Errorf("hash invitation token: %w", err)
	}

	now := s.now()
	inv := models.TeamInvitation{
		TeamID:    *scope.TeamID,
		Email:     email,
		Role:      role,
		InvitedBy: scope.AccountID,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	return &CreatedInvitation{TeamInvitation: inv, Token: token}, nil
}

// PendingInvitations lists unaccepted, unexpired invitations of the team,
// newest first.
func (s *TeamService) PendingInvitations(ctx context.Context, scope Scope) ([]models.TeamInvitation, error) {
	if scope.TeamID == nil {
		return []models.TeamInvitation{}, nil
	}
	var invitations []models.TeamInvitation
	err := s.db.WithContext(ctx).
		Where("team_id = ? AND accepted_at IS NULL AND expires_at > ?", *scope.TeamID, s.now()).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// AcceptInvitation joins the caller to the inviting team. The caller's email
// must match the invitation and the token must match its stored hash.
func (s *TeamService) AcceptInvitation(ctx context.Context, scope Scope, invitationID uuid.UUID, token string) (*models.Profile, error) {
	var inv models.TeamInvitation
	err := s.db.WithContext(ctx).First(&inv, "id = ?", invitationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("load invitation: %w", err)
	}

	now := s.now()
	switch {
	case !strings.EqualFold(inv.Email, scope.Email):
		return nil, fmt.Errorf("%w: invitation email does not match", ErrInvitationInvalid)
	case !inv.Pending(now):
		return nil, fmt.Errorf("%w: invitation has expired or was already used", ErrInvitationInvalid)
	case !utils.CheckTokenHash(token, inv.TokenHash):
		return nil, ErrInvitationInvalid
	}

	var profile models.Profile
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TeamInvitation{}).
			Where("id = ? AND accepted_at IS NULL", inv.ID).
			Update("accepted_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvitationInvalid
		}
		err := tx.Model(&models.Profile{}).Where("id = ?", scope.AccountID).Updates(map[string]interface{}{
			"team_id": inv.TeamID,
			"role":    inv.Role,
		}).Error
		if err != nil {
			return err
		}
		return tx.First(&profile, "id = ?", scope.AccountID).Error
	})
	if err != nil {
		if errors.Is(err, ErrInvitationInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	return &profile, nil
}

// RemoveMember detaches a member from the owner's team and resets them to a
// solo owner account.
func (s *TeamService) RemoveMember(ctx context.Context, scope Scope, memberID uuid.UUID) error {
	if err := s.authz.Allow(scope.Role, ResourceTeam, ActionManage); err != nil {
		return err
	}
	if scope.TeamID == nil {
		return ErrNotFound
	}
	if memberID == scope.AccountID {
		return fmt.Errorf("%w: owners cannot remove themselves", ErrValidation)
	}

	res := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND team_id = ?", memberID, *scope.TeamID).
		Updates(map[string]interface{}{"team_id": nil, "role": models.RoleOwner})
	if res.Error != nil {
		return fmt.Errorf("remove member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
