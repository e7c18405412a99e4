package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"retentionflow-backend/models"
	"retentionflow-backend/retention"
	"retentionflow-backend/utils"
)

// ClientInput is what a caller may set on a client. The next-due date is
// not part of it; it is always derived.
type ClientInput struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	ServiceType string  `json:"service_type"`
	LastVisit   *string `json:"last_visit"`
	Stylist     *string `json:"stylist"`
	Notes       *string `json:"notes"`
}

type ClientFilter struct {
	Search      string
	ServiceType string
}

// DueClient is a client annotated with where it sits relative to today.
type DueClient struct {
	models.Client
	DaysUntilDue int              `json:"days_until_due"`
	Bucket       retention.Bucket `json:"bucket"`
}

type ClientService struct {
	db    *gorm.DB
	rules *RuleService
}

func NewClientService(db *gorm.DB, rules *RuleService) *ClientService {
	return &ClientService{db: db, rules: rules}
}

func (s *ClientService) authorize(scope Scope, action string) error {
	return s.rules.authz.Allow(scope.Role, ResourceClients, action)
}

func (s *ClientService) Create(ctx context.Context, scope Scope, in ClientInput) (*models.Client, error) {
	if err := s.authorize(scope, ActionWrite); err != nil {
		return nil, err
	}
	client := models.Client{ProfileID: scope.AccountID, TeamID: scope.TeamID}
	if err := s.apply(ctx, &client, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("%w: unknown service type %q", ErrValidation, client.ServiceType)
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &client, nil
}

func (s *ClientService) Get(ctx context.Context, scope Scope, id uuid.UUID) (*models.Client, error) {
	if err := s.authorize(scope, ActionRead); err != nil {
		return nil, err
	}
	var client models.Client
	err := s.db.WithContext(ctx).Scopes(scope.Clients).Where("clients.id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &client, nil
}

func (s *ClientService) List(ctx context.Context, scope Scope, filter ClientFilter) ([]models.Client, error) {
	if err := s.authorize(scope, ActionRead); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Scopes(scope.Clients)
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("(clients.name ILIKE ? OR clients.phone LIKE ?)", like, like)
	}
	if filter.ServiceType != "" {
		q = q.Where("clients.service_type = ?", filter.ServiceType)
	}

	var clients []models.Client
	if err := q.Order("clients.next_due ASC NULLS LAST").Order("clients.name").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

func (s *ClientService) Count(ctx context.Context, scope Scope) (int64, error) {
	if err := s.authorize(scope, ActionRead); err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Client{}).Scopes(scope.Clients).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return count, nil
}

// Update edits a client. When the derived next-due date moves, the still
// active followup of the previous cycle is retired so the daily run can open
// one for the new date.
func (s *ClientService) Update(ctx context.Context, scope Scope, id uuid.UUID, in ClientInput) (*models.Client, error) {
	if err := s.authorize(scope, ActionWrite); err != nil {
		return nil, err
	}
	client, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	prevDue := client.NextDue
	if err := s.apply(ctx, client, in); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(client).Select(
			"name", "phone", "service_type", "last_visit", "next_due", "stylist", "notes",
		).Updates(client).Error
		if err != nil || sameDay(prevDue, client.NextDue) {
			return err
		}
		return tx.Where("client_id = ? AND status IN ?", client.ID, activeStatuses).
			Delete(&models.Followup{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, fmt.Errorf("%w: unknown service type %q", ErrValidation, client.ServiceType)
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// Delete removes a client and its followups. Only the creating account may
// delete, even when the client is shared with a team.
func (s *ClientService) Delete(ctx context.Context, scope Scope, id uuid.UUID) error {
	if err := s.authorize(scope, ActionWrite); err != nil {
		return err
	}
	client, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if !scope.Owns(client) {
		return fmt.Errorf("%w: only the account that added this client can delete it", ErrForbidden)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", client.ID).Error; err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// Due lists clients whose next-due date is on or before today+window,
// overdue ones included, soonest first.
func (s *ClientService) Due(ctx context.Context, scope Scope, today time.Time, window int) ([]DueClient, error) {
	if err := s.authorize(scope, ActionRead); err != nil {
		return nil, err
	}
	if window < 0 {
		window = retention.DefaultDueSoonWindow
	}
	today = utils.DateOnly(today)
	limit := today.AddDate(0, 0, window)

	var clients []models.Client
	err := s.db.WithContext(ctx).Scopes(scope.Clients).
		Where("clients.next_due IS NOT NULL AND clients.next_due <= ?", limit).
		Order("clients.next_due ASC").Order("clients.name").
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("list due clients: %w", err)
	}

	return lo.Map(clients, func(c models.Client, _ int) DueClient {
		days := retention.DaysUntilDue(*c.NextDue, today)
		return DueClient{Client: c, DaysUntilDue: days, Bucket: retention.Classify(days, window)}
	}), nil
}

// apply validates in and copies it onto client, deriving next_due.
func (s *ClientService) apply(ctx context.Context, client *models.Client, in ClientInput) error {
	name := strings.TrimSpace(in.Name)
	serviceType := strings.TrimSpace(in.ServiceType)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case utils.IsEmpty(in.Phone):
		return fmt.Errorf("%w: phone is required", ErrValidation)
	case !utils.ValidatePhone(in.Phone):
		return fmt.Errorf("%w: invalid phone number format", ErrValidation)
	case serviceType == "":
		return fmt.Errorf("%w: service type is required", ErrValidation)
	}

	var lastVisit *time.Time
	if in.LastVisit != nil && !utils.IsEmpty(*in.LastVisit) {
		d, err := utils.ParseDate(strings.TrimSpace(*in.LastVisit))
		if err != nil {
			return fmt.Errorf("%w: last_visit must be YYYY-MM-DD", ErrValidation)
		}
		lastVisit = &d
	}

	interval, err := s.rules.interval(ctx, s.db, serviceType)
	if err != nil {
		return err
	}

	client.Name = name
	client.Phone = strings.TrimSpace(in.Phone)
	client.ServiceType = serviceType
	client.LastVisit = lastVisit
	client.NextDue = nil
	if lastVisit != nil {
		due := retention.ComputeNextDue(*lastVisit, interval)
		client.NextDue = &due
	}
	client.Stylist = trimmedOrNil(in.Stylist)
	client.Notes = trimmedOrNil(in.Notes)
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return utils.DateOnly(*a).Equal(utils.DateOnly(*b))
}
