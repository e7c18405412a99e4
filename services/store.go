package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"retentionflow-backend/models"
	"retentionflow-backend/retention"
)

// FollowupStore is the persistence surface of the followup lifecycle.
type FollowupStore interface {
	ClientsDueOn(ctx context.Context, day time.Time) ([]models.Client, error)
	OverdueClientIDs(ctx context.Context, today time.Time) ([]uuid.UUID, error)
	HasActiveFollowup(ctx context.Context, clientID uuid.UUID) (bool, error)
	// CreateFollowup returns ErrActiveFollowupExists when the client already
	// has a pending or overdue followup.
	CreateFollowup(ctx context.Context, f *models.Followup) error
	PromoteToOverdue(ctx context.Context, clientIDs []uuid.UUID) (int64, error)
	// MarkSent moves the active followup of a client to sent, or records a
	// new sent followup when there is none.
	MarkSent(ctx context.Context, clientID uuid.UUID, typ models.FollowupType, at time.Time) (*models.Followup, error)

	FindClient(ctx context.Context, scope Scope, clientID uuid.UUID) (*models.Client, error)
	ListFollowups(ctx context.Context, scope Scope, status models.FollowupStatus) ([]models.Followup, error)

	LogMessage(ctx context.Context, entry *models.MessageLog) error
	RecordRun(ctx context.Context, run *models.CycleRun) error
}

// GormFollowupStore implements FollowupStore on Postgres.
type GormFollowupStore struct {
	db *gorm.DB
}

func NewGormFollowupStore(db *gorm.DB) *GormFollowupStore {
	return &GormFollowupStore{db: db}
}

var activeStatuses = []models.FollowupStatus{models.FollowupPending, models.FollowupOverdue}

func (s *GormFollowupStore) ClientsDueOn(ctx context.Context, day time.Time) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.WithContext(ctx).
		Where("next_due = ?", day).
		Find(&clients).Error
	if err != nil {
		return nil, fmt.Errorf("list clients due on %s: %w", day.Format(time.DateOnly), err)
	}
	return clients, nil
}

func (s *GormFollowupStore) OverdueClientIDs(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("next_due < ?", today).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list overdue clients: %w", err)
	}
	return ids, nil
}

func (s *GormFollowupStore) HasActiveFollowup(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Followup{}).
		Where("client_id = ? AND status IN ?", clientID, activeStatuses).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check active followup: %w", err)
	}
	return count > 0, nil
}

func (s *GormFollowupStore) CreateFollowup(ctx context.Context, f *models.Followup) error {
	err := s.db.WithContext(ctx).Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrActiveFollowupExists
	}
	if err != nil {
		return fmt.Errorf("create followup: %w", err)
	}
	return nil
}

func (s *GormFollowupStore) PromoteToOverdue(ctx context.Context, clientIDs []uuid.UUID) (int64, error) {
	if len(clientIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Followup{}).
		Where("client_id IN ? AND status = ?", clientIDs, models.FollowupPending).
		Update("status", models.FollowupOverdue)
	if res.Error != nil {
		return 0, fmt.Errorf("promote followups to overdue: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormFollowupStore) MarkSent(ctx context.Context, clientID uuid.UUID, typ models.FollowupType, at time.Time) (*models.Followup, error) {
	var out models.Followup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("client_id = ? AND status IN ?", clientID, activeStatuses).
			Order("date_sent DESC").
			First(&out).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = models.Followup{ClientID: clientID, Type: typ, Status: models.FollowupSent, DateSent: at}
			return tx.Create(&out).Error
		case err != nil:
			return err
		}
		if !retention.CanTransition(out.Status, models.FollowupSent) {
			return fmt.Errorf("%w: followup %s is %s", ErrValidation, out.ID, out.Status)
		}
		out.Status = models.FollowupSent
		out.DateSent = at
		return tx.Model(&out).Updates(map[string]interface{}{
			"status":    out.Status,
			"date_sent": out.DateSent,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("mark followup sent: %w", err)
	}
	return &out, nil
}

func (s *GormFollowupStore) FindClient(ctx context.Context, scope Scope, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).Scopes(scope.Clients).
		Where("clients.id = ?", clientID).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &client, nil
}

func (s *GormFollowupStore) ListFollowups(ctx context.Context, scope Scope, status models.FollowupStatus) ([]models.Followup, error) {
	var followups []models.Followup
	q := s.db.WithContext(ctx).
		Joins("JOIN clients ON clients.id = followups.client_id").
		Scopes(scope.Clients)
	if status != "" {
		q = q.Where("followups.status = ?", status)
	}
	if err := q.Order("followups.date_sent DESC").Find(&followups).Error; err != nil {
		return nil, fmt.Errorf("list followups: %w", err)
	}
	return followups, nil
}

func (s *GormFollowupStore) LogMessage(ctx context.Context, entry *models.MessageLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormFollowupStore) RecordRun(ctx context.Context, run *models.CycleRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}
