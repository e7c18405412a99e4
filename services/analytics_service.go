package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"retentionflow-backend/models"
	"retentionflow-backend/retention"
	"retentionflow-backend/utils"
)

type Report struct {
	Retention        retention.RetentionStats   `json:"retention"`
	ServiceBreakdown []retention.ServiceStat    `json:"service_breakdown"`
	Stylists         []retention.StylistStat    `json:"stylist_performance"`
	MissedFollowups  []retention.MissedFollowup `json:"missed_followups"`
	GeneratedFor     string                     `json:"generated_for"`
}

// AnalyticsService loads the caller's records and runs the aggregators.
type AnalyticsService struct {
	db    *gorm.DB
	rules *RuleService
}

func NewAnalyticsService(db *gorm.DB, rules *RuleService) *AnalyticsService {
	return &AnalyticsService{db: db, rules: rules}
}

func (s *AnalyticsService) Report(ctx context.Context, scope Scope, today time.Time) (*Report, error) {
	if err := s.rules.authz.Allow(scope.Role, ResourceReports, ActionRead); err != nil {
		return nil, err
	}
	rules, err := s.rules.Table(ctx)
	if err != nil {
		return nil, err
	}

	var clients []models.Client
	if err := s.db.WithContext(ctx).Scopes(scope.Clients).Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("load clients for report: %w", err)
	}

	var sent []models.Followup
	err = s.db.WithContext(ctx).
		Joins("JOIN clients ON clients.id = followups.client_id").
		Scopes(scope.Clients).
		Where("followups.status = ?", models.FollowupSent).
		Find(&sent).Error
	if err != nil {
		return nil, fmt.Errorf("load followups for report: %w", err)
	}

	today = utils.DateOnly(today)
	return &Report{
		Retention:        retention.RetentionRate(clients, rules),
		ServiceBreakdown: retention.ServiceBreakdown(clients),
		Stylists:         retention.StylistPerformance(clients),
		MissedFollowups:  retention.MissedFollowups(clients, sent, today),
		GeneratedFor:     today.Format(time.DateOnly),
	}, nil
}
