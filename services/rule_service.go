package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"retentionflow-backend/models"
	"retentionflow-backend/retention"
)

type RuleInput struct {
	ServiceType  string `json:"service_type"`
	IntervalDays int    `json:"interval_days"`
}

// RuleService manages the service-interval table shared by every account.
type RuleService struct {
	db    *gorm.DB
	authz *Authorizer
}

func NewRuleService(db *gorm.DB, authz *Authorizer) *RuleService {
	return &RuleService{db: db, authz: authz}
}

func (s *RuleService) List(ctx context.Context) ([]models.ServiceRule, error) {
	var rules []models.ServiceRule
	if err := s.db.WithContext(ctx).Order("service_type").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("list service rules: %w", err)
	}
	return rules, nil
}

// Table loads the rules as the lookup used by due-date and analytics code.
func (s *RuleService) Table(ctx context.Context) (retention.RuleTable, error) {
	rules, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return retention.NewRuleTable(rules), nil
}

func (s *RuleService) interval(ctx context.Context, db *gorm.DB, serviceType string) (int, error) {
	var rule models.ServiceRule
	err := db.WithContext(ctx).Where("service_type = ?", serviceType).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: unknown service type %q", ErrValidation, serviceType)
	}
	if err != nil {
		return 0, fmt.Errorf("load service rule: %w", err)
	}
	return rule.IntervalDays, nil
}

func (s *RuleService) Create(ctx context.Context, scope Scope, in RuleInput) (*models.ServiceRule, error) {
	if err := s.authz.Allow(scope.Role, ResourceServiceRules, ActionWrite); err != nil {
		return nil, err
	}
	rule := models.ServiceRule{ServiceType: strings.TrimSpace(in.ServiceType), IntervalDays: in.IntervalDays}
	if err := validateRule(rule); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Create(&rule).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("%w: a service type named %q already exists", ErrDuplicateServiceType, rule.ServiceType)
	}
	if err != nil {
		return nil, fmt.Errorf("create service rule: %w", err)
	}
	return &rule, nil
}

// Update changes the interval and optionally renames the category. A new
// interval is applied to the next-due date of every client in the category
// within the same transaction. Renaming a category clients still use is
// rejected.
func (s *RuleService) Update(ctx context.Context, scope Scope, serviceType string, in RuleInput) (*models.ServiceRule, error) {
	if err := s.authz.Allow(scope.Role, ResourceServiceRules, ActionWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.ServiceType)
	if name == "" {
		name = serviceType
	}
	updated := models.ServiceRule{ServiceType: name, IntervalDays: in.IntervalDays}
	if err := validateRule(updated); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.ServiceRule
		if err := tx.Where("service_type = ?", serviceType).First(&current).Error; err != nil {
			return err
		}

		if name != serviceType {
			inUse, err := countClientsUsing(tx, serviceType)
			if err != nil {
				return err
			}
			if inUse > 0 {
				return fmt.Errorf("%w: cannot rename service type %q because it is in use by %d existing clients; reassign those clients first",
					ErrServiceTypeInUse, serviceType, inUse)
			}
		}

		res := tx.Model(&models.ServiceRule{}).
			Where("service_type = ?", serviceType).
			Updates(map[string]interface{}{"service_type": name, "interval_days": in.IntervalDays})
		if res.Error != nil {
			return res.Error
		}

		if current.IntervalDays != in.IntervalDays {
			err := tx.Model(&models.Client{}).
				Where("service_type = ? AND last_visit IS NOT NULL", name).
				Update("next_due", gorm.Expr("last_visit + CAST(? AS integer)", in.IntervalDays)).Error
			if err != nil {
				return err
			}
		}
		return tx.Where("service_type = ?", name).First(&updated).Error
	})
	if err != nil {
		return nil, translateRuleError(err, serviceType, "rename")
	}
	return &updated, nil
}

// Delete removes a category nobody references.
func (s *RuleService) Delete(ctx context.Context, scope Scope, serviceType string) error {
	if err := s.authz.Allow(scope.Role, ResourceServiceRules, ActionWrite); err != nil {
		return err
	}
	inUse, err := countClientsUsing(s.db.WithContext(ctx), serviceType)
	if err != nil {
		return fmt.Errorf("delete service rule: %w", err)
	}
	if inUse > 0 {
		return fmt.Errorf("%w: cannot delete service type %q because it is in use by %d existing clients; reassign or delete those clients first",
			ErrServiceTypeInUse, serviceType, inUse)
	}

	res := s.db.WithContext(ctx).Where("service_type = ?", serviceType).Delete(&models.ServiceRule{})
	if res.Error != nil {
		return translateRuleError(res.Error, serviceType, "delete")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func validateRule(rule models.ServiceRule) error {
	if rule.ServiceType == "" {
		return fmt.Errorf("%w: service type is required", ErrValidation)
	}
	if err := retention.ValidateInterval(rule.IntervalDays); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func countClientsUsing(db *gorm.DB, serviceType string) (int64, error) {
	var count int64
	err := db.Model(&models.Client{}).Where("service_type = ?", serviceType).Count(&count).Error
	return count, err
}

func translateRuleError(err error, serviceType, action string) error {
	switch {
	case errors.Is(err, ErrServiceTypeInUse), errors.Is(err, ErrValidation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: cannot %s service type %q because it is in use by existing clients",
			ErrServiceTypeInUse, action, serviceType)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: a service type with that name already exists", ErrDuplicateServiceType)
	}
	return fmt.Errorf("%s service rule: %w", action, err)
}
