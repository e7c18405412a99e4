package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retentionflow-backend/models"
)

func newRuleService(t *testing.T) (*RuleService, sqlmock.Sqlmock) {
	db, mock := newMockDB(t)
	authz, err := NewAuthorizer()
	require.NoError(t, err)
	return NewRuleService(db, authz), mock
}

var ownerScope = Scope{Role: models.RoleOwner}

func TestRuleServiceDeleteRejectsCategoryInUse(t *testing.T) {
	svc, mock := newRuleService(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients"`).
		WithArgs("Color").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err := svc.Delete(context.Background(), ownerScope, "Color")
	assert.ErrorIs(t, err, ErrServiceTypeInUse)
	assert.Contains(t, err.Error(), `cannot delete service type "Color"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleServiceDelete(t *testing.T) {
	svc, mock := newRuleService(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM "service_rules"`).
		WithArgs("Color").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Delete(context.Background(), ownerScope, "Color"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleServiceDeleteMissing(t *testing.T) {
	svc, mock := newRuleService(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM "service_rules"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, svc.Delete(context.Background(), ownerScope, "Perm"), ErrNotFound)
}

func TestRuleServiceDeleteForeignKeyRace(t *testing.T) {
	svc, mock := newRuleService(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM "service_rules"`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	assert.ErrorIs(t, svc.Delete(context.Background(), ownerScope, "Color"), ErrServiceTypeInUse)
}

func TestRuleServiceCreateDuplicate(t *testing.T) {
	svc, mock := newRuleService(t)
	mock.ExpectExec(`INSERT INTO "service_rules"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.Create(context.Background(), ownerScope, RuleInput{ServiceType: "Color", IntervalDays: 42})
	assert.ErrorIs(t, err, ErrDuplicateServiceType)
	assert.NotErrorIs(t, err, ErrServiceTypeInUse)
}

func TestRuleServiceValidationAndRoles(t *testing.T) {
	svc, mock := newRuleService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ownerScope, RuleInput{ServiceType: "Color", IntervalDays: 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, ownerScope, RuleInput{ServiceType: "  ", IntervalDays: 30})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, Scope{Role: models.RoleStylist}, RuleInput{ServiceType: "Color", IntervalDays: 30})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Update(ctx, ownerScope, "Color", RuleInput{IntervalDays: -1})
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, Scope{Role: models.RoleStylist}, "Color"), ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleServiceTable(t *testing.T) {
	svc, mock := newRuleService(t)
	mock.ExpectQuery(`SELECT \* FROM "service_rules" ORDER BY service_type`).
		WillReturnRows(sqlmock.NewRows([]string{"service_type", "interval_days"}).
			AddRow("Color", 42).
			AddRow("Haircut", 30))

	table, err := svc.Table(context.Background())
	require.NoError(t, err)
	days, ok := table.Interval("Color")
	assert.True(t, ok)
	assert.Equal(t, 42, days)
	assert.Equal(t, 30, table.ExpectedInterval("Perm"))
}
