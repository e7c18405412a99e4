package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retentionflow-backend/models"
)

var followupColumns = []string{"id", "client_id", "date_sent", "type", "status", "created_at", "updated_at"}

func TestGormStoreCreateFollowupDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormFollowupStore(db)
	mock.ExpectExec(`INSERT INTO "followups"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_followups_active_client"})

	err := store.CreateFollowup(context.Background(), &models.Followup{
		ClientID: uuid.New(), Type: models.FollowupReminder, Status: models.FollowupPending, DateSent: time.Now(),
	})
	assert.ErrorIs(t, err, ErrActiveFollowupExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreHasActiveFollowup(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormFollowupStore(db)
	id := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "followups" WHERE client_id = \$1 AND status IN \(\$2,\$3\)`).
		WithArgs(id.String(), "pending", "overdue").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := store.HasActiveFollowup(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStorePromoteOnlyPending(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormFollowupStore(db)
	a, b := uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE "followups" SET "status"=\$1,"updated_at"=\$2 WHERE client_id IN \(\$3,\$4\) AND status = \$5`).
		WithArgs("overdue", sqlmock.AnyArg(), a.String(), b.String(), "pending").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := store.PromoteToOverdue(context.Background(), []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = store.PromoteToOverdue(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreMarkSentUpdatesActive(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormFollowupStore(db)
	clientID, followupID := uuid.New(), uuid.New()
	created := time.Date(2025, 1, 31, 6, 0, 0, 0, time.UTC)
	at := time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "followups" WHERE client_id = \$1 AND status IN \(\$2,\$3\) ORDER BY date_sent DESC`).
		WillReturnRows(sqlmock.NewRows(followupColumns).
			AddRow(followupID.String(), clientID.String(), created, "reminder", "overdue", created, created))
	mock.ExpectExec(`UPDATE "followups" SET .*"status"=.* WHERE "id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	f, err := store.MarkSent(context.Background(), clientID, models.FollowupReminder, at)
	require.NoError(t, err)
	assert.Equal(t, followupID, f.ID)
	assert.Equal(t, models.FollowupSent, f.Status)
	assert.Equal(t, at, f.DateSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreMarkSentInsertsWhenNoneActive(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormFollowupStore(db)
	clientID := uuid.New()
	at := time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "followups" WHERE client_id = \$1 AND status IN \(\$2,\$3\)`).
		WillReturnRows(sqlmock.NewRows(followupColumns))
	mock.ExpectExec(`INSERT INTO "followups"`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	f, err := store.MarkSent(context.Background(), clientID, models.FollowupReview, at)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, f.ID)
	assert.Equal(t, clientID, f.ClientID)
	assert.Equal(t, models.FollowupReview, f.Type)
	assert.Equal(t, models.FollowupSent, f.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreMarkSentRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewGormFollowupStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "followups"`).WillReturnRows(sqlmock.NewRows(followupColumns))
	mock.ExpectExec(`INSERT INTO "followups"`).WillReturnError(errStoreDown)
	mock.ExpectRollback()

	_, err := store.MarkSent(context.Background(), uuid.New(), models.FollowupReminder, time.Now())
	assert.ErrorIs(t, err, errStoreDown)
	assert.NoError(t, mock.ExpectationsWereMet())
}
