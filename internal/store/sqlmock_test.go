package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alextreichler/shop2host/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestGetUserByEmail_DBError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE email = \?`).
		WithArgs("a@example.com").
		WillReturnError(errors.New("db down"))

	_, err := s.GetUserByEmail(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get user: db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_PostgresUniqueViolationIsConflict(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`(?s)INSERT INTO users .* RETURNING id`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := s.CreateUser(context.Background(), &models.User{Name: "A", Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_OtherErrorsAreWrapped(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`(?s)INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23502"})

	err := s.CreateUser(context.Background(), &models.User{Name: "A", Email: "a@example.com", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "insert user")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmail_NoRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`(?s)UPDATE users SET verified = \?, verification_token = NULL\s+WHERE email = \? AND verification_token = \?`).
		WithArgs(true, "a@example.com", "tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.VerifyEmail(context.Background(), "a@example.com", "tok")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeOrder_RollsBackWhenOrderInsertFails(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders WHERE order_id = \?`).
		WithArgs("order_1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`(?s)INSERT INTO stores .* ON CONFLICT \(user_id, name\) DO NOTHING\s+RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery(`(?s)INSERT INTO orders`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.FinalizeOrder(context.Background(), &models.Store{UserID: 1, Name: "Acme"}, sampleOrder("order_1", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStore_ConflictFallsBackToLookup(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`(?s)INSERT INTO stores`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id FROM stores WHERE user_id = \? AND name = \?`).
		WithArgs(int64(1), "Acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	res, err := s.UpsertStore(context.Background(), &models.Store{UserID: 1, Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{StoreID: 42, Created: false}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardStats_PropagatesErrors(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnError(errors.New("boom"))

	_, err := s.GetDashboardStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count users")
}
