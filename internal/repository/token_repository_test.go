package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "1b4f0e9851971998e732078544c96b36c3d01cedf7caa332359d6f1d83567014"

func TestValidateRefreshActiveToken(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectQuery(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens`).
		WithArgs(testHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(time.Hour), nil))

	userID, err := repo.ValidateRefresh(context.Background(), testHash)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshExpiredToken(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectQuery(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens`).
		WithArgs(testHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(-time.Minute), nil))

	_, err := repo.ValidateRefresh(context.Background(), testHash)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshRevokedToken(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectQuery(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens`).
		WithArgs(testHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(time.Hour), time.Now().UTC()))

	_, err := repo.ValidateRefresh(context.Background(), testHash)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeByHashOnlyTouchesActiveRows(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewTokenRepo(db)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP\(\) WHERE token_hash=\? AND revoked_at IS NULL`).
		WithArgs(testHash).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.RevokeByHash(context.Background(), testHash))
	assert.NoError(t, mock.ExpectationsWereMet())
}
