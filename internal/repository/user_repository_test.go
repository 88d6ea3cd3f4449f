package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nvarela/coldtrack/internal/model"
)

var userCols = []string{
	"id", "name", "email", "password_hash", "role", "is_active",
	"last_login_at", "created_at", "updated_at",
}

func TestUserCreateNormalizesEmailAndHashesPassword(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("Ana Operator", "ana.op@example.com", sqlmock.AnyArg(), model.RoleOperator).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := NewUserRepo(db).Create(context.Background(),
		"Ana Operator", "  Ana.Op@Example.COM ", "s3cretpass", model.RoleOperator, bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ana.op@example.com' for key 'users.email'"))

	_, err := NewUserRepo(db).Create(context.Background(),
		"Ana Operator", "ana.op@example.com", "s3cretpass", model.RoleOperator, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByEmailNormalizesLookup(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\? AND is_deleted=0`).
		WithArgs("ana.op@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(7, "Ana Operator", "ana.op@example.com", "$2a$04$hash", model.RoleOperator,
				true, nil, now, now))

	u, err := NewUserRepo(db).GetByEmail(context.Background(), " Ana.Op@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, model.RoleOperator, u.Role)
	assert.Nil(t, u.LastLoginAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id=\? AND is_deleted=0`).
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := NewUserRepo(db).GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
