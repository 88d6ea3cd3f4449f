package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvarela/coldtrack/internal/model"
)

var formCols = []string{
	"id", "form_number", "destination", "defrost_date", "production_date", "status",
	"created_by_user_id", "cu.name", "reviewed_by_user_id", "ru.name", "reviewed_at",
	"review_notes", "created_by_signature", "reviewed_by_signature", "observations",
	"created_at", "updated_at",
}

func TestFormCreateAssignsDayScopedNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM forms`).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(4))
	mock.ExpectExec(`INSERT INTO forms`).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	f := model.Form{Destination: "Warehouse North", CreatedByUserID: 7}
	require.NoError(t, repo.Create(context.Background(), &f))

	assert.Equal(t, uint64(42), f.ID)
	assert.Equal(t, model.StatusDraft, f.Status)
	want := fmt.Sprintf("TEMP-%s-0005", time.Now().UTC().Format("20060102"))
	assert.Equal(t, want, f.FormNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormCreateRetriesOnceOnDuplicateNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM forms`).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO forms`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry for key 'uq_forms_number'"))
	mock.ExpectExec(`INSERT INTO forms`).
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectCommit()

	f := model.Form{Destination: "Warehouse North", CreatedByUserID: 7}
	require.NoError(t, repo.Create(context.Background(), &f))

	want := fmt.Sprintf("TEMP-%s-0002", time.Now().UTC().Format("20060102"))
	assert.Equal(t, want, f.FormNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormListWithFilters(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM forms f WHERE f.is_deleted=0 AND f.status=\? AND f.destination LIKE \?`).
		WithArgs(model.StatusCompleted, "%North%").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectQuery(`SELECT .+ FROM forms f .+ ORDER BY f.created_at DESC LIMIT \? OFFSET \?`).
		WithArgs(model.StatusCompleted, "%North%", 20, 0).
		WillReturnRows(sqlmock.NewRows(formCols).
			AddRow(42, "TEMP-20260301-0001", "Warehouse North", now, now, model.StatusCompleted,
				7, "Ana Operator", nil, nil, nil, nil, nil, nil, nil, now, now))

	items, total, err := repo.List(context.Background(), FormFilter{
		Status:      model.StatusCompleted,
		Destination: "North",
		Page:        1,
		PageSize:    20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "TEMP-20260301-0001", items[0].FormNumber)
	assert.Equal(t, "Ana Operator", items[0].CreatedByUserName)
	assert.Nil(t, items[0].ReviewedByUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormListUnfiltered(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM forms f WHERE f\.is_deleted=0$`).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	mock.ExpectQuery(`SELECT .+ FROM forms f .+ WHERE f\.is_deleted=0 ORDER BY f.created_at DESC LIMIT \? OFFSET \?`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(formCols).
			AddRow(1, "TEMP-20260301-0001", "Warehouse North", now, now, model.StatusDraft,
				7, "Ana Operator", nil, nil, nil, nil, nil, nil, nil, now, now).
			AddRow(2, "TEMP-20260301-0002", "Warehouse South", now, now, model.StatusDraft,
				7, "Ana Operator", nil, nil, nil, nil, nil, nil, nil, now, now))

	items, total, err := repo.List(context.Background(), FormFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormGetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM forms f`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(formCols))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormReviewStampsReviewer(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	notes := "looks good"
	mock.ExpectExec(`UPDATE forms SET status=\?, reviewed_by_user_id=\?, reviewed_at=UTC_TIMESTAMP\(\)`).
		WithArgs(model.StatusReviewed, 3, &notes, nil, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Review(context.Background(), 42, model.StatusReviewed, 3, &notes, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormHardDeleteRefusedWithRecords(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM records WHERE form_id=\?`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))

	err := repo.HardDelete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrHasRecords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormHardDeleteEmptyForm(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewFormRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM records WHERE form_id=\?`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec(`DELETE FROM forms WHERE id=\?`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.HardDelete(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
