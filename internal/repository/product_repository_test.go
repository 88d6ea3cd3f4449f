package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvarela/coldtrack/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

var productCols = []string{
	"id", "product_code", "product_name", "min_temperature", "max_temperature",
	"max_defrost_time_minutes", "description", "category", "is_active", "created_at", "updated_at",
}

func TestProductCreateUppercasesCode(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	mock.ExpectExec(`INSERT INTO products`).
		WithArgs("FISH-01", "Frozen cod", -25.0, -10.0, 120, nil, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))

	p := model.Product{
		ProductCode:           " fish-01 ",
		ProductName:           "Frozen cod",
		MinTemperature:        -25,
		MaxTemperature:        -10,
		MaxDefrostTimeMinutes: 120,
	}
	require.NoError(t, repo.Create(context.Background(), &p))
	assert.Equal(t, uint64(11), p.ID)
	assert.Equal(t, "FISH-01", p.ProductCode)
	assert.True(t, p.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCreateDuplicateCode(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	mock.ExpectExec(`INSERT INTO products`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'FISH-01' for key 'uq_products_code'"))

	p := model.Product{ProductCode: "FISH-01", ProductName: "Frozen cod", MinTemperature: -25, MaxTemperature: -10, MaxDefrostTimeMinutes: 120}
	err := repo.Create(context.Background(), &p)
	assert.ErrorIs(t, err, ErrCodeExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductGetByCode(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM products WHERE product_code=\?`).
		WithArgs("FISH-01").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(11, "FISH-01", "Frozen cod", -25.0, -10.0, 120, nil, "Seafood", true, now, now))

	p, err := repo.GetByCode(context.Background(), "fish-01")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), p.ID)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Seafood", *p.Category)
	assert.Nil(t, p.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductGetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM products WHERE id=\?`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductUpdateMissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	mock.ExpectExec(`UPDATE products SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	p := model.Product{ID: 99, ProductCode: "FISH-01", ProductName: "Frozen cod", MinTemperature: -25, MaxTemperature: -10, MaxDefrostTimeMinutes: 120}
	err := repo.Update(context.Background(), &p)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductListActiveFilter(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM products WHERE is_deleted=0 AND is_active=\? ORDER BY product_code`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(1, "BEEF-02", "Beef", -20.0, -5.0, 240, nil, nil, true, now, now).
			AddRow(2, "FISH-01", "Frozen cod", -25.0, -10.0, 120, nil, nil, true, now, now))

	active := true
	items, err := repo.List(context.Background(), &active)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "BEEF-02", items[0].ProductCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductHasRecords(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	repo := NewProductRepo(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM records WHERE product_id=\?`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))

	referenced, err := repo.HasRecords(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, referenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}
