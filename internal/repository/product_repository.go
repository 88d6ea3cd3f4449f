package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/nvarela/coldtrack/internal/model"
)

// ProductRepo provides catalogue CRUD.  Products referenced by
// temperature records are soft-disabled instead of removed so old
// forms keep resolving their product names.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productColumns = `id,product_code,product_name,min_temperature,max_temperature,
	max_defrost_time_minutes,description,category,is_active,created_at,updated_at`

// Create inserts a product and populates its generated ID.  The code
// is stored trimmed and upper-cased.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	p.ProductCode = strings.ToUpper(strings.TrimSpace(p.ProductCode))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO products (product_code, product_name, min_temperature, max_temperature,
			max_defrost_time_minutes, description, category, is_active)
		 VALUES (?,?,?,?,?,?,?,1)`,
		p.ProductCode, p.ProductName, p.MinTemperature, p.MaxTemperature,
		p.MaxDefrostTimeMinutes, p.Description, p.Category)
	if err != nil {
		if isDuplicate(err) {
			return ErrCodeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.IsActive = true
	return nil
}

// Update rewrites all mutable columns of a product.  The handler is
// responsible for merging partial input into the loaded row first.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	p.ProductCode = strings.ToUpper(strings.TrimSpace(p.ProductCode))
	res, err := r.DB.ExecContext(ctx,
		`UPDATE products SET product_code=?, product_name=?, min_temperature=?, max_temperature=?,
			max_defrost_time_minutes=?, description=?, category=?, is_active=?
		 WHERE id=? AND is_deleted=0`,
		p.ProductCode, p.ProductName, p.MinTemperature, p.MaxTemperature,
		p.MaxDefrostTimeMinutes, p.Description, p.Category, p.IsActive, p.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrCodeExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a non-deleted product by id.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	return scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? AND is_deleted=0 LIMIT 1", id))
}

// GetByCode fetches a non-deleted product by its upper-cased code.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (model.Product, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE product_code=? AND is_deleted=0 LIMIT 1", code))
}

// List returns the catalogue ordered by product code.  When active is
// non-nil the result is filtered on the is_active flag.
func (r *ProductRepo) List(ctx context.Context, active *bool) ([]model.Product, error) {
	q := "SELECT " + productColumns + " FROM products WHERE is_deleted=0"
	args := []any{}
	if active != nil {
		q += " AND is_active=?"
		args = append(args, *active)
	}
	q += " ORDER BY product_code"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// HasRecords reports whether any temperature record references the
// product.  Soft-deleted records still count: the audit trail keeps
// pointing at the product.
func (r *ProductRepo) HasRecords(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE product_id=?", id).Scan(&n)
	return n > 0, err
}

// Deactivate soft-disables a product that is still referenced by
// records.
func (r *ProductRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE products SET is_active=0 WHERE id=? AND is_deleted=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks an unreferenced product as deleted.
func (r *ProductRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE products SET is_deleted=1, deleted_at=UTC_TIMESTAMP() WHERE id=? AND is_deleted=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProductInto(s rowScanner) (model.Product, error) {
	var (
		p           model.Product
		description sql.NullString
		category    sql.NullString
	)
	err := s.Scan(&p.ID, &p.ProductCode, &p.ProductName, &p.MinTemperature, &p.MaxTemperature,
		&p.MaxDefrostTimeMinutes, &description, &category, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Product{}, err
	}
	if description.Valid {
		v := description.String
		p.Description = &v
	}
	if category.Valid {
		v := category.String
		p.Category = &v
	}
	return p, nil
}

func scanProduct(row *sql.Row) (model.Product, error) {
	p, err := scanProductInto(row)
	if err == sql.ErrNoRows {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

func scanProductRows(rows *sql.Rows) (model.Product, error) {
	return scanProductInto(rows)
}
