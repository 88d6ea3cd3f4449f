package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nvarela/coldtrack/internal/model"
)

// RecordRepo owns per-car temperature records.  The range check that
// sets HasAlert happens in the handler before Create; this layer only
// persists.
type RecordRepo struct{ DB *sql.DB }

func NewRecordRepo(db *sql.DB) *RecordRepo { return &RecordRepo{DB: db} }

const recordColumns = `r.id, r.form_id, r.car_number, r.product_code, r.product_id, p.product_name,
	r.product_temperature, r.defrost_start_time, r.consumption_start_time, r.consumption_end_time,
	r.observations, r.record_order, r.has_alert, r.created_at, r.updated_at`

const recordJoins = ` FROM records r LEFT JOIN products p ON p.id = r.product_id`

// Create inserts a record and populates its generated ID.
func (r *RecordRepo) Create(ctx context.Context, rec *model.Record) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO records (form_id, car_number, product_code, product_id, product_temperature,
			defrost_start_time, consumption_start_time, consumption_end_time,
			observations, record_order, has_alert)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rec.FormID, rec.CarNumber, rec.ProductCode, rec.ProductID, rec.ProductTemperature,
		rec.DefrostStartTime, rec.ConsumptionStartTime, rec.ConsumptionEndTime,
		rec.Observations, rec.RecordOrder, rec.HasAlert)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// Update rewrites the mutable columns of a record, including HasAlert
// because edits re-run the range check.
func (r *RecordRepo) Update(ctx context.Context, rec *model.Record) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE records SET car_number=?, product_code=?, product_id=?, product_temperature=?,
			defrost_start_time=?, consumption_start_time=?, consumption_end_time=?,
			observations=?, record_order=?, has_alert=?
		 WHERE id=? AND form_id=? AND is_deleted=0`,
		rec.CarNumber, rec.ProductCode, rec.ProductID, rec.ProductTemperature,
		rec.DefrostStartTime, rec.ConsumptionStartTime, rec.ConsumptionEndTime,
		rec.Observations, rec.RecordOrder, rec.HasAlert, rec.ID, rec.FormID)
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

// GetByID fetches a single non-deleted record scoped to its form.
func (r *RecordRepo) GetByID(ctx context.Context, formID, id uint64) (model.Record, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+recordColumns+recordJoins+
			" WHERE r.id=? AND r.form_id=? AND r.is_deleted=0 LIMIT 1", id, formID)
	if err != nil {
		return model.Record{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Record{}, err
		}
		return model.Record{}, ErrNotFound
	}
	return scanRecord(rows)
}

// ListByForm returns a form's records ordered by their explicit order
// index.
func (r *RecordRepo) ListByForm(ctx context.Context, formID uint64) ([]model.Record, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+recordColumns+recordJoins+
			" WHERE r.form_id=? AND r.is_deleted=0 ORDER BY r.record_order", formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

// ListWindow returns records whose parent form was created in
// [start, end]; used by the report loader.
func (r *RecordRepo) ListWindow(ctx context.Context, start, end time.Time) ([]model.Record, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+recordColumns+recordJoins+
			` JOIN forms f ON f.id = r.form_id
			 WHERE f.created_at >= ? AND f.created_at <= ? AND f.is_deleted=0 AND r.is_deleted=0
			 ORDER BY r.form_id, r.record_order`,
		start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

// SoftDelete marks a record as deleted.
func (r *RecordRepo) SoftDelete(ctx context.Context, formID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE records SET is_deleted=1, deleted_at=UTC_TIMESTAMP() WHERE id=? AND form_id=? AND is_deleted=0",
		id, formID)
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

func scanRecord(rows *sql.Rows) (model.Record, error) {
	var (
		rec          model.Record
		productID    sql.NullInt64
		productName  sql.NullString
		defrostStart sql.NullString
		consStart    sql.NullString
		consEnd      sql.NullString
		observations sql.NullString
	)
	err := rows.Scan(&rec.ID, &rec.FormID, &rec.CarNumber, &rec.ProductCode, &productID, &productName,
		&rec.ProductTemperature, &defrostStart, &consStart, &consEnd,
		&observations, &rec.RecordOrder, &rec.HasAlert, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return model.Record{}, err
	}
	if productID.Valid {
		v := uint64(productID.Int64)
		rec.ProductID = &v
	}
	if productName.Valid {
		rec.ProductName = productName.String
	}
	if defrostStart.Valid {
		v := defrostStart.String
		rec.DefrostStartTime = &v
	}
	if consStart.Valid {
		v := consStart.String
		rec.ConsumptionStartTime = &v
	}
	if consEnd.Valid {
		v := consEnd.String
		rec.ConsumptionEndTime = &v
	}
	if observations.Valid {
		v := observations.String
		rec.Observations = &v
	}
	return rec, nil
}
