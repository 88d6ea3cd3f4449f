package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nvarela/coldtrack/internal/model"
)

// AlertRepo owns temperature alerts.  The expected range columns are a
// snapshot taken when the alert was raised; nothing here ever reads the
// product's current range back into an alert.
type AlertRepo struct{ DB *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{DB: db} }

const alertColumns = `id, form_id, record_id, severity, message, temperature,
	expected_min_temperature, expected_max_temperature,
	is_acknowledged, acknowledged_at, acknowledged_by_user_id, created_at, updated_at`

// Create inserts an alert and populates its generated ID.
func (r *AlertRepo) Create(ctx context.Context, a *model.Alert) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO alerts (form_id, record_id, severity, message, temperature,
			expected_min_temperature, expected_max_temperature)
		 VALUES (?,?,?,?,?,?,?)`,
		a.FormID, a.RecordID, a.Severity.String(), a.Message, a.Temperature,
		a.ExpectedMinTemperature, a.ExpectedMaxTemperature)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	a.SeverityName = a.Severity.String()
	return nil
}

// GetByID fetches a single non-deleted alert.
func (r *AlertRepo) GetByID(ctx context.Context, id uint64) (model.Alert, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM alerts WHERE id=? AND is_deleted=0 LIMIT 1", id)
	if err != nil {
		return model.Alert{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Alert{}, err
		}
		return model.Alert{}, ErrNotFound
	}
	return scanAlert(rows)
}

// ListByForm returns a form's alerts ordered most severe first, newest
// first within a tier.
func (r *AlertRepo) ListByForm(ctx context.Context, formID uint64) ([]model.Alert, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+alertColumns+
			` FROM alerts WHERE form_id=? AND is_deleted=0
			 ORDER BY FIELD(severity,'EMERGENCY','CRITICAL','WARNING','INFO'), created_at DESC`,
		formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ListWindow returns alerts whose parent form was created in
// [start, end]; used by the report loader.
func (r *AlertRepo) ListWindow(ctx context.Context, start, end time.Time) ([]model.Alert, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT a.id, a.form_id, a.record_id, a.severity, a.message, a.temperature,
			a.expected_min_temperature, a.expected_max_temperature,
			a.is_acknowledged, a.acknowledged_at, a.acknowledged_by_user_id, a.created_at, a.updated_at
		 FROM alerts a JOIN forms f ON f.id = a.form_id
		 WHERE f.created_at >= ? AND f.created_at <= ? AND f.is_deleted=0 AND a.is_deleted=0`,
		start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// Acknowledge performs the one-way acknowledgement transition.  The
// WHERE clause refuses rows that are already acknowledged so a repeat
// call reports ErrNotFound instead of silently re-stamping.
func (r *AlertRepo) Acknowledge(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE alerts SET is_acknowledged=1, acknowledged_at=UTC_TIMESTAMP(), acknowledged_by_user_id=?
		 WHERE id=? AND is_acknowledged=0 AND is_deleted=0`,
		userID, id)
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

func collectAlerts(rows *sql.Rows) ([]model.Alert, error) {
	var items []model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func scanAlert(rows *sql.Rows) (model.Alert, error) {
	var (
		a        model.Alert
		recordID sql.NullInt64
		sev      string
		ackAt    sql.NullTime
		ackBy    sql.NullInt64
	)
	err := rows.Scan(&a.ID, &a.FormID, &recordID, &sev, &a.Message, &a.Temperature,
		&a.ExpectedMinTemperature, &a.ExpectedMaxTemperature,
		&a.IsAcknowledged, &ackAt, &ackBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Alert{}, err
	}
	a.Severity = model.ParseSeverity(sev)
	a.SeverityName = a.Severity.String()
	if recordID.Valid {
		v := uint64(recordID.Int64)
		a.RecordID = &v
	}
	if ackAt.Valid {
		t := ackAt.Time
		a.AcknowledgedAt = &t
	}
	if ackBy.Valid {
		v := uint64(ackBy.Int64)
		a.AcknowledgedByUserID = &v
	}
	return a, nil
}
