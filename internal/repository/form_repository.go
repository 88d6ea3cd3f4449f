package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/nvarela/coldtrack/internal/model"
)

// FormRepo owns temperature-control forms.  Form creation assigns the
// day-scoped sequence number inside a transaction; listing applies the
// caller's filters with LIMIT/OFFSET pagination; the report loader
// pulls whole forms with their records and alerts for a time window.
type FormRepo struct{ DB *sql.DB }

func NewFormRepo(db *sql.DB) *FormRepo { return &FormRepo{DB: db} }

const formColumns = `f.id, f.form_number, f.destination, f.defrost_date, f.production_date, f.status,
	f.created_by_user_id, cu.name, f.reviewed_by_user_id, ru.name, f.reviewed_at, f.review_notes,
	f.created_by_signature, f.reviewed_by_signature, f.observations, f.created_at, f.updated_at`

const formJoins = ` FROM forms f
	JOIN users cu ON cu.id = f.created_by_user_id
	LEFT JOIN users ru ON ru.id = f.reviewed_by_user_id`

// Create inserts a new form in DRAFT with a number generated from the
// UTC day and the count of forms already created today.  Count and
// insert run in one transaction; a duplicate form_number (two creates
// racing on the same sequence) is retried once with the next number.
func (r *FormRepo) Create(ctx context.Context, f *model.Form) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var todayCount int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM forms WHERE created_at >= ? AND created_at < ? AND is_deleted=0",
		dayStart, dayStart.AddDate(0, 0, 1)).Scan(&todayCount)
	if err != nil {
		return err
	}

	f.Status = model.StatusDraft
	for attempt := 0; attempt < 2; attempt++ {
		f.FormNumber = model.FormNumber(now, todayCount+1+attempt)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO forms (form_number, destination, defrost_date, production_date, status,
				created_by_user_id, observations, created_by_signature)
			 VALUES (?,?,?,?,?,?,?,?)`,
			f.FormNumber, f.Destination, f.DefrostDate, f.ProductionDate, f.Status,
			f.CreatedByUserID, f.Observations, f.CreatedBySignature)
		if err != nil {
			if isDuplicate(err) && attempt == 0 {
				continue
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		f.ID = uint64(id)
		break
	}

	return tx.Commit()
}

// FormFilter narrows a form listing.  Zero values mean "no filter".
type FormFilter struct {
	Status      string
	StartDate   *time.Time
	EndDate     *time.Time // inclusive: extended to end of day by the handler
	Destination string
	CreatedBy   uint64
	Page        int
	PageSize    int
}

// List returns a page of forms ordered by creation time descending,
// plus the total row count for the filter.
func (r *FormRepo) List(ctx context.Context, flt FormFilter) ([]model.Form, int, error) {
	where := " WHERE f.is_deleted=0"
	args := []any{}
	if flt.Status != "" {
		where += " AND f.status=?"
		args = append(args, flt.Status)
	}
	if flt.StartDate != nil {
		where += " AND f.created_at >= ?"
		args = append(args, *flt.StartDate)
	}
	if flt.EndDate != nil {
		where += " AND f.created_at <= ?"
		args = append(args, *flt.EndDate)
	}
	if strings.TrimSpace(flt.Destination) != "" {
		where += " AND f.destination LIKE ?"
		args = append(args, "%"+strings.TrimSpace(flt.Destination)+"%")
	}
	if flt.CreatedBy != 0 {
		where += " AND f.created_by_user_id=?"
		args = append(args, flt.CreatedBy)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM forms f"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + formColumns + formJoins + where +
		" ORDER BY f.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, flt.PageSize, (flt.Page-1)*flt.PageSize)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}

// GetByID fetches a single form without children.
func (r *FormRepo) GetByID(ctx context.Context, id uint64) (model.Form, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+formColumns+formJoins+" WHERE f.id=? AND f.is_deleted=0 LIMIT 1", id)
	if err != nil {
		return model.Form{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Form{}, err
		}
		return model.Form{}, ErrNotFound
	}
	return scanForm(rows)
}

// GetDetail fetches a form with its records (ordered by record_order)
// and alerts.
func (r *FormRepo) GetDetail(ctx context.Context, id uint64, records *RecordRepo, alerts *AlertRepo) (model.Form, error) {
	f, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Form{}, err
	}
	f.Records, err = records.ListByForm(ctx, id)
	if err != nil {
		return model.Form{}, err
	}
	f.Alerts, err = alerts.ListByForm(ctx, id)
	if err != nil {
		return model.Form{}, err
	}
	return f, nil
}

// Update rewrites the editable columns of a form.  Lifecycle guards
// run in the handler before this is called.
func (r *FormRepo) Update(ctx context.Context, f *model.Form) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE forms SET destination=?, defrost_date=?, production_date=?, status=?,
			observations=?, created_by_signature=?
		 WHERE id=? AND is_deleted=0`,
		f.Destination, f.DefrostDate, f.ProductionDate, f.Status,
		f.Observations, f.CreatedBySignature, f.ID)
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

// Review stamps the supervisor decision onto the form.
func (r *FormRepo) Review(ctx context.Context, id uint64, status string, reviewerID uint64, notes, signature *string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE forms SET status=?, reviewed_by_user_id=?, reviewed_at=UTC_TIMESTAMP(),
			review_notes=?, reviewed_by_signature=?
		 WHERE id=? AND is_deleted=0`,
		status, reviewerID, notes, signature, id)
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

// CountRecords returns how many non-deleted records a form owns.
func (r *FormRepo) CountRecords(ctx context.Context, id uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE form_id=? AND is_deleted=0", id).Scan(&n)
	return n, err
}

// HardDelete physically removes a form.  Refuses with ErrHasRecords
// when the form still owns records; the few rows that do get deleted
// take their (zero) children with them via the cascade constraints.
func (r *FormRepo) HardDelete(ctx context.Context, id uint64) error {
	n, err := r.CountRecords(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasRecords
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM forms WHERE id=?", id)
	if err != nil {
		return err
	}
	n64, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n64 == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWindow loads every non-deleted form created in [start, end]
// together with its records and alerts.  The report builders consume
// the result in memory.
func (r *FormRepo) ListWindow(ctx context.Context, start, end time.Time, records *RecordRepo, alerts *AlertRepo) ([]model.Form, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+formColumns+formJoins+
			" WHERE f.created_at >= ? AND f.created_at <= ? AND f.is_deleted=0 ORDER BY f.created_at",
		start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []model.Form
	index := map[uint64]int{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		index[f.ID] = len(forms)
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return forms, nil
	}

	recs, err := records.ListWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if i, ok := index[rec.FormID]; ok {
			forms[i].Records = append(forms[i].Records, rec)
		}
	}

	als, err := alerts.ListWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for _, a := range als {
		if i, ok := index[a.FormID]; ok {
			forms[i].Alerts = append(forms[i].Alerts, a)
		}
	}
	return forms, nil
}

func scanForm(rows *sql.Rows) (model.Form, error) {
	var (
		f            model.Form
		reviewedBy   sql.NullInt64
		reviewerName sql.NullString
		reviewedAt   sql.NullTime
		notes        sql.NullString
		createdSig   sql.NullString
		reviewedSig  sql.NullString
		observations sql.NullString
	)
	err := rows.Scan(&f.ID, &f.FormNumber, &f.Destination, &f.DefrostDate, &f.ProductionDate, &f.Status,
		&f.CreatedByUserID, &f.CreatedByUserName, &reviewedBy, &reviewerName, &reviewedAt, &notes,
		&createdSig, &reviewedSig, &observations, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return model.Form{}, err
	}
	if reviewedBy.Valid {
		v := uint64(reviewedBy.Int64)
		f.ReviewedByUserID = &v
	}
	if reviewerName.Valid {
		v := reviewerName.String
		f.ReviewedByUserName = &v
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		f.ReviewedAt = &t
	}
	if notes.Valid {
		v := notes.String
		f.ReviewNotes = &v
	}
	if createdSig.Valid {
		v := createdSig.String
		f.CreatedBySignature = &v
	}
	if reviewedSig.Valid {
		v := reviewedSig.String
		f.ReviewedBySignature = &v
	}
	if observations.Valid {
		v := observations.String
		f.Observations = &v
	}
	return f, nil
}
