package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nvarela/coldtrack/internal/model"
	"github.com/nvarela/coldtrack/internal/repository"
)

var formCols = []string{
	"id", "form_number", "destination", "defrost_date", "production_date", "status",
	"created_by_user_id", "cu.name", "reviewed_by_user_id", "ru.name", "reviewed_at",
	"review_notes", "created_by_signature", "reviewed_by_signature", "observations",
	"created_at", "updated_at",
}

func newFormHandler(t *testing.T) (*FormHandler, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	h := NewFormHandler(
		repository.NewFormRepo(db),
		repository.NewRecordRepo(db),
		repository.NewAlertRepo(db),
		zap.NewNop(),
	)
	return h, mock, db
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func formRow(status string, createdBy uint64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(formCols).
		AddRow(42, "TEMP-20260301-0001", "Warehouse North", now, now, status,
			createdBy, "Ana Operator", nil, nil, nil, nil, nil, nil, nil, now, now)
}

func TestReviewRejectsUnknownDecision(t *testing.T) {
	h, _, db := newFormHandler(t)
	defer db.Close()

	e := echo.New()
	c, rec := jsonContext(e, http.MethodPost, "/v1/forms/42/review", `{"status":"ARCHIVED"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", uint64(3))
	c.Set("role", model.RoleSupervisor)

	require.NoError(t, h.Review(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "REVIEWED or REJECTED")
}

func TestReviewRejectedOnDraftForm(t *testing.T) {
	h, mock, db := newFormHandler(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM forms f`).
		WithArgs(42).
		WillReturnRows(formRow(model.StatusDraft, 7))

	e := echo.New()
	c, rec := jsonContext(e, http.MethodPost, "/v1/forms/42/review", `{"status":"REVIEWED"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", uint64(3))
	c.Set("role", model.RoleSupervisor)

	require.NoError(t, h.Review(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), model.StatusDraft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateForbiddenForNonCreator(t *testing.T) {
	h, mock, db := newFormHandler(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM forms f`).
		WithArgs(42).
		WillReturnRows(formRow(model.StatusDraft, 7))

	e := echo.New()
	c, rec := jsonContext(e, http.MethodPut, "/v1/forms/42", `{"destination":"Elsewhere"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", uint64(8)) // not the creator
	c.Set("role", model.RoleOperator)

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAllowsAdministratorOverride(t *testing.T) {
	h, mock, db := newFormHandler(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM forms f`).
		WithArgs(42).
		WillReturnRows(formRow(model.StatusDraft, 7))
	mock.ExpectExec(`UPDATE forms SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := echo.New()
	c, rec := jsonContext(e, http.MethodPut, "/v1/forms/42", `{"status":"COMPLETED"}`)
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", uint64(1))
	c.Set("role", model.RoleAdministrator)

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"COMPLETED"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRefusedWhenFormHasRecords(t *testing.T) {
	h, mock, db := newFormHandler(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM forms f`).
		WithArgs(42).
		WillReturnRows(formRow(model.StatusDraft, 7))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM records WHERE form_id=\?`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))

	e := echo.New()
	c, rec := jsonContext(e, http.MethodDelete, "/v1/forms/42", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	c.Set("user_id", uint64(1))
	c.Set("role", model.RoleAdministrator)

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot be deleted")
	assert.NoError(t, mock.ExpectationsWereMet())
}
