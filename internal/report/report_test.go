package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvarela/coldtrack/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(code string, temp float64, alert bool) model.Record {
	pid := uint64(1)
	return model.Record{
		ProductID:          &pid,
		ProductCode:        code,
		ProductName:        code + " name",
		ProductTemperature: temp,
		HasAlert:           alert,
	}
}

func TestBuildDailyEmptyWindow(t *testing.T) {
	d := BuildDaily(day(2026, 3, 1), nil)

	assert.Equal(t, 0, d.TotalForms)
	assert.Equal(t, 0, d.TotalRecords)
	assert.Equal(t, 0, d.TotalAlerts)
	assert.Empty(t, d.FormsByUser)
	assert.Empty(t, d.ProductUsage)
}

func TestBuildDailyAggregates(t *testing.T) {
	forms := []model.Form{
		{
			Status:            model.StatusCompleted,
			CreatedByUserID:   1,
			CreatedByUserName: "Ana",
			Records: []model.Record{
				rec("FISH-01", -19.5, false),
				rec("FISH-01", -17.0, true),
				rec("BEEF-02", -12.0, false),
			},
			Alerts: []model.Alert{
				{Severity: model.SeverityCritical},
				{Severity: model.SeverityWarning},
			},
		},
		{
			Status:            model.StatusDraft,
			CreatedByUserID:   2,
			CreatedByUserName: "Ben",
			Records:           []model.Record{rec("FISH-01", -21.0, false)},
			Alerts:            []model.Alert{{Severity: model.SeverityEmergency}},
		},
	}

	d := BuildDaily(day(2026, 3, 1), forms)

	assert.Equal(t, 2, d.TotalForms)
	assert.Equal(t, 1, d.CompletedForms)
	assert.Equal(t, 1, d.DraftForms)
	assert.Equal(t, 4, d.TotalRecords)
	assert.Equal(t, 1, d.RecordsWithAlerts)
	assert.Equal(t, 3, d.TotalAlerts)
	assert.Equal(t, 1, d.CriticalAlerts)
	assert.Equal(t, 1, d.EmergencyAlerts)

	require.Len(t, d.FormsByUser, 2)
	assert.Equal(t, "Ana", d.FormsByUser[0].UserName)
	assert.Equal(t, 1, d.FormsByUser[0].CompletedForms)

	require.Len(t, d.ProductUsage, 2)
	fish := d.ProductUsage[0]
	assert.Equal(t, "FISH-01", fish.ProductCode)
	assert.Equal(t, 3, fish.TotalRecords)
	assert.Equal(t, 1, fish.RecordsWithAlerts)
	assert.InDelta(t, -19.17, fish.AverageTemperature, 0.001)
	assert.Equal(t, -21.0, fish.MinTemperature)
	assert.Equal(t, -17.0, fish.MaxTemperature)
}

func TestBuildDailySkipsUnresolvableProducts(t *testing.T) {
	orphan := rec("GONE-99", -5, false)
	orphan.ProductID = nil
	forms := []model.Form{{
		Status:  model.StatusDraft,
		Records: []model.Record{orphan, rec("FISH-01", -19, false)},
	}}

	d := BuildDaily(day(2026, 3, 1), forms)

	assert.Equal(t, 2, d.TotalRecords)
	require.Len(t, d.ProductUsage, 1)
	assert.Equal(t, "FISH-01", d.ProductUsage[0].ProductCode)
}

func TestBuildStatisticsEmptyWindow(t *testing.T) {
	s := BuildStatistics(day(2026, 3, 1), day(2026, 3, 31), nil)

	assert.Equal(t, 0, s.TotalForms)
	assert.Zero(t, s.AverageRecordsPerForm)
	assert.Zero(t, s.AlertRate)
	assert.Empty(t, s.FormsByDay)
	assert.Empty(t, s.TopProducts)
}

func TestBuildStatisticsRatesAndSeries(t *testing.T) {
	forms := []model.Form{
		{
			Status:    model.StatusCompleted,
			CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			Records:   []model.Record{rec("A", -1, false), rec("B", -2, false), rec("B", -3, false)},
			Alerts: []model.Alert{
				{Severity: model.SeverityCritical, CreatedAt: time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)},
			},
		},
		{
			Status:    model.StatusReviewed,
			CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
			Records:   []model.Record{rec("A", -1, false)},
		},
		{
			Status:    model.StatusCompleted,
			CreatedAt: time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
		},
	}

	s := BuildStatistics(day(2026, 3, 1), day(2026, 3, 31), forms)

	assert.Equal(t, 3, s.TotalForms)
	assert.Equal(t, 2, s.PendingReview)
	assert.Equal(t, 4, s.TotalRecords)
	assert.Equal(t, 1, s.TotalAlerts)
	assert.Equal(t, 1, s.CriticalAlerts)
	assert.InDelta(t, 1.33, s.AverageRecordsPerForm, 0.001)
	assert.InDelta(t, 33.33, s.AlertRate, 0.001)

	require.Len(t, s.FormsByDay, 2)
	assert.Equal(t, day(2026, 3, 1), s.FormsByDay[0].Date)
	assert.Equal(t, 1, s.FormsByDay[0].Count)
	assert.Equal(t, 2, s.FormsByDay[1].Count)

	require.Len(t, s.AlertsByDay, 1)
	assert.Equal(t, day(2026, 3, 2), s.AlertsByDay[0].Date)
}

func TestBuildStatisticsTopProductsTiebreak(t *testing.T) {
	forms := []model.Form{{
		Status:  model.StatusDraft,
		Records: []model.Record{rec("B", 0, false), rec("A", 0, false), rec("A", 0, false), rec("C", 0, false), rec("B", 0, false)},
	}}

	s := BuildStatistics(day(2026, 3, 1), day(2026, 3, 2), forms)

	require.Len(t, s.TopProducts, 3)
	assert.Equal(t, "A", s.TopProducts[0].ProductCode)
	assert.Equal(t, "B", s.TopProducts[1].ProductCode)
	assert.Equal(t, "C", s.TopProducts[2].ProductCode)
}
