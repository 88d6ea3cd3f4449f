// Package report computes read-only summaries over forms loaded with
// their records and alerts.  Every function here is a total function
// over possibly-empty slices: averages and rates over an empty window
// are 0, never NaN, so an empty day still renders.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/nvarela/coldtrack/internal/model"
)

// Daily is the per-calendar-day summary.
type Daily struct {
	Date              time.Time             `json:"date"`
	TotalForms        int                   `json:"total_forms"`
	DraftForms        int                   `json:"draft_forms"`
	CompletedForms    int                   `json:"completed_forms"`
	ReviewedForms     int                   `json:"reviewed_forms"`
	RejectedForms     int                   `json:"rejected_forms"`
	TotalRecords      int                   `json:"total_records"`
	RecordsWithAlerts int                   `json:"records_with_alerts"`
	TotalAlerts       int                   `json:"total_alerts"`
	CriticalAlerts    int                   `json:"critical_alerts"`
	EmergencyAlerts   int                   `json:"emergency_alerts"`
	FormsByUser       []UserFormSummary     `json:"forms_by_user"`
	ProductUsage      []ProductUsageSummary `json:"product_usage"`
	GeneratedAt       time.Time             `json:"generated_at"`
}

// UserFormSummary groups a day's forms by their creator.
type UserFormSummary struct {
	UserID         uint64 `json:"user_id"`
	UserName       string `json:"user_name"`
	TotalForms     int    `json:"total_forms"`
	DraftForms     int    `json:"draft_forms"`
	CompletedForms int    `json:"completed_forms"`
	ReviewedForms  int    `json:"reviewed_forms"`
	RejectedForms  int    `json:"rejected_forms"`
}

// ProductUsageSummary aggregates a day's records per product.
type ProductUsageSummary struct {
	ProductCode        string  `json:"product_code"`
	ProductName        string  `json:"product_name"`
	TotalRecords       int     `json:"total_records"`
	RecordsWithAlerts  int     `json:"records_with_alerts"`
	AverageTemperature float64 `json:"average_temperature"`
	MinTemperature     float64 `json:"min_temperature"`
	MaxTemperature     float64 `json:"max_temperature"`
}

// Statistics is the dashboard summary over an arbitrary window.
type Statistics struct {
	TotalForms            int            `json:"total_forms"`
	PendingReview         int            `json:"pending_review"`
	TotalRecords          int            `json:"total_records"`
	TotalAlerts           int            `json:"total_alerts"`
	CriticalAlerts        int            `json:"critical_alerts"`
	AverageRecordsPerForm float64        `json:"average_records_per_form"`
	AlertRate             float64        `json:"alert_rate"`
	FormsByStatus         []StatusCount  `json:"forms_by_status"`
	FormsByDay            []DailyCount   `json:"forms_by_day"`
	AlertsByDay           []DailyCount   `json:"alerts_by_day"`
	TopProducts           []ProductCount `json:"top_products"`
	StartDate             time.Time      `json:"start_date"`
	EndDate               time.Time      `json:"end_date"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

type ProductCount struct {
	ProductCode string `json:"product_code"`
	Count       int    `json:"count"`
}

// BuildDaily summarizes the forms created on one calendar day.  The
// caller is responsible for loading exactly that day's forms with
// their children.
func BuildDaily(date time.Time, forms []model.Form) Daily {
	d := Daily{
		Date:        date,
		TotalForms:  len(forms),
		GeneratedAt: time.Now().UTC(),
	}

	userIdx := map[uint64]int{}
	prodIdx := map[string]int{}

	for _, f := range forms {
		switch f.Status {
		case model.StatusDraft:
			d.DraftForms++
		case model.StatusCompleted:
			d.CompletedForms++
		case model.StatusReviewed:
			d.ReviewedForms++
		case model.StatusRejected:
			d.RejectedForms++
		}

		i, ok := userIdx[f.CreatedByUserID]
		if !ok {
			i = len(d.FormsByUser)
			userIdx[f.CreatedByUserID] = i
			d.FormsByUser = append(d.FormsByUser, UserFormSummary{
				UserID: f.CreatedByUserID, UserName: f.CreatedByUserName,
			})
		}
		u := &d.FormsByUser[i]
		u.TotalForms++
		switch f.Status {
		case model.StatusDraft:
			u.DraftForms++
		case model.StatusCompleted:
			u.CompletedForms++
		case model.StatusReviewed:
			u.ReviewedForms++
		case model.StatusRejected:
			u.RejectedForms++
		}

		d.TotalRecords += len(f.Records)
		for _, rec := range f.Records {
			if rec.HasAlert {
				d.RecordsWithAlerts++
			}
			// Records whose product was later removed still count in the
			// totals but are skipped in per-product usage, matching the
			// "group only resolvable products" reporting rule.
			if rec.ProductID == nil {
				continue
			}
			j, ok := prodIdx[rec.ProductCode]
			if !ok {
				j = len(d.ProductUsage)
				prodIdx[rec.ProductCode] = j
				d.ProductUsage = append(d.ProductUsage, ProductUsageSummary{
					ProductCode:    rec.ProductCode,
					ProductName:    rec.ProductName,
					MinTemperature: rec.ProductTemperature,
					MaxTemperature: rec.ProductTemperature,
				})
			}
			p := &d.ProductUsage[j]
			p.TotalRecords++
			if rec.HasAlert {
				p.RecordsWithAlerts++
			}
			// AverageTemperature accumulates the sum until the final pass.
			p.AverageTemperature += rec.ProductTemperature
			if rec.ProductTemperature < p.MinTemperature {
				p.MinTemperature = rec.ProductTemperature
			}
			if rec.ProductTemperature > p.MaxTemperature {
				p.MaxTemperature = rec.ProductTemperature
			}
		}

		d.TotalAlerts += len(f.Alerts)
		for _, a := range f.Alerts {
			switch a.Severity {
			case model.SeverityCritical:
				d.CriticalAlerts++
			case model.SeverityEmergency:
				d.EmergencyAlerts++
			}
		}
	}

	for i := range d.ProductUsage {
		p := &d.ProductUsage[i]
		p.AverageTemperature = round2(p.AverageTemperature / float64(p.TotalRecords))
	}

	sort.SliceStable(d.FormsByUser, func(i, j int) bool {
		return d.FormsByUser[i].TotalForms > d.FormsByUser[j].TotalForms
	})
	sort.SliceStable(d.ProductUsage, func(i, j int) bool {
		return d.ProductUsage[i].TotalRecords > d.ProductUsage[j].TotalRecords
	})
	return d
}

// BuildStatistics computes the dashboard numbers for forms created in
// [start, end].
func BuildStatistics(start, end time.Time, forms []model.Form) Statistics {
	s := Statistics{
		TotalForms: len(forms),
		StartDate:  start,
		EndDate:    end,
	}

	statusCounts := map[string]int{}
	formsByDay := map[time.Time]int{}
	alertsByDay := map[time.Time]int{}
	productCounts := map[string]int{}
	formsWithAlerts := 0

	for _, f := range forms {
		if f.Status == model.StatusCompleted {
			s.PendingReview++
		}
		statusCounts[f.Status]++
		formsByDay[dayOf(f.CreatedAt)]++

		s.TotalRecords += len(f.Records)
		for _, rec := range f.Records {
			if rec.ProductCode != "" {
				productCounts[rec.ProductCode]++
			}
		}

		s.TotalAlerts += len(f.Alerts)
		if len(f.Alerts) > 0 {
			formsWithAlerts++
		}
		for _, a := range f.Alerts {
			alertsByDay[dayOf(a.CreatedAt)]++
			if a.Severity == model.SeverityCritical || a.Severity == model.SeverityEmergency {
				s.CriticalAlerts++
			}
		}
	}

	if s.TotalForms > 0 {
		s.AverageRecordsPerForm = round2(float64(s.TotalRecords) / float64(s.TotalForms))
		s.AlertRate = round2(float64(formsWithAlerts) / float64(s.TotalForms) * 100)
	}

	for status, n := range statusCounts {
		s.FormsByStatus = append(s.FormsByStatus, StatusCount{Status: status, Count: n})
	}
	sort.Slice(s.FormsByStatus, func(i, j int) bool {
		return s.FormsByStatus[i].Status < s.FormsByStatus[j].Status
	})

	s.FormsByDay = sortedDailyCounts(formsByDay)
	s.AlertsByDay = sortedDailyCounts(alertsByDay)

	for code, n := range productCounts {
		s.TopProducts = append(s.TopProducts, ProductCount{ProductCode: code, Count: n})
	}
	// Ties broken by product code so the top-10 cut is deterministic.
	sort.Slice(s.TopProducts, func(i, j int) bool {
		if s.TopProducts[i].Count != s.TopProducts[j].Count {
			return s.TopProducts[i].Count > s.TopProducts[j].Count
		}
		return s.TopProducts[i].ProductCode < s.TopProducts[j].ProductCode
	})
	if len(s.TopProducts) > 10 {
		s.TopProducts = s.TopProducts[:10]
	}
	return s
}

func sortedDailyCounts(m map[time.Time]int) []DailyCount {
	out := make([]DailyCount, 0, len(m))
	for day, n := range m {
		out = append(out, DailyCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
