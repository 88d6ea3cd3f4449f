package model

import (
	"strconv"
	"strings"
	"time"
)

// Record mirrors the `records` table.  One row per car (batch unit)
// within a form, carrying the observed temperature for one product.
// The product reference is kept twice: by code for the audit trail and
// by id, which may be nil if the product was later removed from the
// catalogue.
//
// Fields:
//  ID                   – primary key identifier.
//  FormID               – owning form.
//  CarNumber            – sequential car/batch number within the form.
//  ProductCode          – product code at the time of recording.
//  ProductID            – catalogue reference, nil when unresolvable.
//  ProductName          – loaded via join for display, may be empty.
//  ProductTemperature   – observed reading (°C).
//  DefrostStartTime     – "HH:MM" clock marker, optional.
//  ConsumptionStartTime – "HH:MM" clock marker, optional.
//  ConsumptionEndTime   – "HH:MM" clock marker, optional.
//  Observations         – free-text remarks for this record.
//  RecordOrder          – explicit display order within the form.
//  HasAlert             – set at creation time by the range check.
type Record struct {
	ID                   uint64    `json:"id"`
	FormID               uint64    `json:"form_id"`
	CarNumber            int       `json:"car_number"`
	ProductCode          string    `json:"product_code"`
	ProductID            *uint64   `json:"product_id,omitempty"`
	ProductName          string    `json:"product_name,omitempty"`
	ProductTemperature   float64   `json:"product_temperature"`
	DefrostStartTime     *string   `json:"defrost_start_time,omitempty"`
	ConsumptionStartTime *string   `json:"consumption_start_time,omitempty"`
	ConsumptionEndTime   *string   `json:"consumption_end_time,omitempty"`
	Observations         *string   `json:"observations,omitempty"`
	RecordOrder          int       `json:"record_order"`
	HasAlert             bool      `json:"has_alert"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefrostDurationMinutes computes consumption start minus defrost
// start, in minutes.  Nil when either marker is missing or malformed.
func (r *Record) DefrostDurationMinutes() *int {
	return clockDiffMinutes(r.DefrostStartTime, r.ConsumptionStartTime)
}

// ConsumptionDurationMinutes computes consumption end minus consumption
// start, in minutes.  Nil when either marker is missing or malformed.
func (r *Record) ConsumptionDurationMinutes() *int {
	return clockDiffMinutes(r.ConsumptionStartTime, r.ConsumptionEndTime)
}

// ValidClock reports whether s is an "HH:MM" time-of-day marker.
func ValidClock(s string) bool {
	_, ok := clockMinutes(s)
	return ok
}

func clockDiffMinutes(from, to *string) *int {
	if from == nil || to == nil {
		return nil
	}
	a, okA := clockMinutes(*from)
	b, okB := clockMinutes(*to)
	if !okA || !okB {
		return nil
	}
	d := b - a
	return &d
}

// clockMinutes parses "HH:MM" into minutes since midnight.
func clockMinutes(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
