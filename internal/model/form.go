package model

import (
	"fmt"
	"time"
)

// Form status values as stored in the `forms` table.  The lifecycle is
// DRAFT → COMPLETED → REVIEWED (success) or REJECTED (failure, which
// re-opens editing).  ARCHIVED is a terminal administrative state only
// reachable by direct status assignment through the update endpoint.
const (
	StatusDraft     = "DRAFT"
	StatusCompleted = "COMPLETED"
	StatusReviewed  = "REVIEWED"
	StatusRejected  = "REJECTED"
	StatusArchived  = "ARCHIVED"
)

// ValidStatus reports whether s is one of the known form statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusCompleted, StatusReviewed, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// Form mirrors the `forms` table.  A form groups one shipment's
// temperature readings for supervisor review.  Its number is generated
// at creation time from the UTC day and a per-day sequence.
//
// Fields:
//  ID                 – primary key identifier.
//  FormNumber         – unique, format TEMP-YYYYMMDD-NNNN.
//  Destination        – where the shipment is headed.
//  DefrostDate        – date defrosting took place.
//  ProductionDate     – production date of the goods.
//  Status             – lifecycle state, see constants above.
//  CreatedByUserID    – operator who opened the form.
//  CreatedByUserName  – denormalized for listings; loaded via join.
//  ReviewedByUserID   – supervisor who reviewed, nil until reviewed.
//  ReviewedByUserName – loaded via join, nil until reviewed.
//  ReviewedAt         – review timestamp.
//  ReviewNotes        – optional supervisor notes.
//  CreatedBySignature – opaque signature blob from the creator.
//  ReviewedBySignature– opaque signature blob from the reviewer.
//  Observations       – free-text remarks on the whole form.
//  Records, Alerts    – children, cascade-deleted with the form.
type Form struct {
	ID                  uint64     `json:"id"`
	FormNumber          string     `json:"form_number"`
	Destination         string     `json:"destination"`
	DefrostDate         time.Time  `json:"defrost_date"`
	ProductionDate      time.Time  `json:"production_date"`
	Status              string     `json:"status"`
	CreatedByUserID     uint64     `json:"created_by_user_id"`
	CreatedByUserName   string     `json:"created_by_user_name,omitempty"`
	ReviewedByUserID    *uint64    `json:"reviewed_by_user_id,omitempty"`
	ReviewedByUserName  *string    `json:"reviewed_by_user_name,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes         *string    `json:"review_notes,omitempty"`
	CreatedBySignature  *string    `json:"created_by_signature,omitempty"`
	ReviewedBySignature *string    `json:"reviewed_by_signature,omitempty"`
	Observations        *string    `json:"observations,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Records []Record `json:"records,omitempty"`
	Alerts  []Alert  `json:"alerts,omitempty"`
}

// CanBeEdited reports whether the form accepts mutations.  Every
// component that writes to a form or its records must consult this
// guard first; the handlers rely on it rather than duplicating the
// status list.
func (f *Form) CanBeEdited() bool {
	return f.Status == StatusDraft || f.Status == StatusRejected
}

// CanBeReviewed reports whether the form is waiting for a supervisor
// decision.
func (f *Form) CanBeReviewed() bool {
	return f.Status == StatusCompleted
}

// FormNumber builds the display number for a form created at t (UTC)
// with the given same-day sequence.  The sequence restarts at 1 each
// day.
func FormNumber(t time.Time, seq int) string {
	return fmt.Sprintf("TEMP-%s-%04d", t.UTC().Format("20060102"), seq)
}
