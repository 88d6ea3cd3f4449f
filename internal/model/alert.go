package model

import "time"

// Alert mirrors the `alerts` table.  An alert is raised when a reading
// falls outside its product's range.  The expected min/max are copied
// from the product at creation time, never looked up again, so the
// alert keeps describing the range as it was even if the catalogue
// changes later.
//
// Acknowledgement is one-way: once acknowledged the flag, actor and
// timestamp are set and never revert.
//
// Fields:
//  ID                     – primary key identifier.
//  FormID                 – owning form.
//  RecordID               – offending record, nil for form-level alerts.
//  Severity               – tier computed from the range policy.
//  Message                – human-readable description.
//  Temperature            – the offending reading (°C).
//  ExpectedMinTemperature – range lower bound snapshotted at alert time.
//  ExpectedMaxTemperature – range upper bound snapshotted at alert time.
//  IsAcknowledged         – one-way acknowledgement flag.
//  AcknowledgedAt         – when the acknowledgement happened.
//  AcknowledgedByUserID   – who acknowledged.
type Alert struct {
	ID                     uint64     `json:"id"`
	FormID                 uint64     `json:"form_id"`
	RecordID               *uint64    `json:"record_id,omitempty"`
	Severity               Severity   `json:"-"`
	SeverityName           string     `json:"severity"`
	Message                string     `json:"message"`
	Temperature            float64    `json:"temperature"`
	ExpectedMinTemperature float64    `json:"expected_min_temperature"`
	ExpectedMaxTemperature float64    `json:"expected_max_temperature"`
	IsAcknowledged         bool       `json:"is_acknowledged"`
	AcknowledgedAt         *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedByUserID   *uint64    `json:"acknowledged_by_user_id,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}
