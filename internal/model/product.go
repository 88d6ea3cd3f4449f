package model

import "time"

// Severity grades how far a reading deviates from a product's
// configured range.  Values are ordered: a higher severity always
// means a worse deviation, which lets callers sort alerts with a
// plain numeric comparison.
type Severity int

const (
	SeverityInfo      Severity = 0 // inside range, away from both bounds
	SeverityWarning   Severity = 1 // inside range but near a bound
	SeverityCritical  Severity = 2 // outside range
	SeverityEmergency Severity = 3 // more than 5°C beyond a bound
)

// String returns the canonical name stored in the database and used in
// JSON payloads.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityEmergency:
		return "EMERGENCY"
	default:
		return "INFO"
	}
}

// ParseSeverity maps a stored severity name back to its value.  Unknown
// names fall back to INFO so a corrupted row never breaks ordering.
func ParseSeverity(s string) Severity {
	switch s {
	case "WARNING":
		return SeverityWarning
	case "CRITICAL":
		return SeverityCritical
	case "EMERGENCY":
		return SeverityEmergency
	default:
		return SeverityInfo
	}
}

// Product mirrors the `products` table.  Each product carries the
// temperature range policy its readings are judged against plus a
// maximum defrost duration.  Products referenced by temperature
// records are never hard-deleted; they are soft-disabled via IsActive.
//
// Fields:
//  ID                    – primary key identifier.
//  ProductCode           – unique upper-cased code, at most 20 chars.
//  ProductName           – display name.
//  MinTemperature        – lower bound of the allowed range (°C).
//  MaxTemperature        – upper bound of the allowed range (°C).
//  MaxDefrostTimeMinutes – longest permitted defrost, 1..1440.
//  Description, Category – optional catalogue metadata.
//  IsActive              – soft-disable flag.
//  CreatedAt, UpdatedAt  – audit timestamps.
type Product struct {
	ID                    uint64    `json:"id"`
	ProductCode           string    `json:"product_code"`
	ProductName           string    `json:"product_name"`
	MinTemperature        float64   `json:"min_temperature"`
	MaxTemperature        float64   `json:"max_temperature"`
	MaxDefrostTimeMinutes int       `json:"max_defrost_time_minutes"`
	Description           *string   `json:"description,omitempty"`
	Category              *string   `json:"category,omitempty"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// IsTemperatureInRange reports whether a reading complies with the
// product's range.  Both bounds are inclusive.  This strict in/out
// check decides whether a record is flagged; the finer severity below
// is only computed when an alert is created.
func (p *Product) IsTemperatureInRange(temp float64) bool {
	return temp >= p.MinTemperature && temp <= p.MaxTemperature
}

// AlertSeverity classifies a reading against the product's range.  The
// bands overlap when the range is narrow, so the order of the checks is
// part of the contract: emergency first, then critical, then warning.
//
// EMERGENCY – more than 5°C beyond either bound (absolute offset,
// independent of the range width).
// CRITICAL  – outside the range but within the 5°C emergency band.
// WARNING   – inside the range but within 10% of the range width of
// either bound.
// INFO      – everything else.
func (p *Product) AlertSeverity(temp float64) Severity {
	if temp < p.MinTemperature-5 || temp > p.MaxTemperature+5 {
		return SeverityEmergency
	}
	if temp < p.MinTemperature || temp > p.MaxTemperature {
		return SeverityCritical
	}
	margin := (p.MaxTemperature - p.MinTemperature) * 0.1
	if temp < p.MinTemperature+margin || temp > p.MaxTemperature-margin {
		return SeverityWarning
	}
	return SeverityInfo
}
