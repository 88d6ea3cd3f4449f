// Package queue defines the message payloads exchanged over the broker
// and the background consumer that processes them.
package queue

// TemperatureAlertRaisedEvent is published whenever a reading outside a
// product's range raises an alert.  It carries enough context for
// downstream consumers (notification fan-out, audit log) to act without
// querying the primary database.
type TemperatureAlertRaisedEvent struct {
	EventID                string  `json:"event_id"`
	AlertID                uint64  `json:"alert_id"`
	FormID                 uint64  `json:"form_id"`
	FormNumber             string  `json:"form_number"`
	RecordID               uint64  `json:"record_id"`
	ProductCode            string  `json:"product_code"`
	ProductName            string  `json:"product_name"`
	Severity               string  `json:"severity"`
	Message                string  `json:"message"`
	Temperature            float64 `json:"temperature"`
	ExpectedMinTemperature float64 `json:"expected_min_temperature"`
	ExpectedMaxTemperature float64 `json:"expected_max_temperature"`
	RaisedByUserID         uint64  `json:"raised_by_user_id"`
	RaisedAt               string  `json:"raised_at"`
}
