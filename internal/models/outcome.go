package models

import "time"

// Status classifies how an invocation finished
type Status string

// Invocation outcome statuses
const (
	StatusSent           Status = "sent"
	StatusDryRun         Status = "dry_run"
	StatusConfigError    Status = "config_error"
	StatusFetchFailed    Status = "fetch_failed"
	StatusParseFailed    Status = "parse_failed"
	StatusDeliveryFailed Status = "delivery_failed"
	StatusTimeout        Status = "timeout"
	StatusInternalError  Status = "internal_error"
)

// StatusCode maps a status onto an HTTP-like code for the Lambda response
func (s Status) StatusCode() int {
	switch s {
	case StatusSent, StatusDryRun:
		return 200
	case StatusConfigError:
		return 400
	case StatusParseFailed:
		return 422
	case StatusFetchFailed:
		return 502
	case StatusDeliveryFailed:
		return 503
	case StatusTimeout:
		return 504
	default:
		return 500
	}
}

// Succeeded reports whether the invocation delivered (or rendered) a report
func (s Status) Succeeded() bool {
	return s == StatusSent || s == StatusDryRun
}

// Outcome summarizes a single invocation of the pipeline
type Outcome struct {
	InvocationID string        `json:"invocation_id"`
	Status       Status        `json:"status"`
	Stage        string        `json:"stage,omitempty"`
	TotalSeen    int           `json:"total_seen"`
	Matched      int           `json:"matched"`
	Recipients   int           `json:"recipients"`
	MessageID    string        `json:"message_id,omitempty"`
	SnapshotKey  string        `json:"snapshot_key,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`

	// Report is the rendered report; populated for successful and dry runs
	Report *RenderedReport `json:"-"`
}

// Error returns the failure message, or empty when the invocation succeeded
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// RenderedReport is the email content produced by the reporter
type RenderedReport struct {
	Subject string
	Text    string
	HTML    string
}
