package models

import "time"

// Event types recorded by the controller.
const (
	EventCalibration = "CALIBRATION"
	EventPreference  = "PREFERENCE"
	EventCommit      = "COMMIT"
	EventLoad        = "LOAD"
	EventReset       = "RESET"
	EventError       = "ERROR"
)

// ControllerEvent is a single audit log entry.
type ControllerEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CALIBRATION | PREFERENCE | COMMIT | LOAD | RESET | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
