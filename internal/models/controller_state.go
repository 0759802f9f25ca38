package models

import "time"

// ControllerState is a point-in-time snapshot of the head controller.
type ControllerState struct {
	DeviceName    string           `json:"device_name"`
	SchemaVersion int              `json:"schema_version"`
	Actuators     []ActuatorStatus `json:"actuators"`
	Preferences   Preferences      `json:"preferences"`
	DirtyKeys     []string         `json:"dirty_keys,omitempty"` // store keys with uncommitted edits
	TakenAt       time.Time        `json:"taken_at"`
}
