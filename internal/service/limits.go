package service

import (
	"fmt"
	"sync"

	"skull_controller/internal/models"
)

// RangeError rejects a proposed calibration range. The record is left untouched.
type RangeError struct {
	Actuator models.ActuatorID
	Field    string // "duty" or "angle"
	Min, Max int
	Envelope models.Range
}

func (e *RangeError) Error() string {
	if e.Min >= e.Max {
		return fmt.Sprintf("%s %s range %d..%d rejected: min must be below max",
			e.Actuator, e.Field, e.Min, e.Max)
	}
	return fmt.Sprintf("%s %s range %d..%d rejected: outside %d..%d",
		e.Actuator, e.Field, e.Min, e.Max, e.Envelope.Min, e.Envelope.Max)
}

// LimitTable holds one calibration record per physical actuator.
type LimitTable struct {
	mu      sync.RWMutex
	records [models.NumActuators]models.CalibrationRecord
}

// NewLimitTable starts with clean built-in defaults.
func NewLimitTable() *LimitTable {
	t := &LimitTable{}
	for _, id := range models.AllActuators() {
		t.records[id] = models.DefaultCalibration(id)
	}
	return t
}

func (t *LimitTable) Get(id models.ActuatorID) (models.CalibrationRecord, error) {
	if !id.Valid() {
		return models.CalibrationRecord{}, models.ErrUnknownActuator
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records[id], nil
}

// All returns every record in identity order.
func (t *LimitTable) All() []models.CalibrationRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.CalibrationRecord, len(t.records))
	copy(out, t.records[:])
	return out
}

// SetLimits changes the duty range of id and marks it dirty.
func (t *LimitTable) SetLimits(id models.ActuatorID, dutyMin, dutyMax int) error {
	if !id.Valid() {
		return models.ErrUnknownActuator
	}
	env := models.EnvelopeFor(id).Duty
	if err := checkRange(id, "duty", dutyMin, dutyMax, env); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	rec := &t.records[id]
	rec.DutyMin, rec.DutyMax = dutyMin, dutyMax
	rec.Dirty = true
	return nil
}

// SetAngleLimits changes the logical range of id and marks it dirty.
func (t *LimitTable) SetAngleLimits(id models.ActuatorID, angleMin, angleMax int) error {
	if !id.Valid() {
		return models.ErrUnknownActuator
	}
	env := models.EnvelopeFor(id).Angle
	if err := checkRange(id, "angle", angleMin, angleMax, env); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	rec := &t.records[id]
	rec.AngleMin, rec.AngleMax = angleMin, angleMax
	rec.Dirty = true
	return nil
}

func checkRange(id models.ActuatorID, field string, min, max int, env models.Range) error {
	if min >= max || !env.Contains(min) || !env.Contains(max) {
		return &RangeError{Actuator: id, Field: field, Min: min, Max: max, Envelope: env}
	}
	return nil
}

// validRecord reports whether rec satisfies the record invariants for id.
func validRecord(id models.ActuatorID, rec models.CalibrationRecord) bool {
	env := models.EnvelopeFor(id)
	return checkRange(id, "duty", rec.DutyMin, rec.DutyMax, env.Duty) == nil &&
		checkRange(id, "angle", rec.AngleMin, rec.AngleMax, env.Angle) == nil
}

// load installs a record read from the store; it is clean by definition.
func (t *LimitTable) load(id models.ActuatorID, rec models.CalibrationRecord) {
	rec.Dirty = false
	t.mu.Lock()
	t.records[id] = rec
	t.mu.Unlock()
}

// reset restores the default for id and marks it dirty.
func (t *LimitTable) reset(id models.ActuatorID) {
	rec := models.DefaultCalibration(id)
	rec.Dirty = true
	t.mu.Lock()
	t.records[id] = rec
	t.mu.Unlock()
}

func (t *LimitTable) markClean(id models.ActuatorID) {
	t.mu.Lock()
	t.records[id].Dirty = false
	t.mu.Unlock()
}
