package service

import (
	"fmt"
	"sync"

	"skull_controller/internal/logger"
	"skull_controller/internal/models"

	"go.uber.org/multierr"
)

// Driver applies a duty value to one hardware output.
type Driver interface {
	SetDuty(channel, duty int) error
}

type position struct {
	angle     int
	duty      int
	commanded bool
}

// Mapper converts logical angles into duty values using the limit table and
// drives the hardware. It remembers the last commanded angle per actuator.
type Mapper struct {
	limits *LimitTable
	driver Driver
	log    *logger.Logger

	mu        sync.RWMutex
	positions [models.NumActuators]position
}

func NewMapper(limits *LimitTable, driver Driver, log *logger.Logger) *Mapper {
	if log == nil {
		log = logger.Nop()
	}
	return &Mapper{limits: limits, driver: driver, log: log}
}

// clampAndMap clamps angle into the record's range and maps it linearly onto
// the duty range.
func clampAndMap(rec models.CalibrationRecord, angle int) (clamped, duty int) {
	clamped = angle
	if clamped < rec.AngleMin {
		clamped = rec.AngleMin
	}
	if clamped > rec.AngleMax {
		clamped = rec.AngleMax
	}
	span := rec.AngleMax - rec.AngleMin
	if span <= 0 {
		return clamped, rec.DutyMin
	}
	duty = rec.DutyMin + (clamped-rec.AngleMin)*(rec.DutyMax-rec.DutyMin)/span
	return clamped, duty
}

// Duty returns the duty value angle maps to for id, without driving anything.
func (m *Mapper) Duty(id models.ActuatorID, angle int) (int, error) {
	rec, err := m.limits.Get(id)
	if err != nil {
		return 0, err
	}
	_, duty := clampAndMap(rec, angle)
	return duty, nil
}

// SetAngle clamps angle into id's range, drives the mapped duty and records
// the clamped angle. Out-of-range input is clamped, never rejected.
func (m *Mapper) SetAngle(id models.ActuatorID, angle int) error {
	rec, err := m.limits.Get(id)
	if err != nil {
		return err
	}
	clamped, duty := clampAndMap(rec, angle)

	if err := m.driver.SetDuty(id.Channel(), duty); err != nil {
		m.log.Errorw("actuator_drive_failed", "actuator", id.String(), "channel", id.Channel(), "duty", duty, "error", err)
		return fmt.Errorf("drive %s: %w", id, err)
	}

	m.mu.Lock()
	m.positions[id] = position{angle: clamped, duty: duty, commanded: true}
	m.mu.Unlock()

	m.log.Debugw("actuator_moved", "actuator", id.String(), "angle", clamped, "requested", angle, "duty", duty)
	return nil
}

// SetAngles drives every id independently; all are attempted and the
// failures are combined.
func (m *Mapper) SetAngles(ids []models.ActuatorID, angle int) error {
	var err error
	for _, id := range ids {
		err = multierr.Append(err, m.SetAngle(id, angle))
	}
	return err
}

// Angle returns the last commanded angle of id (0 before the first command).
func (m *Mapper) Angle(id models.ActuatorID) (int, error) {
	if !id.Valid() {
		return 0, models.ErrUnknownActuator
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positions[id].angle, nil
}

// Status lists every actuator with its last angle, duty and calibration.
func (m *Mapper) Status() []models.ActuatorStatus {
	recs := m.limits.All()

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ActuatorStatus, 0, models.NumActuators)
	for _, id := range models.AllActuators() {
		out = append(out, models.ActuatorStatus{
			ID:          id,
			Name:        id.String(),
			Channel:     id.Channel(),
			Angle:       m.positions[id].angle,
			Duty:        m.positions[id].duty,
			Calibration: recs[id],
		})
	}
	return out
}
