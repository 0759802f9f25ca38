package models

// CalibrationRecord maps one actuator's logical range onto its duty range.
type CalibrationRecord struct {
	DutyMin  int  `json:"duty_min"`  // pulse width in microseconds at AngleMin
	DutyMax  int  `json:"duty_max"`  // pulse width in microseconds at AngleMax
	AngleMin int  `json:"angle_min"` // degrees, or intensity percent for eyes
	AngleMax int  `json:"angle_max"`
	Dirty    bool `json:"dirty"` // changed since the last successful commit
}

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies inside the interval.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Envelope is the absolute physical limit an actuator's calibration must stay within.
type Envelope struct {
	Duty  Range `json:"duty"`
	Angle Range `json:"angle"`
}

const (
	// DutyLimit is the largest duty value the driver accepts.
	DutyLimit = 4095

	defaultDutyMin = 500
	defaultDutyMax = 2600
)

var (
	motionEnvelope = Envelope{Duty: Range{0, DutyLimit}, Angle: Range{-180, 180}}
	eyeEnvelope    = Envelope{Duty: Range{0, DutyLimit}, Angle: Range{0, 100}}
)

// EnvelopeFor returns the physical envelope of id.
func EnvelopeFor(id ActuatorID) Envelope {
	if id.IsEye() {
		return eyeEnvelope
	}
	return motionEnvelope
}

// DefaultCalibration returns the built-in record for id (based on an HS-318 servo).
func DefaultCalibration(id ActuatorID) CalibrationRecord {
	rec := CalibrationRecord{DutyMin: defaultDutyMin, DutyMax: defaultDutyMax}
	switch id {
	case Rotate:
		rec.AngleMin, rec.AngleMax = -90, 90
	case Jaw:
		rec.AngleMin, rec.AngleMax = 0, 60
	case LeftLift, RightLift:
		rec.AngleMin, rec.AngleMax = -45, 45
	case LeftEye, RightEye:
		rec.AngleMin, rec.AngleMax = 0, 100
	}
	return rec
}

// ActuatorStatus is a read-only view of one actuator for status listings.
type ActuatorStatus struct {
	ID          ActuatorID        `json:"-"`
	Name        string            `json:"name"`
	Channel     int               `json:"channel"`
	Angle       int               `json:"angle"`
	Duty        int               `json:"duty"`
	Calibration CalibrationRecord `json:"calibration"`
}
