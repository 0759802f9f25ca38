package models

import (
	"errors"
	"strings"
)

// ActuatorID identifies one physical actuator of the head.
type ActuatorID int

const (
	Rotate ActuatorID = iota
	Jaw
	LeftLift
	RightLift
	LeftEye
	RightEye

	// NumActuators is the number of physical actuators.
	NumActuators = 6
)

var ErrUnknownActuator = errors.New("unknown actuator")

type actuatorInfo struct {
	name    string
	key     string // calibration store key
	channel int    // output on the PWM driver board
}

var actuators = [NumActuators]actuatorInfo{
	Rotate:    {name: "ROTATE", key: "rotate", channel: 1},
	Jaw:       {name: "JAW", key: "jaw", channel: 0},
	LeftLift:  {name: "LEFT", key: "left", channel: 2},
	RightLift: {name: "RIGHT", key: "right", channel: 3},
	LeftEye:   {name: "LEYE", key: "leye", channel: 4},
	RightEye:  {name: "REYE", key: "reye", channel: 5},
}

// AllActuators returns every physical actuator in identity order.
func AllActuators() []ActuatorID {
	return []ActuatorID{Rotate, Jaw, LeftLift, RightLift, LeftEye, RightEye}
}

// Valid reports whether id names a physical actuator.
func (id ActuatorID) Valid() bool {
	return id >= 0 && id < NumActuators
}

func (id ActuatorID) String() string {
	if !id.Valid() {
		return "UNKNOWN"
	}
	return actuators[id].name
}

// Key is the calibration store key of the actuator's record.
func (id ActuatorID) Key() string {
	if !id.Valid() {
		return ""
	}
	return actuators[id].key
}

// Channel is the hardware output the actuator is wired to.
func (id ActuatorID) Channel() int {
	if !id.Valid() {
		return -1
	}
	return actuators[id].channel
}

// IsEye reports whether the actuator is an eye, driven by intensity rather than angle.
func (id ActuatorID) IsEye() bool {
	return id == LeftEye || id == RightEye
}

var actuatorNames = map[string][]ActuatorID{
	"rot":      {Rotate},
	"rotate":   {Rotate},
	"jaw":      {Jaw},
	"left":     {LeftLift},
	"tiltnod1": {LeftLift},
	"right":    {RightLift},
	"tiltnod2": {RightLift},
	"leye":     {LeftEye},
	"reye":     {RightEye},
	// composites
	"eyes": {LeftEye, RightEye},
	"nod":  {LeftLift, RightLift},
}

// ParseActuator resolves an actuator name (case-insensitive) into the physical
// actuators it drives. Composite names expand to more than one identity.
func ParseActuator(name string) ([]ActuatorID, error) {
	ids, ok := actuatorNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrUnknownActuator
	}
	out := make([]ActuatorID, len(ids))
	copy(out, ids)
	return out, nil
}

// ParseSingleActuator resolves a name that must denote exactly one physical actuator.
func ParseSingleActuator(name string) (ActuatorID, error) {
	ids, err := ParseActuator(name)
	if err != nil {
		return -1, err
	}
	if len(ids) != 1 {
		return -1, ErrUnknownActuator
	}
	return ids[0], nil
}
