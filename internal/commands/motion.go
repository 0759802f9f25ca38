package commands

import (
	"math"

	"skull_controller/internal/console"
	"skull_controller/internal/models"
)

// decodeAngle accepts any 32-bit value; the mapper clamps.
func decodeAngle(token string) (int, error) {
	return console.DecodeInt("angle", token, math.MinInt32, math.MaxInt32)
}

func (h *handlers) drive(r *console.Responder, ids []models.ActuatorID, angle int) error {
	if err := h.svc.Mapper.SetAngles(ids, angle); err != nil {
		return err
	}
	for _, id := range ids {
		got, _ := h.svc.Mapper.Angle(id)
		r.Infof("%s at %d", id, got)
	}
	return nil
}

func (h *handlers) writeAngles(r *console.Responder, ids []models.ActuatorID) error {
	for _, id := range ids {
		angle, err := h.svc.Mapper.Angle(id)
		if err != nil {
			return err
		}
		r.Linef("%s %d", id, angle)
	}
	return nil
}

func (h *handlers) move(r *console.Responder, tokens []string) error {
	ids, err := parseActuators(tokens[1])
	if err != nil {
		return err
	}
	angle, err := decodeAngle(tokens[2])
	if err != nil {
		return err
	}
	return h.drive(r, ids, angle)
}

func (h *handlers) getAngle(r *console.Responder, tokens []string) error {
	id, err := parseActuator(tokens[1])
	if err != nil {
		return err
	}
	return h.writeAngles(r, []models.ActuatorID{id})
}

// actuator handles the per-actuator shorthands: "jaw" reads, "jaw 30" moves.
func (h *handlers) actuator(name string) console.Handler {
	return func(r *console.Responder, tokens []string) error {
		ids, err := parseActuators(name)
		if err != nil {
			return err
		}
		if len(tokens) == 1 {
			return h.writeAngles(r, ids)
		}
		angle, err := decodeAngle(tokens[1])
		if err != nil {
			return err
		}
		return h.drive(r, ids, angle)
	}
}

func (h *handlers) stat(r *console.Responder, _ []string) error {
	for _, st := range h.svc.Mapper.Status() {
		r.Linef("%-6s ch %2d angle %4d duty %4d", st.Name, st.Channel, st.Angle, st.Duty)
	}
	return nil
}
