package commands

import (
	"fmt"
	"strings"

	"skull_controller/internal/console"
	"skull_controller/internal/models"
)

// Decode bounds for limit arguments. The per-actuator envelope is checked by
// the limit table.
const (
	angleDecodeMin = -180
	angleDecodeMax = 180
)

func formatRecord(id models.ActuatorID, rec models.CalibrationRecord) string {
	s := fmt.Sprintf("%-6s duty %d..%d angle %d..%d", id, rec.DutyMin, rec.DutyMax, rec.AngleMin, rec.AngleMax)
	if rec.Dirty {
		s += " (uncommitted)"
	}
	return s
}

func (h *handlers) setLimit(r *console.Responder, tokens []string) error {
	ids, err := parseActuators(tokens[1])
	if err != nil {
		return err
	}
	lo, err := console.DecodeInt("min", tokens[2], 0, models.DutyLimit)
	if err != nil {
		return err
	}
	hi, err := console.DecodeInt("max", tokens[3], 0, models.DutyLimit)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := h.svc.Limits.SetLimits(id, lo, hi); err != nil {
			return err
		}
		h.record(models.EventCalibration, fmt.Sprintf("%s duty range set to %d..%d", id, lo, hi),
			map[string]any{"actuator": id.String(), "duty_min": lo, "duty_max": hi})
		r.Infof("%s duty range %d..%d", id, lo, hi)
	}
	return nil
}

func (h *handlers) setAngleLimits(r *console.Responder, tokens []string) error {
	ids, err := parseActuators(tokens[1])
	if err != nil {
		return err
	}
	lo, err := console.DecodeInt("min", tokens[2], angleDecodeMin, angleDecodeMax)
	if err != nil {
		return err
	}
	hi, err := console.DecodeInt("max", tokens[3], angleDecodeMin, angleDecodeMax)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := h.svc.Limits.SetAngleLimits(id, lo, hi); err != nil {
			return err
		}
		h.record(models.EventCalibration, fmt.Sprintf("%s angle range set to %d..%d", id, lo, hi),
			map[string]any{"actuator": id.String(), "angle_min": lo, "angle_max": hi})
		r.Infof("%s angle range %d..%d", id, lo, hi)
	}
	return nil
}

func (h *handlers) getLimit(r *console.Responder, tokens []string) error {
	ids, err := parseActuators(tokens[1])
	if err != nil {
		return err
	}
	for _, id := range ids {
		rec, err := h.svc.Limits.Get(id)
		if err != nil {
			return err
		}
		r.Line(formatRecord(id, rec))
	}
	return nil
}

func (h *handlers) commit(r *console.Responder, _ []string) error {
	if len(h.svc.Calibration.DirtyKeys()) == 0 {
		r.Infof("nothing to commit")
		return nil
	}
	ctx, cancel := h.storeCtx()
	defer cancel()
	written, err := h.svc.Calibration.Commit(ctx)
	if err != nil {
		return err
	}
	r.Infof("committed %s", strings.Join(written, " "))
	return nil
}

func (h *handlers) reset(r *console.Responder, _ []string) error {
	ctx, cancel := h.storeCtx()
	defer cancel()
	if _, err := h.svc.Calibration.LoadAll(ctx, true); err != nil {
		return err
	}
	r.Infof("defaults loaded, commit to keep them")
	return nil
}

func (h *handlers) reload(r *console.Responder, _ []string) error {
	ctx, cancel := h.storeCtx()
	defer cancel()
	rep, err := h.svc.Calibration.LoadAll(ctx, false)
	if err != nil {
		return err
	}
	switch {
	case rep.FullReset:
		r.Infof("storage unusable (%s), defaults loaded", rep.Reason)
	case len(rep.Defaulted) > 0:
		r.Infof("reloaded, defaults used for %s", strings.Join(rep.Defaulted, " "))
	default:
		r.Infof("reloaded")
	}
	return nil
}
