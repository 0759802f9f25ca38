package commands

import (
	"fmt"
	"strings"

	"skull_controller/internal/console"
	"skull_controller/internal/models"
	"skull_controller/internal/service"
)

const secretMask = "********"

func prefValue(p models.Preferences, key string) string {
	switch key {
	case service.KeyNetworkName:
		return p.NetworkName
	case service.KeyNetworkSecret:
		return secretMask
	case service.KeyDeviceName:
		return p.DeviceName
	case service.KeyPort:
		return fmt.Sprint(p.Port)
	}
	return ""
}

func (h *handlers) textPref(key string) console.Handler {
	set := map[string]func(string) error{
		service.KeyNetworkName:   h.svc.Prefs.SetNetworkName,
		service.KeyNetworkSecret: h.svc.Prefs.SetNetworkSecret,
		service.KeyDeviceName:    h.svc.Prefs.SetDeviceName,
	}[key]

	return func(r *console.Responder, tokens []string) error {
		if len(tokens) == 1 {
			r.Linef("%s %s", key, prefValue(h.svc.Prefs.Get(), key))
			return nil
		}
		if err := set(tokens[1]); err != nil {
			return err
		}
		h.prefChanged(r, key)
		return nil
	}
}

func (h *handlers) port(r *console.Responder, tokens []string) error {
	if len(tokens) == 1 {
		r.Linef("%s %d", service.KeyPort, h.svc.Prefs.Get().Port)
		return nil
	}
	v, err := console.DecodeInt("port", tokens[1], service.MinPort, service.MaxPort)
	if err != nil {
		return err
	}
	if err := h.svc.Prefs.SetPort(v); err != nil {
		return err
	}
	h.prefChanged(r, service.KeyPort)
	return nil
}

func (h *handlers) prefChanged(r *console.Responder, key string) {
	val := prefValue(h.svc.Prefs.Get(), key)
	h.record(models.EventPreference, fmt.Sprintf("%s set to %s", key, val), map[string]any{"key": key})
	r.Infof("%s set to %s", key, val)
}

// prefs dumps everything that is persisted, marking uncommitted keys.
func (h *handlers) prefs(r *console.Responder, _ []string) error {
	dirty := h.svc.Calibration.DirtyKeys()
	isDirty := make(map[string]bool, len(dirty))
	for _, k := range dirty {
		isDirty[k] = true
	}
	mark := func(key string) string {
		if isDirty[key] {
			return " (uncommitted)"
		}
		return ""
	}

	r.Linef("%s %d%s", service.KeyVersion, models.SchemaVersion, mark(service.KeyVersion))
	p := h.svc.Prefs.Get()
	for _, key := range []string{service.KeyNetworkName, service.KeyNetworkSecret, service.KeyDeviceName, service.KeyPort} {
		r.Linef("%s %s%s", key, prefValue(p, key), mark(key))
	}
	for _, id := range models.AllActuators() {
		rec, err := h.svc.Limits.Get(id)
		if err != nil {
			return err
		}
		r.Line(formatRecord(id, rec))
	}
	if len(dirty) == 0 {
		r.Line("dirty: none")
	} else {
		r.Linef("dirty: %s", strings.Join(dirty, " "))
	}
	return nil
}
