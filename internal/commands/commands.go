// Package commands builds the console command table on top of the service layer.
package commands

import (
	"context"
	"fmt"
	"time"

	"skull_controller/internal/console"
	"skull_controller/internal/logger"
	"skull_controller/internal/models"
	"skull_controller/internal/service"
)

// DefaultStoreTimeout bounds commit, reset and reload.
const DefaultStoreTimeout = 5 * time.Second

// Options tune the registered handlers.
type Options struct {
	StoreTimeout time.Duration
	Logger       *logger.Logger
}

type handlers struct {
	svc     *service.Service
	log     *logger.Logger
	timeout time.Duration
}

// Register appends every console command to t. Commands sharing a name are
// told apart by token count.
func Register(t *console.Table, svc *service.Service, opts Options) {
	h := &handlers{svc: svc, log: opts.Logger, timeout: opts.StoreTimeout}
	if h.log == nil {
		h.log = logger.Nop()
	}
	if h.timeout <= 0 {
		h.timeout = DefaultStoreTimeout
	}

	help := func(r *console.Responder, _ []string) error {
		t.WriteHelp(r)
		return nil
	}

	t.Section("General")
	t.MustRegister(
		console.Command{Name: "?", MinTokens: 1, MaxTokens: console.MaxTokens, Handler: help, Help: "this help list"},
		console.Command{Name: "help", MinTokens: 1, MaxTokens: console.MaxTokens, Handler: help, Help: "this help list"},
		console.Command{Name: "verbose", MinTokens: 1, MaxTokens: 2, Handler: h.verbose, Help: "verbose [on|off]  explain successful commands"},
		console.Command{Name: "stat", MinTokens: 1, MaxTokens: 1, Handler: h.stat, Help: "last angle and duty of every actuator"},
		console.Command{Name: "prefs", MinTokens: 1, MaxTokens: 1, Handler: h.prefs, Help: "dump preferences and calibration"},
	)

	t.Section("Calibration (actuators: rot, jaw, left, right, leye, reye, eyes, nod)")
	t.MustRegister(
		console.Command{Name: "setlimit", MinTokens: 4, MaxTokens: 4, Handler: h.setLimit, Help: "setlimit <act> <min> <max>  duty range in us"},
		console.Command{Name: "getlimit", MinTokens: 2, MaxTokens: 2, Handler: h.getLimit, Help: "getlimit <act>  show calibration"},
		console.Command{Name: "limit", MinTokens: 2, MaxTokens: 2, Handler: h.getLimit, Help: "limit <act>  same as getlimit"},
		console.Command{Name: "limit", MinTokens: 4, MaxTokens: 4, Handler: h.setLimit, Help: "limit <act> <min> <max>  same as setlimit"},
		console.Command{Name: "setangle", MinTokens: 4, MaxTokens: 4, Handler: h.setAngleLimits, Help: "setangle <act> <min> <max>  logical range"},
		console.Command{Name: "commit", MinTokens: 1, MaxTokens: 1, Handler: h.commit, Help: "write changes to storage"},
		console.Command{Name: "reset", MinTokens: 1, MaxTokens: 1, Handler: h.reset, Help: "load defaults (commit to keep)"},
		console.Command{Name: "reload", MinTokens: 1, MaxTokens: 1, Handler: h.reload, Help: "discard changes, reload storage"},
	)

	t.Section("Motion")
	t.MustRegister(
		console.Command{Name: "move", MinTokens: 3, MaxTokens: 3, Handler: h.move, Help: "move <act> <angle>"},
		console.Command{Name: "getangle", MinTokens: 2, MaxTokens: 2, Handler: h.getAngle, Help: "getangle <act>  last commanded angle"},
	)
	for _, name := range []string{"rot", "jaw", "left", "right", "leye", "reye", "eyes", "nod"} {
		t.MustRegister(console.Command{
			Name:      name,
			MinTokens: 1,
			MaxTokens: 2,
			Handler:   h.actuator(name),
			Help:      fmt.Sprintf("%s [angle]  read or move", name),
		})
	}

	t.Section("Preferences")
	t.MustRegister(
		console.Command{Name: "ssid", MinTokens: 1, MaxTokens: 2, Handler: h.textPref(service.KeyNetworkName), Help: "ssid [value]  network name"},
		console.Command{Name: "pass", MinTokens: 1, MaxTokens: 2, Handler: h.textPref(service.KeyNetworkSecret), Help: "pass [value]  network secret"},
		console.Command{Name: "name", MinTokens: 1, MaxTokens: 2, Handler: h.textPref(service.KeyDeviceName), Help: "name [value]  device name"},
		console.Command{Name: "port", MinTokens: 1, MaxTokens: 2, Handler: h.port, Help: "port [value]  network port"},
	)
}

// storeCtx bounds one store round trip started from a console line.
func (h *handlers) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.timeout)
}

func (h *handlers) record(typ, desc string, meta any) {
	if h.svc.EventLog == nil {
		return
	}
	ctx, cancel := h.storeCtx()
	defer cancel()
	h.svc.EventLog.Record(ctx, typ, desc, meta)
}

func parseActuators(token string) ([]models.ActuatorID, error) {
	ids, err := models.ParseActuator(token)
	if err != nil {
		return nil, fmt.Errorf("%w '%s'", err, token)
	}
	return ids, nil
}

func parseActuator(token string) (models.ActuatorID, error) {
	id, err := models.ParseSingleActuator(token)
	if err != nil {
		return id, fmt.Errorf("%w '%s'", err, token)
	}
	return id, nil
}
