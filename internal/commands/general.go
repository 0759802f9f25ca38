package commands

import (
	"fmt"
	"strings"

	"skull_controller/internal/console"
)

func (h *handlers) verbose(r *console.Responder, tokens []string) error {
	if len(tokens) == 2 {
		switch strings.ToLower(tokens[1]) {
		case "on", "1":
			r.SetVerbose(true)
		case "off", "0":
			r.SetVerbose(false)
		default:
			return fmt.Errorf("verbose: expected on or off, got '%s'", tokens[1])
		}
	}
	state := "off"
	if r.Verbose() {
		state = "on"
	}
	r.Linef("verbose %s", state)
	return nil
}
