package hardware

import (
	"sync"

	"skull_controller/internal/logger"
)

// Sim stands in for the PWM board and remembers the last duty per channel.
type Sim struct {
	mu   sync.Mutex
	duty [NumChannels]int
	set  [NumChannels]bool
	log  *logger.Logger
}

func NewSim(log *logger.Logger) *Sim {
	if log == nil {
		log = logger.Nop()
	}
	return &Sim{log: log}
}

func (s *Sim) SetDuty(channel, duty int) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	s.mu.Lock()
	s.duty[channel] = duty
	s.set[channel] = true
	s.mu.Unlock()
	s.log.Debugw("sim_duty_set", "channel", channel, "duty", duty)
	return nil
}

// Duty returns the last duty written to channel and whether one was written.
func (s *Sim) Duty(channel int) (int, bool) {
	if checkChannel(channel) != nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duty[channel], s.set[channel]
}

func (s *Sim) Close() error { return nil }
