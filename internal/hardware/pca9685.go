package hardware

import (
	"fmt"
	"sync"
	"time"
)

const (
	DefaultAddress     = 0x40
	DefaultFrequencyHz = 50

	regMode1    = 0x00
	regLEDBase  = 0x06 // four registers per output: ON low/high, OFF low/high
	regPreScale = 0xfe

	mode1Sleep   = 0x11
	mode1Reset   = 0x01
	mode1Restart = 0x81

	oscillatorHz  = 25_000_000
	ticksPerCycle = 4096
	maxTicks      = ticksPerCycle - 1
)

// Bus writes device registers.
type Bus interface {
	WriteReg(reg byte, data []byte) error
	Close() error
}

// PCA9685 is a 16-channel 12-bit PWM controller.
type PCA9685 struct {
	mu     sync.Mutex
	bus    Bus
	freqHz int
}

// NewPCA9685 configures the controller on bus for freqHz (0 means 50 Hz).
func NewPCA9685(bus Bus, freqHz int) (*PCA9685, error) {
	if freqHz <= 0 {
		freqHz = DefaultFrequencyHz
	}
	p := &PCA9685{bus: bus, freqHz: freqHz}
	if err := p.configure(); err != nil {
		return nil, err
	}
	return p, nil
}

// prescale is the register value for freqHz: round(osc / (4096 * f)) - 1.
func prescale(freqHz int) byte {
	v := (oscillatorHz+ticksPerCycle*freqHz/2)/(ticksPerCycle*freqHz) - 1
	if v < 3 {
		v = 3
	}
	if v > 0xff {
		v = 0xff
	}
	return byte(v)
}

func (p *PCA9685) configure() error {
	steps := []struct {
		reg  byte
		val  byte
		what string
	}{
		{regMode1, mode1Sleep, "sleep"},
		{regPreScale, prescale(p.freqHz), "prescale"},
		{regMode1, mode1Reset, "reset"},
	}
	for _, s := range steps {
		if err := p.bus.WriteReg(s.reg, []byte{s.val}); err != nil {
			return fmt.Errorf("pca9685 %s: %w", s.what, err)
		}
	}
	// oscillator needs 500us after leaving sleep
	time.Sleep(time.Millisecond)
	if err := p.bus.WriteReg(regMode1, []byte{mode1Restart}); err != nil {
		return fmt.Errorf("pca9685 enable: %w", err)
	}
	return nil
}

func (p *PCA9685) FrequencyHz() int {
	return p.freqHz
}

// PulseToTicks converts a pulse width in microseconds to the 12-bit OFF count
// at freqHz.
func PulseToTicks(us, freqHz int) int {
	if us <= 0 {
		return 0
	}
	ticks := int(int64(us) * int64(freqHz) * ticksPerCycle / 1_000_000)
	if ticks > maxTicks {
		ticks = maxTicks
	}
	return ticks
}

// SetDuty sets channel's pulse width in microseconds.
func (p *PCA9685) SetDuty(channel, duty int) error {
	if err := checkChannel(channel); err != nil {
		return err
	}
	ticks := PulseToTicks(duty, p.freqHz)
	reg := byte(regLEDBase + 4*channel)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.bus.WriteReg(reg, []byte{0, 0, byte(ticks & 0xff), byte(ticks >> 8)}); err != nil {
		return fmt.Errorf("pca9685 channel %d: %w", channel, err)
	}
	return nil
}

func (p *PCA9685) Close() error {
	return p.bus.Close()
}
