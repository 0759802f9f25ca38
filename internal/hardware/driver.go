// Package hardware applies duty values to the actuator outputs.
package hardware

import (
	"errors"
	"fmt"

	"skull_controller/internal/logger"
)

// Driver sets the duty of one output channel. Duty is a pulse width in
// microseconds.
type Driver interface {
	SetDuty(channel, duty int) error
	Close() error
}

const (
	KindPCA9685 = "pca9685"
	KindSim     = "sim"

	// NumChannels is the number of outputs on a PCA9685 board.
	NumChannels = 16
)

var ErrChannelRange = errors.New("channel out of range")

// Config selects and configures the driver.
type Config struct {
	Kind        string
	Device      string // i2c character device, e.g. /dev/i2c-1
	Address     int
	FrequencyHz int
}

// Open returns the configured driver. A PCA9685 that cannot be opened falls
// back to the simulator so the console stays usable; the open error is logged.
func Open(cfg Config, log *logger.Logger) Driver {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.Kind {
	case KindPCA9685:
		bus, err := OpenI2C(cfg.Device, cfg.Address)
		if err != nil {
			log.Errorw("pwm_driver_open_failed", "device", cfg.Device, "address", fmt.Sprintf("0x%02x", cfg.Address), "error", err)
			break
		}
		drv, err := NewPCA9685(bus, cfg.FrequencyHz)
		if err != nil {
			_ = bus.Close()
			log.Errorw("pwm_driver_configure_failed", "device", cfg.Device, "error", err)
			break
		}
		log.Infow("pwm_driver_ready", "device", cfg.Device, "frequency_hz", drv.FrequencyHz())
		return drv
	case KindSim, "":
	default:
		log.Warnw("pwm_driver_unknown", "kind", cfg.Kind)
	}
	log.Infow("pwm_driver_simulated")
	return NewSim(log)
}

func checkChannel(channel int) error {
	if channel < 0 || channel >= NumChannels {
		return fmt.Errorf("%w: %d", ErrChannelRange, channel)
	}
	return nil
}
