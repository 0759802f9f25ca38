package transport

import (
	"context"
	"io"
	"time"

	"go.bug.st/serial"

	"skull_controller/internal/console"
	"skull_controller/internal/logger"
)

const (
	DefaultBaudRate    = 115200
	defaultReadTimeout = 200 * time.Millisecond
	retryDelay         = time.Second
)

// SerialConfig describes the serial console.
type SerialConfig struct {
	Device   string
	BaudRate int
	Echo     bool
	Verbose  bool
	Capacity int
}

type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

var openPort = func(device string, baud int) (port, error) {
	return serial.Open(device, &serial.Mode{BaudRate: baud})
}

// RunSerial serves the console on a serial port until ctx is done, reopening
// the port after failures.
func RunSerial(ctx context.Context, cfg SerialConfig, disp *console.Dispatcher, log *logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	for ctx.Err() == nil {
		err := serveSerial(ctx, cfg, disp, log)
		if ctx.Err() != nil {
			return
		}
		log.Errorw("serial_loop_stopped", "device", cfg.Device, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func serveSerial(ctx context.Context, cfg SerialConfig, disp *console.Dispatcher, log *logger.Logger) error {
	p, err := openPort(cfg.Device, cfg.BaudRate)
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.SetReadTimeout(defaultReadTimeout); err != nil {
		return err
	}
	log.Infow("serial_console_open", "device", cfg.Device, "baud", cfg.BaudRate)

	sess := console.NewSession(disp, p, console.SessionOptions{
		Capacity: cfg.Capacity,
		Echo:     cfg.Echo,
		Verbose:  cfg.Verbose,
	})
	return Serve(ctx, "serial", p, sess, log)
}
