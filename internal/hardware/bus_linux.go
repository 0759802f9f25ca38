//go:build linux

package hardware

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request selecting the target address on an i2c-dev descriptor.
const i2cSlave = 0x0703

// I2C is a register-oriented handle on a Linux i2c-dev device.
type I2C struct {
	mu sync.Mutex
	fd int
}

// OpenI2C opens device and binds it to the 7-bit address addr.
func OpenI2C(device string, addr int) (*I2C, error) {
	if device == "" {
		return nil, fmt.Errorf("i2c: empty device path")
	}
	if addr <= 0 || addr > 0x7f {
		return nil, fmt.Errorf("i2c: address 0x%x out of range", addr)
	}
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c open %s: %w", device, err)
	}
	if err := unix.IoctlSetInt(fd, i2cSlave, addr); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("i2c select 0x%02x: %w", addr, err)
	}
	return &I2C{fd: fd}, nil
}

func (b *I2C) WriteReg(reg byte, data []byte) error {
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, reg)
	buf = append(buf, data...)

	b.mu.Lock()
	defer b.mu.Unlock()
	n, err := unix.Write(b.fd, buf)
	if err != nil {
		return fmt.Errorf("i2c write reg 0x%02x: %w", reg, err)
	}
	if n != len(buf) {
		return fmt.Errorf("i2c write reg 0x%02x: short write %d/%d", reg, n, len(buf))
	}
	return nil
}

func (b *I2C) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return unix.Close(b.fd)
}
