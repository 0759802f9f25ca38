// Package transport connects byte streams to console sessions.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"skull_controller/internal/console"
	"skull_controller/internal/logger"
)

const readChunk = 64

// Serve copies r into sess until EOF, a read or response error, or ctx is
// done. ctx is only checked between reads, so r should return periodically
// (a serial port with a read timeout does).
func Serve(ctx context.Context, name string, r io.Reader, sess *console.Session, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	buf := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := sess.Write(buf[:n]); werr != nil {
				log.Warnw("transport_write_failed", "transport", name, "error", werr)
				return fmt.Errorf("%s: write: %w", name, werr)
			}
		}
		if errors.Is(err, io.EOF) {
			log.Infow("transport_closed", "transport", name)
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: read: %w", name, err)
		}
	}
}
