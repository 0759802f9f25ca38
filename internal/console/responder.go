package console

import (
	"fmt"
	"io"
)

const (
	MarkerOK  = "*OK"
	MarkerErr = "*ERR"

	// Newline terminates every response line.
	Newline = "\r\n"
)

// Responder writes response lines for one session.
// Only the first write error is kept; later writes are skipped.
type Responder struct {
	w       io.Writer
	verbose bool
	err     error
}

func NewResponder(w io.Writer, verbose bool) *Responder {
	return &Responder{w: w, verbose: verbose}
}

func (r *Responder) Verbose() bool {
	return r.verbose
}

func (r *Responder) SetVerbose(v bool) {
	r.verbose = v
}

// Err returns the first write error seen.
func (r *Responder) Err() error {
	return r.err
}

// Write passes raw bytes through, used for echo.
func (r *Responder) Write(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.w.Write(p)
	if err != nil {
		r.err = err
	}
	return n, err
}

// Line writes s followed by Newline.
func (r *Responder) Line(s string) {
	_, _ = io.WriteString(r, s+Newline)
}

func (r *Responder) Linef(format string, args ...any) {
	r.Line(fmt.Sprintf(format, args...))
}

// Infof writes a line only when the session is verbose.
func (r *Responder) Infof(format string, args ...any) {
	if r.verbose {
		r.Linef(format, args...)
	}
}

// OK writes the success marker.
func (r *Responder) OK() {
	r.Line(MarkerOK)
}

// Fail writes err (if any) as a line, then the failure marker.
func (r *Responder) Fail(err error) {
	if err != nil {
		r.Line(err.Error())
	}
	r.Line(MarkerErr)
}
