package console

import (
	"errors"
	"io"
)

// EraseAck is echoed after a successful erase on echoing transports.
const EraseAck = "\b \b"

var ErrLineTooLong = errors.New("line too long")

// SessionOptions configures one console session.
type SessionOptions struct {
	Capacity int  // line buffer capacity, terminator slot included
	Echo     bool // echo input and erase acknowledgements
	Verbose  bool
	IsEOL    func(byte) bool
	IsErase  func(byte) bool
}

// Session feeds one transport's characters through its own line buffer into
// the shared dispatcher and writes responses back to the same transport.
type Session struct {
	buf  *LineBuffer
	resp *Responder
	disp *Dispatcher
	echo bool
}

func NewSession(disp *Dispatcher, w io.Writer, opts SessionOptions) *Session {
	return &Session{
		buf:  NewLineBuffer(opts.Capacity, WithEOL(opts.IsEOL), WithErase(opts.IsErase)),
		resp: NewResponder(w, opts.Verbose),
		disp: disp,
		echo: opts.Echo,
	}
}

func (s *Session) Responder() *Responder {
	return s.resp
}

// Feed processes one input byte. The outcome is OutcomeEmpty unless the byte
// completed a line that reached the dispatcher.
func (s *Session) Feed(ch byte) Outcome {
	wasFull := s.buf.Overflowed()
	ev, line := s.buf.Feed(ch)

	switch ev {
	case EventErased:
		if s.echo {
			_, _ = io.WriteString(s.resp, EraseAck)
		}
		return OutcomeEmpty

	case EventOverflow:
		if s.echo {
			_, _ = io.WriteString(s.resp, Newline)
		}
		s.resp.Fail(ErrLineTooLong)
		return OutcomeFailed

	case EventLine:
		if s.echo {
			_, _ = io.WriteString(s.resp, Newline)
		}
		return s.disp.Dispatch(s.resp, Tokenize(line))
	}

	// echo only bytes that made it into the buffer
	if s.echo && !wasFull && !s.buf.Overflowed() && !s.buf.isErase(ch) {
		_, _ = s.resp.Write([]byte{ch})
	}
	return OutcomeEmpty
}

// Write feeds every byte of p, so a transport can io.Copy into a session.
// It stops early if the response writer has failed.
func (s *Session) Write(p []byte) (int, error) {
	for i, ch := range p {
		s.Feed(ch)
		if err := s.resp.Err(); err != nil {
			return i + 1, err
		}
	}
	return len(p), nil
}

// ExecLine dispatches one complete line, bypassing the line buffer.
func (s *Session) ExecLine(line string) Outcome {
	return s.disp.Dispatch(s.resp, Tokenize(line))
}
