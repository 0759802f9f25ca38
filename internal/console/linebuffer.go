package console

// Event reports what a fed byte did to the line buffer.
type Event int

const (
	EventNone     Event = iota // byte buffered, or ignored
	EventErased                // last buffered byte removed
	EventLine                  // end of line seen; the completed text is returned alongside
	EventOverflow              // end of line seen for a line that exceeded capacity; line discarded
)

// DefaultCapacity is the buffer size used when none is configured.
// One slot is reserved, so a line holds at most DefaultCapacity-1 bytes.
const DefaultCapacity = 80

// IsEOL is the default end-of-line predicate: carriage return or line feed.
func IsEOL(ch byte) bool {
	return ch == '\r' || ch == '\n'
}

// IsErase is the default erase-last predicate: backspace or delete.
func IsErase(ch byte) bool {
	return ch == '\b' || ch == 0x7f
}

// LineBuffer accumulates bytes until an end-of-line byte completes the line.
//
// A payload byte arriving while the buffer is full marks the line overflowed:
// the rest of the line is dropped and the next end-of-line reports
// EventOverflow instead of a line.
type LineBuffer struct {
	buf        []byte
	capacity   int
	overflowed bool

	isEOL   func(byte) bool
	isErase func(byte) bool
}

// LineOption customises a LineBuffer.
type LineOption func(*LineBuffer)

// WithEOL replaces the end-of-line predicate.
func WithEOL(fn func(byte) bool) LineOption {
	return func(b *LineBuffer) {
		if fn != nil {
			b.isEOL = fn
		}
	}
}

// WithErase replaces the erase-last predicate.
func WithErase(fn func(byte) bool) LineOption {
	return func(b *LineBuffer) {
		if fn != nil {
			b.isErase = fn
		}
	}
}

// NewLineBuffer creates a buffer of the given capacity (terminator slot included).
// Capacities below 2 fall back to DefaultCapacity.
func NewLineBuffer(capacity int, opts ...LineOption) *LineBuffer {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	b := &LineBuffer{
		buf:      make([]byte, 0, capacity-1),
		capacity: capacity,
		isEOL:    IsEOL,
		isErase:  IsErase,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Feed processes one byte. When it returns EventLine, line holds the completed
// text and the buffer has been reset.
func (b *LineBuffer) Feed(ch byte) (ev Event, line string) {
	switch {
	case b.isEOL(ch):
		if b.overflowed {
			b.Reset()
			return EventOverflow, ""
		}
		line = string(b.buf)
		b.Reset()
		return EventLine, line

	case b.isErase(ch):
		if b.overflowed || len(b.buf) == 0 {
			return EventNone, ""
		}
		b.buf = b.buf[:len(b.buf)-1]
		return EventErased, ""

	case b.overflowed:
		return EventNone, ""

	case len(b.buf) >= b.capacity-1:
		b.overflowed = true
		return EventNone, ""
	}

	b.buf = append(b.buf, ch)
	return EventNone, ""
}

// Len is the number of buffered payload bytes.
func (b *LineBuffer) Len() int {
	return len(b.buf)
}

// Overflowed reports whether the current line has exceeded capacity.
func (b *LineBuffer) Overflowed() bool {
	return b.overflowed
}

// Reset discards the current line.
func (b *LineBuffer) Reset() {
	b.buf = b.buf[:0]
	b.overflowed = false
}
