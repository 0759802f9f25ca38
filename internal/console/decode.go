package console

import (
	"errors"
	"fmt"
	"strconv"
)

// DecodeKind classifies why a token could not be decoded.
type DecodeKind int

const (
	KindNotNumber  DecodeKind = iota + 1 // no numeric prefix
	KindTrailing                         // numeric prefix followed by other characters
	KindOverflow                         // does not fit the target width
	KindOutOfRange                       // outside the caller's [min, max]
)

func (k DecodeKind) String() string {
	switch k {
	case KindNotNumber:
		return "not a number"
	case KindTrailing:
		return "trailing characters"
	case KindOverflow:
		return "overflow"
	case KindOutOfRange:
		return "out of range"
	default:
		return "unknown"
	}
}

// DecodeError describes a rejected argument token.
type DecodeError struct {
	Label string
	Token string
	Kind  DecodeKind
	Min   int64
	Max   int64
}

func (e *DecodeError) Error() string {
	var msg string
	switch e.Kind {
	case KindNotNumber:
		msg = fmt.Sprintf("%q is not a number", e.Token)
	case KindTrailing:
		msg = fmt.Sprintf("%q has trailing characters", e.Token)
	case KindOverflow:
		msg = fmt.Sprintf("%q is too large", e.Token)
	case KindOutOfRange:
		msg = fmt.Sprintf("%s is out of range [%d..%d]", e.Token, e.Min, e.Max)
	default:
		msg = fmt.Sprintf("%q is invalid", e.Token)
	}
	if e.Label == "" {
		return msg
	}
	return e.Label + ": " + msg
}

// IsDecodeKind reports whether err is a *DecodeError of the given kind.
func IsDecodeKind(err error, kind DecodeKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}

// ParseInt decodes token as a base-10 signed integer of bitSize bits that must
// lie in [min, max]. An optional leading sign is accepted; anything else
// besides digits fails. On failure the returned value is zero.
func ParseInt(token string, bitSize int, min, max int64) (int64, error) {
	end := 0
	if end < len(token) && (token[end] == '+' || token[end] == '-') {
		end++
	}
	digits := end
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, &DecodeError{Token: token, Kind: KindNotNumber, Min: min, Max: max}
	}
	if end != len(token) {
		return 0, &DecodeError{Token: token, Kind: KindTrailing, Min: min, Max: max}
	}

	v, err := strconv.ParseInt(token, 10, bitSize)
	if err != nil {
		return 0, &DecodeError{Token: token, Kind: KindOverflow, Min: min, Max: max}
	}
	if v < min || v > max {
		return 0, &DecodeError{Token: token, Kind: KindOutOfRange, Min: min, Max: max}
	}
	return v, nil
}

// DecodeInt decodes a 32-bit argument in [min, max]; label names the argument
// in the error text.
func DecodeInt(label, token string, min, max int) (int, error) {
	v, err := ParseInt(token, 32, int64(min), int64(max))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Label = label
		}
		return 0, err
	}
	return int(v), nil
}
