package a2s

import (
	"errors"
	"fmt"
)

// ErrMalformed is the base error for every decode failure. All more
// specific parse errors wrap it, so callers can match the whole class
// with errors.Is(err, ErrMalformed).
var ErrMalformed = errors.New("malformed response")

var (
	// ErrShortResponse is returned when a fixed-width read runs past
	// the end of the payload.
	ErrShortResponse = fmt.Errorf("%w: truncated payload", ErrMalformed)

	// ErrNoTerminator is returned when a string field has no zero byte
	// before the end of the payload.
	ErrNoTerminator = fmt.Errorf("%w: unterminated string", ErrMalformed)

	// ErrBadMarker is returned for datagrams that do not start with the
	// 0xFFFFFFFF simple-packet marker.
	ErrBadMarker = fmt.Errorf("%w: missing packet marker", ErrMalformed)

	// ErrEmptyChallenge is returned for a challenge reply with no token bytes.
	ErrEmptyChallenge = fmt.Errorf("%w: empty challenge token", ErrMalformed)

	// ErrClosed is returned for requests made on a closed client.
	ErrClosed = errors.New("client closed")
)

// UnknownTagError reports a response whose type tag is not one of the
// four the protocol defines.
type UnknownTagError struct {
	Tag byte
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("malformed response: unknown type tag 0x%02X", e.Tag)
}

// Unwrap makes UnknownTagError match ErrMalformed.
func (e *UnknownTagError) Unwrap() error {
	return ErrMalformed
}
