package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedMessage  = errors.New("protocol: malformed message")
	ErrContractViolation = errors.New("protocol: contract violation")
)

// ParseError reports why a raw line was rejected. Offset is the byte index
// in the raw line where parsing stopped.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("protocol: parse failed at offset %d: %s", e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedMessage
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}
