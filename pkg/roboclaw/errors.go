package roboclaw

import (
	"errors"
	"fmt"
)

// Invalid is the sentinel of a value not received correctly.
const Invalid int64 = -1

var (
	// ErrChecksum indicates the verification byte of a reply doesn't match.
	// Values returned along with it are the Invalid sentinel.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrClosed indicates an operation on a closed device.
	ErrClosed = errors.New("device closed")
)

// TransportError wraps I/O faults of the underlying transport.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s timeout: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError determines if err is caused by the transport.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ArgsError indicates the number of arguments doesn't match the command.
type ArgsError struct {
	Op       Opcode
	Expected int
	Actual   int
}

// Error implements error.
func (e *ArgsError) Error() string {
	return fmt.Sprintf("%v expects %d arguments, got %d", e.Op, e.Expected, e.Actual)
}
