// Package serial provides line oriented access to UART attached devices.
// Device drivers depend only on Port, tests use MockPort.
package serial

import (
	"time"

	"github.com/juju/errors"
)

type Port interface {
	// WriteAll blocks until p is written or error.
	WriteAll(p []byte) error
	// ReadLine returns bytes up to and including '\n'.
	// Returns error with Timeout()=true if no full line within timeout.
	ReadLine(timeout time.Duration) ([]byte, error)
	// Clear discards buffered input and output, both in driver and kernel.
	Clear() error
	Close() error
}

type ErrTimeoutT string

type Timeouter interface {
	Timeout() bool
}

func (e ErrTimeoutT) Error() string { return string(e) }
func (ErrTimeoutT) Timeout() bool   { return true }

const ErrTimeout = ErrTimeoutT("serial read timeout")

func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	t, ok := errors.Cause(err).(Timeouter)
	return ok && t.Timeout()
}
