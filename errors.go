package registers

import (
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")
var ErrSessionReleased = errors.New("bus session already released")
var ErrInvalidWidth = errors.New("register width must be between 1 and 8 bytes")
var ErrShortBuffer = errors.New("destination buffer shorter than requested count")

// Transaction phases reported in TransactionError.Op.
const (
	OpAcquire = "acquire"
	OpSelect  = "select"
	OpRead    = "read"
	OpWrite   = "write"
	OpRelease = "release"
)

// TransactionError reports a failed bus primitive during a register
// transaction.
type TransactionError struct {
	Op       string
	Device   uint16
	Register byte
	Err      error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s device %#02x register %#02x: %v", e.Op, e.Device, e.Register, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
