package sender

import (
	"errors"
	"fmt"
)

var (
	// ErrHandshakeTimeout indicates that no ready probe arrived in time.
	ErrHandshakeTimeout = errors.New("no ready probe from device")

	// ErrCancelled indicates that the device cancelled the transfer with CAN.
	ErrCancelled = errors.New("transfer cancelled by device")

	// ErrEOTNotAcknowledged indicates that the device never acknowledged EOT.
	ErrEOTNotAcknowledged = errors.New("end of transmission not acknowledged")
)

// RetryLimitError indicates that a block was not acknowledged within the
// retry limit.
type RetryLimitError struct {
	// Block is the 1-based index of the block in the image
	Block int

	// Attempts is the number of times the block was sent
	Attempts int

	// TimedOut reports whether the last attempt got no reply at all
	TimedOut bool
}

func (e *RetryLimitError) Error() string {
	last := "NAK"
	if e.TimedOut {
		last = "timeout"
	}
	return fmt.Sprintf("block %d not acknowledged after %d attempts (last reply: %s)",
		e.Block, e.Attempts, last)
}
