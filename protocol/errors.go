package protocol

import (
	"errors"
	"fmt"
)

// Reason identifies why a packet was rejected.
type Reason int

const (
	// ReasonChecksum means the trailer did not match the payload
	ReasonChecksum Reason = iota + 1

	// ReasonBlockPair means the block number and its complement do not sum to 0xFF
	ReasonBlockPair
)

func (r Reason) String() string {
	switch r {
	case ReasonChecksum:
		return "checksum mismatch"
	case ReasonBlockPair:
		return "block number pair mismatch"
	default:
		return fmt.Sprintf("unknown reason %d", int(r))
	}
}

// RejectError describes a packet that was answered with NAK.
type RejectError struct {
	// Number and Complement are the block number bytes as received
	Number     byte
	Complement byte

	// Reason is the failed check
	Reason Reason

	// Got is the received trailer, Want the value computed over the payload.
	// Both are zero for ReasonBlockPair.
	Got  uint16
	Want uint16
}

func (e *RejectError) Error() string {
	if e.Reason == ReasonBlockPair {
		return fmt.Sprintf("block %d rejected: %s (0x%02X + 0x%02X != 0xFF)",
			e.Number, e.Reason, e.Number, e.Complement)
	}
	return fmt.Sprintf("block %d rejected: %s (got 0x%04X, want 0x%04X)",
		e.Number, e.Reason, e.Got, e.Want)
}

// IsRejectError returns true if the error is a RejectError.
func IsRejectError(err error) bool {
	var rej *RejectError
	return errors.As(err, &rej)
}
