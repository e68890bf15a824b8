package bootloader

import (
	"errors"
	"fmt"
)

// ErrFlagWriteTimeout indicates that the persisted flag stayed busy longer
// than the configured bound.
var ErrFlagWriteTimeout = errors.New("flag write did not complete")

// VerifyError indicates that a programmed byte read back differently.
type VerifyError struct {
	Address uint32
	Want    byte
	Got     byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify failed at 0x%04X: wrote 0x%02X, read back 0x%02X",
		e.Address, e.Want, e.Got)
}

// AddressOutOfRangeError indicates that a block would not fit in the
// application region.
type AddressOutOfRangeError struct {
	Address uint32
	Start   uint32
	End     uint32
}

func (e *AddressOutOfRangeError) Error() string {
	return fmt.Sprintf("block at 0x%04X is out of range: application region is 0x%04X-0x%04X",
		e.Address, e.Start, e.End)
}

// PageSizeError indicates a program memory page size the block writer
// cannot stage whole blocks into.
type PageSizeError struct {
	PageSize int
}

func (e *PageSizeError) Error() string {
	return fmt.Sprintf("page size %d does not divide the block size", e.PageSize)
}
