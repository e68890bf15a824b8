package bootloader

import (
	"time"

	"github.com/moffa90/go-xmboot/protocol"
)

// Persisted flag values.
const (
	// FlagErased is the erased state of the flag byte: no valid application
	FlagErased = 0xFF

	// FlagProgrammed is the marker written after a successful session
	FlagProgrammed = 0x00
)

// Transport is the device side of the serial link.
type Transport interface {
	protocol.ByteLink

	// ActivityPending reports, without blocking, whether an incoming start
	// condition has been latched on the receive line.
	ActivityPending() bool
}

// ProgramMemory is the non-volatile program memory and its page buffer.
type ProgramMemory interface {
	// PageSize returns the erase/write granularity in bytes
	PageSize() int

	// Load stages one byte into the page buffer for addr
	Load(addr uint32, b byte)

	// CommitPage erases the page containing addr and writes the page buffer into it
	CommitPage(addr uint32)

	// Read returns the byte currently stored at addr
	Read(addr uint32) byte
}

// FlagStore is the single persisted byte outside program memory.
type FlagStore interface {
	// ReadFlag returns the stored flag value
	ReadFlag() byte

	// WriteFlag stores v and starts the non-volatile write
	WriteFlag(v byte)

	// Busy reports whether the non-volatile write is still in progress
	Busy() bool
}

// Input is the momentary control input that forces update mode.
type Input interface {
	// EnablePullUp turns on the input pull-up
	EnablePullUp()

	// Actuated reports whether the input reads at its active level
	Actuated() bool
}

// Indicator is the status output.
type Indicator interface {
	On()
	Toggle()
}

// Waiter performs the busy-waits of the updater.
type Waiter interface {
	// Until checks cond up to ticks times and once more at the end.
	// Reports whether cond was met.
	Until(cond func() bool, ticks uint32) bool

	// Delay blocks for about d
	Delay(d time.Duration)
}

// Device bundles the hardware capabilities the updater needs.
type Device struct {
	Link   Transport
	Memory ProgramMemory
	Flag   FlagStore
	Button Input
	LED    Indicator
	Waiter Waiter

	// Jump transfers control to the application entry point.
	// On hardware it does not return.
	Jump func(entry uint32)

	// Reset performs a full device reset.
	// On hardware it does not return.
	Reset func()
}

// SpinWaiter spins without yielding, the way the firmware waits on status bits.
type SpinWaiter struct{}

func (SpinWaiter) Until(cond func() bool, ticks uint32) bool {
	for t := ticks; t > 0; t-- {
		if cond() {
			return true
		}
	}
	return cond()
}

func (SpinWaiter) Delay(d time.Duration) { time.Sleep(d) }

// PollWaiter sleeps Interval between checks. It suits host backends where
// one tick should stand for real time.
type PollWaiter struct {
	Interval time.Duration
}

func (w PollWaiter) Until(cond func() bool, ticks uint32) bool {
	for t := ticks; t > 0; t-- {
		if cond() {
			return true
		}
		time.Sleep(w.Interval)
	}
	return cond()
}

func (w PollWaiter) Delay(d time.Duration) { time.Sleep(d) }
