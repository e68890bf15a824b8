package bootloader

import (
	"time"

	"github.com/moffa90/go-xmboot/protocol"
)

// Config holds the updater configuration.
type Config struct {
	// ProgressCallback is called during a session to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Mode selects the packet format and the ready probe
	// Default is XMODEM-CRC
	Mode protocol.Mode

	// AppStart is the first application address, equal to the updater size
	AppStart uint32

	// MemoryEnd is one past the last program memory address
	MemoryEnd uint32

	// HandshakeTicks bounds the activity check after each ready probe
	// Default is one tenth of a 10 MHz core clock
	HandshakeTicks uint32

	// SettleDelay is the wait between enabling the input pull-up and sampling it
	SettleDelay time.Duration

	// FlagWriteTicks bounds the wait for the persisted flag write to complete
	FlagWriteTicks uint32

	// ReleaseTicks is the number of input checks between context checks while
	// waiting for the control input to be released
	ReleaseTicks uint32

	// ProgrammedMarker is written to the flag after a successful session
	ProgrammedMarker byte
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Mode:             protocol.ModeCRC,
		AppStart:         2048,
		MemoryEnd:        32 * 1024,
		HandshakeTicks:   10_000_000 / 10,
		SettleDelay:      time.Millisecond,
		FlagWriteTicks:   100_000,
		ReleaseTicks:     100_000,
		ProgrammedMarker: FlagProgrammed,
	}
}

// Option is a functional option for configuring the Updater.
type Option func(*Config)

// WithProgressCallback sets a callback function to track session progress.
//
// Example:
//
//	upd := bootloader.New(dev,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%s: %d blocks\n", p.Phase, p.BlocksWritten)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the updater operations.
//
// Example:
//
//	upd := bootloader.New(dev, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMode selects the packet format. ModeChecksum polls with NAK and
// expects the 8-bit sum trailer.
func WithMode(mode protocol.Mode) Option {
	return func(c *Config) {
		if mode == protocol.ModeCRC || mode == protocol.ModeChecksum {
			c.Mode = mode
		}
	}
}

// WithAppStart sets the application start address.
// The address must be a non-zero multiple of 256.
//
// Example:
//
//	upd := bootloader.New(dev, bootloader.WithAppStart(4096))
func WithAppStart(addr uint32) Option {
	return func(c *Config) {
		if addr > 0 && addr%256 == 0 {
			c.AppStart = addr
		}
	}
}

// WithMemoryEnd sets the program memory size.
func WithMemoryEnd(end uint32) Option {
	return func(c *Config) {
		if end > 0 {
			c.MemoryEnd = end
		}
	}
}

// WithHandshakeTicks sets how many activity checks follow each ready probe.
func WithHandshakeTicks(ticks uint32) Option {
	return func(c *Config) {
		if ticks > 0 {
			c.HandshakeTicks = ticks
		}
	}
}

// WithSettleDelay sets the input settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SettleDelay = d
		}
	}
}

// WithFlagWriteTicks bounds the wait for the persisted flag write.
func WithFlagWriteTicks(ticks uint32) Option {
	return func(c *Config) {
		if ticks > 0 {
			c.FlagWriteTicks = ticks
		}
	}
}

// WithReleaseTicks sets how often the release wait checks for cancellation.
func WithReleaseTicks(ticks uint32) Option {
	return func(c *Config) {
		if ticks > 0 {
			c.ReleaseTicks = ticks
		}
	}
}

// WithProgrammedMarker sets the value persisted after a successful session.
// The erased value 0xFF is rejected since it would keep the device in update mode.
func WithProgrammedMarker(marker byte) Option {
	return func(c *Config) {
		if marker != FlagErased {
			c.ProgrammedMarker = marker
		}
	}
}
