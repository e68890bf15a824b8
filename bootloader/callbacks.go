package bootloader

import "time"

// Session phases reported through Progress.
const (
	PhaseHandshake  = "handshake"
	PhaseReceiving  = "receiving"
	PhaseFinalizing = "finalizing"
	PhaseComplete   = "complete"
)

// Progress contains information about an update session.
// Passed to ProgressCallback while the session runs.
type Progress struct {
	// Phase describes the current operation phase:
	//   "handshake"  - Sending ready probes
	//   "receiving"  - Receiving and programming blocks
	//   "finalizing" - Persisting the flag and waiting for input release
	//   "complete"   - Session completed, about to reset
	Phase string

	// Block is the block number of the last accepted packet
	Block byte

	// Address is the program memory address the next block will be written to
	Address uint32

	// BlocksWritten is the number of blocks programmed and verified so far
	BlocksWritten int

	// BytesWritten is the total number of bytes written so far
	BytesWritten int

	// Rejected is the number of packets and blocks answered with NAK
	Rejected int

	// ElapsedTime is the time elapsed since the handshake started
	ElapsedTime time.Duration
}

// ProgressCallback is called during a session to report progress.
// Implementations should return quickly: the sender is waiting for the reply.
//
// Example:
//
//	upd := bootloader.New(dev,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] %d bytes at 0x%04X\n", p.Phase, p.BytesWritten, p.Address)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the updater.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	upd := bootloader.New(dev, bootloader.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

func (c *Config) logDebug(msg string, kv ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, kv...)
	}
}

func (c *Config) logInfo(msg string, kv ...interface{}) {
	if c.Logger != nil {
		c.Logger.Info(msg, kv...)
	}
}

func (c *Config) logError(msg string, kv ...interface{}) {
	if c.Logger != nil {
		c.Logger.Error(msg, kv...)
	}
}

func (c *Config) reportProgress(p Progress) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(p)
	}
}
