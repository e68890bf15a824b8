package sender

import "time"

// Transfer phases reported through Progress.
const (
	PhaseHandshake = "handshake"
	PhaseSending   = "sending"
	PhaseFinishing = "finishing"
	PhaseComplete  = "complete"
)

// Progress contains information about the transfer progress.
// Passed to ProgressCallback during Send.
type Progress struct {
	// Phase describes the current operation phase:
	//   "handshake" - Waiting for the ready probe
	//   "sending"   - Sending blocks
	//   "finishing" - Sending EOT
	//   "complete"  - Transfer acknowledged
	Phase string

	// CurrentBlock is the number of blocks acknowledged so far
	CurrentBlock int

	// TotalBlocks is the total number of blocks to send
	TotalBlocks int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesSent is the number of image bytes acknowledged so far
	BytesSent int

	// Retransmissions is the number of packets sent again so far
	Retransmissions int

	// ElapsedTime is the time elapsed since the handshake started
	ElapsedTime time.Duration
}

// ProgressCallback is called during the transfer to report progress.
// Implementations should return quickly to avoid delaying the next packet.
//
// Example:
//
//	s := sender.New(port,
//	    sender.WithProgressCallback(func(p sender.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Block %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentBlock, p.TotalBlocks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the sender.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
