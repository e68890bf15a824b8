package sender

import (
	"time"

	"github.com/moffa90/go-xmboot/protocol"
)

// Config holds the sender configuration.
type Config struct {
	// ProgressCallback is called during the transfer to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Retries is the number of retransmissions allowed per block and for EOT
	Retries int

	// ReplyTimeout is how long to wait for ACK or NAK after a packet
	ReplyTimeout time.Duration

	// HandshakeTimeout is how long to wait for the device's ready probe
	HandshakeTimeout time.Duration

	// PollInterval is the port read timeout; it bounds how quickly
	// cancellation and deadlines are noticed
	PollInterval time.Duration

	// Mode forces the packet format. When nil the probe decides.
	Mode *protocol.Mode
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Retries:          10,
		ReplyTimeout:     10 * time.Second,
		HandshakeTimeout: 60 * time.Second,
		PollInterval:     10 * time.Millisecond,
	}
}

// Option is a functional option for configuring the Sender.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	s := sender.New(port,
//	    sender.WithProgressCallback(func(p sender.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the sender operations.
//
// Example:
//
//	s := sender.New(port, sender.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRetries sets the number of retransmissions per block.
//
// Example:
//
//	s := sender.New(port, sender.WithRetries(5))
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithReplyTimeout sets how long to wait for the reply to a packet.
func WithReplyTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReplyTimeout = timeout
		}
	}
}

// WithHandshakeTimeout sets how long to wait for the ready probe.
//
// Example:
//
//	s := sender.New(port, sender.WithHandshakeTimeout(2*time.Minute))
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.HandshakeTimeout = timeout
		}
	}
}

// WithPollInterval sets the port read timeout used while waiting.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.PollInterval = interval
		}
	}
}

// WithMode accepts only the ready probe of the given packet format.
func WithMode(mode protocol.Mode) Option {
	return func(c *Config) {
		if mode == protocol.ModeCRC || mode == protocol.ModeChecksum {
			c.Mode = &mode
		}
	}
}
