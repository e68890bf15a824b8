package sender

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-xmboot/protocol"
)

// Port is the host end of the serial line. A read that times out returns
// 0 bytes and a nil error, as go.bug.st/serial ports do.
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
}

// Result summarizes a finished transfer.
type Result struct {
	Mode            protocol.Mode
	Blocks          int
	Bytes           int
	Retransmissions int
	Elapsed         time.Duration
}

// Sender transmits application images to a device in update mode.
//
// A Sender is not safe for concurrent use.
type Sender struct {
	port   Port
	config Config

	buf [1]byte
}

// New creates a new Sender on port with the given options.
//
// Example:
//
//	s := sender.New(port,
//	    sender.WithRetries(10),
//	    sender.WithReplyTimeout(5*time.Second),
//	)
func New(port Port, opts ...Option) *Sender {
	if port == nil {
		panic("port cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Sender{
		port:   port,
		config: cfg,
	}
}

// Send performs the complete transfer:
//  1. Wait for the ready probe and pick the packet format
//  2. Send every block, retransmitting on NAK or timeout
//  3. Send EOT until acknowledged
//
// An empty image sends EOT only. The operation can be cancelled via
// context; the device then keeps waiting for the next packet.
//
// Example:
//
//	img, _ := image.Parse("app.hex")
//	result, err := s.Send(context.Background(), img.Data)
func (s *Sender) Send(ctx context.Context, data []byte) (Result, error) {
	if err := s.port.SetReadTimeout(s.config.PollInterval); err != nil {
		return Result{}, fmt.Errorf("set read timeout: %w", err)
	}

	total := (len(data) + protocol.BlockSize - 1) / protocol.BlockSize
	startTime := time.Now()

	// Phase 1: Handshake
	s.reportProgress(Progress{
		Phase:       PhaseHandshake,
		TotalBlocks: total,
	})

	mode, err := s.waitProbe(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("handshake: %w", err)
	}
	result := Result{Mode: mode}

	s.logInfo("device ready", "mode", mode.String(), "blocks", total)

	if err := s.drain(ctx); err != nil {
		return result, fmt.Errorf("handshake: %w", err)
	}

	// Phase 2: Blocks
	for i := 0; i < total; i++ {
		off := i * protocol.BlockSize
		end := off + protocol.BlockSize
		if end > len(data) {
			end = len(data)
		}

		frame, err := protocol.BuildPacket(mode, byte(i+1), data[off:end])
		if err != nil {
			return result, fmt.Errorf("build block %d: %w", i+1, err)
		}

		retries, err := s.sendBlock(ctx, i+1, frame)
		result.Retransmissions += retries
		if err != nil {
			result.Elapsed = time.Since(startTime)
			return result, err
		}

		result.Blocks++
		result.Bytes = end

		percentage := float64(i+1) / float64(total) * 100
		s.reportProgress(Progress{
			Phase:           PhaseSending,
			CurrentBlock:    i + 1,
			TotalBlocks:     total,
			Percentage:      percentage,
			BytesSent:       end,
			Retransmissions: result.Retransmissions,
			ElapsedTime:     time.Since(startTime),
		})
	}

	// Phase 3: EOT
	s.reportProgress(Progress{
		Phase:           PhaseFinishing,
		CurrentBlock:    total,
		TotalBlocks:     total,
		Percentage:      100,
		BytesSent:       len(data),
		Retransmissions: result.Retransmissions,
		ElapsedTime:     time.Since(startTime),
	})

	if err := s.sendEOT(ctx); err != nil {
		result.Elapsed = time.Since(startTime)
		return result, err
	}

	result.Elapsed = time.Since(startTime)
	s.reportProgress(Progress{
		Phase:           PhaseComplete,
		CurrentBlock:    total,
		TotalBlocks:     total,
		Percentage:      100,
		BytesSent:       len(data),
		Retransmissions: result.Retransmissions,
		ElapsedTime:     result.Elapsed,
	})
	s.logInfo("transfer complete",
		"blocks", result.Blocks,
		"retransmissions", result.Retransmissions,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)

	return result, nil
}

// Trigger sends the byte that makes a running application hand control
// back to the updater.
func Trigger(w io.Writer) error {
	if _, err := w.Write([]byte{'U'}); err != nil {
		return fmt.Errorf("send trigger byte: %w", err)
	}
	return nil
}

// waitProbe reads until a ready probe arrives and returns the format it selects.
func (s *Sender) waitProbe(ctx context.Context) (protocol.Mode, error) {
	deadline := time.Now().Add(s.config.HandshakeTimeout)
	for {
		c, ok, err := s.readByte(ctx, deadline)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrHandshakeTimeout
		}

		var mode protocol.Mode
		switch c {
		case protocol.PollCRC:
			mode = protocol.ModeCRC
		case protocol.Nak:
			mode = protocol.ModeChecksum
		case protocol.Cancel:
			return 0, ErrCancelled
		default:
			s.logDebug("ignoring byte while waiting for probe", "byte", fmt.Sprintf("0x%02X", c))
			continue
		}

		if s.config.Mode != nil && *s.config.Mode != mode {
			s.logDebug("ignoring probe for other mode", "mode", mode.String())
			continue
		}
		return mode, nil
	}
}

// drain discards repeated probes until the line is quiet for one poll interval.
func (s *Sender) drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.port.Read(s.buf[:])
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}

// sendBlock sends one frame until it is acknowledged. It returns the number
// of retransmissions.
func (s *Sender) sendBlock(ctx context.Context, index int, frame []byte) (int, error) {
	timedOut := false
	for attempt := 0; attempt <= s.config.Retries; attempt++ {
		if _, err := s.port.Write(frame); err != nil {
			return attempt, fmt.Errorf("write block %d: %w", index, err)
		}

		reply, err := s.awaitReply(ctx)
		if err != nil {
			return attempt, fmt.Errorf("block %d: %w", index, err)
		}

		switch reply {
		case protocol.Ack:
			return attempt, nil
		case protocol.Nak:
			timedOut = false
			s.logDebug("block rejected, resending", "block", index, "attempt", attempt+1)
		case 0:
			timedOut = true
			s.logDebug("no reply, resending", "block", index, "attempt", attempt+1)
		}
	}

	s.logError("giving up on block", "block", index, "attempts", s.config.Retries+1)
	return s.config.Retries, &RetryLimitError{
		Block:    index,
		Attempts: s.config.Retries + 1,
		TimedOut: timedOut,
	}
}

// sendEOT sends EOT until acknowledged.
func (s *Sender) sendEOT(ctx context.Context) error {
	for attempt := 0; attempt <= s.config.Retries; attempt++ {
		if _, err := s.port.Write([]byte{protocol.EndOfTransmission}); err != nil {
			return fmt.Errorf("write end of transmission: %w", err)
		}

		reply, err := s.awaitReply(ctx)
		if err != nil {
			return fmt.Errorf("end of transmission: %w", err)
		}
		if reply == protocol.Ack {
			return nil
		}
	}
	return ErrEOTNotAcknowledged
}

// awaitReply waits for ACK, NAK or CAN. It returns 0 when the reply timeout
// expires and ErrCancelled on CAN.
func (s *Sender) awaitReply(ctx context.Context) (byte, error) {
	deadline := time.Now().Add(s.config.ReplyTimeout)
	for {
		c, ok, err := s.readByte(ctx, deadline)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		switch c {
		case protocol.Ack, protocol.Nak:
			return c, nil
		case protocol.Cancel:
			return 0, ErrCancelled
		}
	}
}

// readByte reads one byte, giving up at deadline.
func (s *Sender) readByte(ctx context.Context, deadline time.Time) (byte, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		n, err := s.port.Read(s.buf[:])
		if err != nil {
			return 0, false, fmt.Errorf("read: %w", err)
		}
		if n == 1 {
			return s.buf[0], true, nil
		}
		if !time.Now().Before(deadline) {
			return 0, false, nil
		}
	}
}

func (s *Sender) logDebug(msg string, kv ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, kv...)
	}
}

func (s *Sender) logInfo(msg string, kv ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, kv...)
	}
}

func (s *Sender) logError(msg string, kv ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, kv...)
	}
}

func (s *Sender) reportProgress(p Progress) {
	if s.config.ProgressCallback != nil {
		s.config.ProgressCallback(p)
	}
}
