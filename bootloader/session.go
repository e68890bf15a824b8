package bootloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-xmboot/protocol"
)

// Summary describes a finished transfer.
type Summary struct {
	// Probes is the number of ready probes sent before the sender started
	Probes int

	// Blocks is the number of blocks programmed, verified and acknowledged
	Blocks int

	// Pages is the number of page commits
	Pages int

	// Rejected is the number of packets the receiver answered with NAK
	Rejected int

	// VerifyFailures is the number of valid packets answered with NAK
	// because they could not be programmed
	VerifyFailures int

	// StartAddress is the first application address
	StartAddress uint32

	// EndAddress is one past the last programmed address
	EndAddress uint32

	// Elapsed is the time from the first probe to EOT
	Elapsed time.Duration
}

// Bytes returns the number of bytes programmed.
func (s Summary) Bytes() int { return int(s.EndAddress - s.StartAddress) }

// Session runs the handshake and the receive loop of one update.
type Session struct {
	link   Transport
	led    Indicator
	waiter Waiter
	writer *Writer
	rx     *protocol.Receiver
	config Config

	summary Summary
	started time.Time
	last    byte
}

// NewSession creates a session over dev's link that programs through writer.
func NewSession(dev Device, writer *Writer, cfg Config) *Session {
	s := &Session{
		link:   dev.Link,
		led:    dev.LED,
		waiter: dev.Waiter,
		writer: writer,
		rx:     protocol.NewReceiver(dev.Link, cfg.Mode),
		config: cfg,
	}
	s.rx.OnReject = func(e *protocol.RejectError) {
		s.config.logDebug("packet rejected",
			"block", e.Number,
			"reason", e.Reason.String(),
		)
	}
	s.summary.StartAddress = writer.Cursor()
	s.summary.EndAddress = writer.Cursor()
	return s
}

// Summary returns the counters collected so far.
func (s *Session) Summary() Summary {
	sum := s.summary
	sum.Pages = s.writer.PagesCommitted()
	sum.Rejected = s.rx.Stats().Rejected
	sum.EndAddress = s.writer.Cursor()
	if !s.started.IsZero() {
		sum.Elapsed = time.Since(s.started)
	}
	return sum
}

// Handshake toggles the indicator and sends the ready probe until activity
// is seen on the receive line, then turns the indicator on steady.
// There is no attempt limit; only ctx ends the wait early.
func (s *Session) Handshake(ctx context.Context) error {
	s.started = time.Now()
	probe := s.config.Mode.Poll()

	s.config.logInfo("waiting for sender", "mode", s.config.Mode.String())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.led.Toggle()
		if err := s.link.WriteByte(probe); err != nil {
			return fmt.Errorf("send ready probe: %w", err)
		}
		s.summary.Probes++
		s.report(PhaseHandshake)

		if s.waiter.Until(s.link.ActivityPending, s.config.HandshakeTicks) {
			break
		}
	}

	s.led.On()
	s.config.logDebug("sender detected", "probes", s.summary.Probes)
	return nil
}

// Transfer receives blocks until EOT. Every valid packet is programmed and
// answered with ACK when verification passes, NAK otherwise. EOT is
// acknowledged before Transfer returns.
func (s *Session) Transfer(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkt, err := s.rx.Receive()
		if errors.Is(err, io.EOF) {
			if err := s.link.WriteByte(protocol.Ack); err != nil {
				return fmt.Errorf("acknowledge end of transmission: %w", err)
			}
			s.config.logInfo("end of transmission",
				"blocks", s.summary.Blocks,
				"end", fmt.Sprintf("0x%04X", s.writer.Cursor()),
			)
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive block: %w", err)
		}

		reply := byte(protocol.Ack)
		if err := s.writer.WriteBlock(&pkt.Payload); err != nil {
			s.summary.VerifyFailures++
			s.config.logError("block not programmed", "block", pkt.Number, "error", err)
			reply = protocol.Nak
		} else {
			s.summary.Blocks++
			s.last = pkt.Number
		}

		if err := s.link.WriteByte(reply); err != nil {
			return fmt.Errorf("answer block %d: %w", pkt.Number, err)
		}
		s.report(PhaseReceiving)
	}
}

// Run performs Handshake followed by Transfer and returns the summary.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if err := s.Handshake(ctx); err != nil {
		return s.Summary(), err
	}
	err := s.Transfer(ctx)
	return s.Summary(), err
}

func (s *Session) report(phase string) {
	if s.config.ProgressCallback == nil {
		return
	}
	sum := s.Summary()
	s.config.reportProgress(Progress{
		Phase:         phase,
		Block:         s.last,
		Address:       sum.EndAddress,
		BlocksWritten: sum.Blocks,
		BytesWritten:  sum.Bytes(),
		Rejected:      sum.Rejected + sum.VerifyFailures,
		ElapsedTime:   sum.Elapsed,
	})
}
