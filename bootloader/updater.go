package bootloader

import (
	"context"
	"fmt"
	"time"
)

// Updater runs the boot-time sequence of the firmware updater: the entry
// decision, an update session when one is requested, the flag write and the
// final reset.
type Updater struct {
	dev    Device
	config Config
}

// Outcome reports what Boot did.
type Outcome struct {
	Decision Decision

	// Summary is set when an update session ran
	Summary *Summary
}

// New creates a new Updater for dev with the given options.
// Every capability of dev is required.
//
// Example:
//
//	upd := bootloader.New(dev,
//	    bootloader.WithAppStart(2048),
//	    bootloader.WithProgressCallback(progressFunc),
//	)
func New(dev Device, opts ...Option) *Updater {
	switch {
	case dev.Link == nil:
		panic("link cannot be nil")
	case dev.Memory == nil:
		panic("program memory cannot be nil")
	case dev.Flag == nil:
		panic("flag store cannot be nil")
	case dev.Button == nil:
		panic("input cannot be nil")
	case dev.LED == nil:
		panic("indicator cannot be nil")
	case dev.Jump == nil || dev.Reset == nil:
		panic("jump and reset cannot be nil")
	}
	if dev.Waiter == nil {
		dev.Waiter = SpinWaiter{}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Updater{
		dev:    dev,
		config: cfg,
	}
}

// Config returns the effective configuration.
func (u *Updater) Config() Config { return u.config }

// Decide runs the entry decision against the device.
func (u *Updater) Decide() Decision {
	return Decide(u.dev.Flag, u.dev.Button, u.dev.Waiter, u.config)
}

// Boot performs the complete boot-time sequence:
//  1. Decide between update mode and the application
//  2. Jump to the application, or
//  3. Run the handshake and the transfer
//  4. Persist the programmed marker
//  5. Wait for the control input to be released
//  6. Reset
//
// On hardware Jump and Reset do not return, so neither does Boot. With
// simulated backends Boot returns after calling them.
//
// The operation can be cancelled via context between packets and while
// waiting for the sender or for the input release.
func (u *Updater) Boot(ctx context.Context) (Outcome, error) {
	d := u.Decide()
	out := Outcome{Decision: d}

	if d.Action == ActionJump {
		u.config.logInfo("starting application", "entry", fmt.Sprintf("0x%04X", d.EntryPoint))
		u.dev.Jump(d.EntryPoint)
		return out, nil
	}

	u.config.logInfo("entering update mode",
		"flag_erased", d.FlagErased,
		"app_start", fmt.Sprintf("0x%04X", u.config.AppStart),
	)

	summary, err := u.Update(ctx)
	out.Summary = &summary
	if err != nil {
		return out, err
	}

	u.config.reportProgress(Progress{
		Phase:         PhaseComplete,
		Address:       summary.EndAddress,
		BlocksWritten: summary.Blocks,
		BytesWritten:  summary.Bytes(),
		Rejected:      summary.Rejected + summary.VerifyFailures,
		ElapsedTime:   summary.Elapsed,
	})
	u.config.logInfo("update complete, resetting",
		"blocks", summary.Blocks,
		"pages", summary.Pages,
		"rejected", summary.Rejected,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
	)
	u.dev.Reset()
	return out, nil
}

// Update runs one session without the entry decision and the final reset:
// handshake, transfer, flag write and input release.
func (u *Updater) Update(ctx context.Context) (Summary, error) {
	writer, err := NewWriter(u.dev.Memory, u.dev.Flag, u.dev.Waiter, u.config)
	if err != nil {
		return Summary{}, fmt.Errorf("prepare writer: %w", err)
	}

	session := NewSession(u.dev, writer, u.config)
	summary, err := session.Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("update session: %w", err)
	}

	u.config.reportProgress(Progress{
		Phase:         PhaseFinalizing,
		Address:       summary.EndAddress,
		BlocksWritten: summary.Blocks,
		BytesWritten:  summary.Bytes(),
		ElapsedTime:   summary.Elapsed,
	})

	if err := writer.PersistSuccessFlag(); err != nil {
		return summary, fmt.Errorf("persist flag: %w", err)
	}
	u.config.logDebug("flag persisted", "marker", fmt.Sprintf("0x%02X", u.config.ProgrammedMarker))

	if err := u.waitRelease(ctx); err != nil {
		return summary, fmt.Errorf("wait for input release: %w", err)
	}
	return summary, nil
}

func (u *Updater) waitRelease(ctx context.Context) error {
	u.dev.Button.EnablePullUp()
	u.dev.Waiter.Delay(u.config.SettleDelay)

	released := func() bool { return !u.dev.Button.Actuated() }
	for !u.dev.Waiter.Until(released, u.config.ReleaseTicks) {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
