package sim

import (
	"context"
	"sync"
	"time"

	"github.com/moffa90/go-xmboot/bootloader"
)

// Board defaults.
const (
	DefaultFlashSize = 32 * 1024
	DefaultPageSize  = 64

	// DefaultHandshakeTicks with a PollWaiter of one millisecond gives
	// about ten ready probes per second.
	DefaultHandshakeTicks = 100

	// AppPollInterval is how often the simulated application checks the link.
	AppPollInterval = time.Millisecond

	appBlinkPolls = 250
)

// Option configures a Board.
type Option func(*Board)

// WithFlashSize sets the program memory size.
func WithFlashSize(size int) Option {
	return func(b *Board) {
		if size > 0 {
			b.flashSize = size
		}
	}
}

// WithPageSize sets the program memory page size.
func WithPageSize(size int) Option {
	return func(b *Board) {
		if size > 0 {
			b.pageSize = size
		}
	}
}

// WithFlag presets the persisted flag.
func WithFlag(v byte) Option {
	return func(b *Board) {
		b.flag = v
	}
}

// WithWaiter replaces the default PollWaiter.
func WithWaiter(w bootloader.Waiter) Option {
	return func(b *Board) {
		if w != nil {
			b.Waiter = w
		}
	}
}

// Board is a simulated microcontroller running the updater.
type Board struct {
	Flash  *Flash
	EEPROM *EEPROM
	Button *Button
	LED    *LED
	Waiter bootloader.Waiter

	flashSize int
	pageSize  int
	flag      byte

	mu     sync.Mutex
	jumps  []uint32
	resets int
}

// NewBoard creates a board with erased memory and an erased flag, so its
// first boot enters update mode.
func NewBoard(opts ...Option) *Board {
	b := &Board{
		Button:    &Button{},
		LED:       &LED{},
		Waiter:    bootloader.PollWaiter{Interval: time.Millisecond},
		flashSize: DefaultFlashSize,
		pageSize:  DefaultPageSize,
		flag:      ErasedByte,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.Flash = NewFlash(b.flashSize, b.pageSize)
	b.EEPROM = NewEEPROM()
	b.EEPROM.Set(b.flag)
	return b
}

// Device returns the board capabilities wired to link.
func (b *Board) Device(link bootloader.Transport) bootloader.Device {
	return bootloader.Device{
		Link:   link,
		Memory: b.Flash,
		Flag:   b.EEPROM,
		Button: b.Button,
		LED:    b.LED,
		Waiter: b.Waiter,
		Jump:   b.jump,
		Reset:  b.reset,
	}
}

// Jumps returns the entry points the updater jumped to.
func (b *Board) Jumps() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint32(nil), b.jumps...)
}

// Resets returns the number of device resets.
func (b *Board) Resets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resets
}

func (b *Board) jump(entry uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jumps = append(b.jumps, entry)
}

func (b *Board) reset() {
	b.mu.Lock()
	b.resets++
	b.mu.Unlock()

	b.Button.reset()
	b.LED.reset()
}

// Boot runs one boot cycle of the updater over link.
func (b *Board) Boot(ctx context.Context, link bootloader.Transport, opts ...bootloader.Option) (bootloader.Outcome, error) {
	opts = append([]bootloader.Option{
		bootloader.WithHandshakeTicks(DefaultHandshakeTicks),
		bootloader.WithMemoryEnd(uint32(b.flashSize)),
	}, opts...)
	return bootloader.New(b.Device(link), opts...).Boot(ctx)
}

// RunApp plays the application: it blinks the indicator until any byte
// arrives on link, then asks for the updater and resets. Pressing the
// control input resets the board without touching the flag.
func (b *Board) RunApp(ctx context.Context, link bootloader.Transport) error {
	b.Button.EnablePullUp()
	for polls := 0; ; polls++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if link.ActivityPending() {
			if _, err := link.ReadByte(); err != nil {
				return err
			}
			return bootloader.RequestReentry(b.EEPROM, b.Waiter, DefaultHandshakeTicks, b.reset)
		}
		if b.Button.Actuated() {
			b.reset()
			return nil
		}
		if polls%appBlinkPolls == 0 {
			b.LED.Toggle()
		}
		time.Sleep(AppPollInterval)
	}
}

// Emulate boots the board over link forever: an update session when one is
// requested, the application otherwise. It returns when ctx is done or the
// link fails.
func (b *Board) Emulate(ctx context.Context, link bootloader.Transport, opts ...bootloader.Option) error {
	for {
		out, err := b.Boot(ctx, link, opts...)
		if err != nil {
			return err
		}
		if out.Decision.Action == bootloader.ActionJump {
			if err := b.RunApp(ctx, link); err != nil {
				return err
			}
		}
	}
}
