// Package serialport opens the host serial line and adapts it for both ends
// of the firmware updater.
//
// The sender uses an opened port directly. Transport turns a port into the
// device-side byte transport, so the simulated device can be exercised over
// a real line (for example one end of a null-modem or pty pair).
package serialport

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.bug.st/serial"
)

// PollTimeout is the read timeout a Transport sets on its port.
const PollTimeout = time.Millisecond

// Open opens the named port at baud with 8 data bits, no parity and one
// stop bit, and discards anything already buffered.
//
// Example:
//
//	port, err := serialport.Open("/dev/ttyUSB0", 230400)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
func Open(name string, baud int) (serial.Port, error) {
	if baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", baud)
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("reset input buffer: %w", err)
	}
	return port, nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

// Port is what a Transport needs from an opened port. A read that times out
// returns 0 bytes and a nil error.
type Port interface {
	io.ReadWriter
	SetReadTimeout(t time.Duration) error
}

// Transport is the device-side byte transport over a Port.
//
// ActivityPending performs one short read and keeps the byte it got, which
// the next ReadByte returns.
type Transport struct {
	port Port

	mu      sync.Mutex
	buf     [1]byte
	pending bool
	stash   byte
}

// NewTransport wraps port, setting its read timeout to PollTimeout.
func NewTransport(port Port) (*Transport, error) {
	if err := port.SetReadTimeout(PollTimeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Transport{port: port}, nil
}

// ReadByte blocks until a byte arrives or the port fails.
func (t *Transport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		t.pending = false
		return t.stash, nil
	}
	for {
		n, err := t.port.Read(t.buf[:])
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return t.buf[0], nil
		}
	}
}

func (t *Transport) WriteByte(c byte) error {
	_, err := t.port.Write([]byte{c})
	return err
}

func (t *Transport) ActivityPending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		return true
	}
	n, err := t.port.Read(t.buf[:])
	if err != nil || n == 0 {
		return false
	}
	t.stash = t.buf[0]
	t.pending = true
	return true
}
