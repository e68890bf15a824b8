package serialport

import (
	"errors"
	"testing"
	"time"

	"github.com/moffa90/go-xmboot/sim"
)

func TestOpenInvalidBaud(t *testing.T) {
	if _, err := Open("/dev/null", 0); err == nil {
		t.Error("Open() with baud 0 expected error")
	}
}

func TestOpenMissingPort(t *testing.T) {
	if _, err := Open("/dev/xmboot-no-such-port", 115200); err == nil {
		t.Error("Open() of a missing port expected error")
	}
}

func TestTransport(t *testing.T) {
	link := sim.NewLink()
	defer link.Close()

	tr, err := NewTransport(link.Host())
	if err != nil {
		t.Fatalf("NewTransport() error: %v", err)
	}

	if tr.ActivityPending() {
		t.Fatal("ActivityPending() = true on an idle line")
	}

	remote := link.Device()
	if err := remote.WriteByte(0x01); err != nil {
		t.Fatalf("WriteByte() error: %v", err)
	}
	if err := remote.WriteByte(0x02); err != nil {
		t.Fatalf("WriteByte() error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !tr.ActivityPending() {
		if time.Now().After(deadline) {
			t.Fatal("ActivityPending() never reported the incoming byte")
		}
	}
	// a second check must not consume another byte
	if !tr.ActivityPending() {
		t.Fatal("ActivityPending() lost the stashed byte")
	}

	for _, want := range []byte{0x01, 0x02} {
		got, err := tr.ReadByte()
		if err != nil || got != want {
			t.Fatalf("ReadByte() = 0x%02X, %v, want 0x%02X", got, err, want)
		}
	}

	if err := tr.WriteByte(0x06); err != nil {
		t.Fatalf("WriteByte() error: %v", err)
	}
	if got, err := remote.ReadByte(); err != nil || got != 0x06 {
		t.Errorf("remote ReadByte() = 0x%02X, %v, want 0x06", got, err)
	}
}

type failingPort struct{ err error }

func (p failingPort) Read([]byte) (int, error)           { return 0, p.err }
func (p failingPort) Write(b []byte) (int, error)        { return 0, p.err }
func (p failingPort) SetReadTimeout(time.Duration) error { return p.err }

func TestNewTransportError(t *testing.T) {
	want := errors.New("port closed")
	if _, err := NewTransport(failingPort{err: want}); !errors.Is(err, want) {
		t.Errorf("NewTransport() error = %v, want %v", err, want)
	}
}
