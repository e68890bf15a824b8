package sim

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestLinkHostToDevice(t *testing.T) {
	link := NewLink()
	defer link.Close()

	dev := link.Device()
	if dev.ActivityPending() {
		t.Fatal("ActivityPending() = true on an idle link")
	}

	if _, err := link.Host().Write([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !dev.ActivityPending() {
		t.Fatal("ActivityPending() = false with bytes in flight")
	}

	for _, want := range []byte{0x01, 0x02} {
		got, err := dev.ReadByte()
		if err != nil || got != want {
			t.Fatalf("ReadByte() = 0x%02X, %v, want 0x%02X", got, err, want)
		}
	}
}

func TestLinkDeviceToHost(t *testing.T) {
	link := NewLink()
	defer link.Close()

	for _, c := range []byte("CCC") {
		if err := link.Device().WriteByte(c); err != nil {
			t.Fatalf("WriteByte() error: %v", err)
		}
	}

	buf := make([]byte, 8)
	n, err := link.Host().Read(buf)
	if err != nil || string(buf[:n]) != "CCC" {
		t.Errorf("Read() = %q, %v, want \"CCC\"", buf[:n], err)
	}
}

func TestLinkReadTimeout(t *testing.T) {
	link := NewLink()
	defer link.Close()

	host := link.Host()
	if err := host.SetReadTimeout(20 * time.Millisecond); err != nil {
		t.Fatalf("SetReadTimeout() error: %v", err)
	}

	start := time.Now()
	n, err := host.Read(make([]byte, 1))
	if n != 0 || err != nil {
		t.Errorf("Read() = %d, %v, want 0, nil on timeout", n, err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Read() returned before the timeout")
	}
}

func TestLinkClose(t *testing.T) {
	link := NewLink()
	if _, err := link.Host().Write([]byte{0x42}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	link.Close()

	dev := link.Device()
	if c, err := dev.ReadByte(); err != nil || c != 0x42 {
		t.Fatalf("ReadByte() = 0x%02X, %v, want the byte in flight", c, err)
	}
	if _, err := dev.ReadByte(); err != io.EOF {
		t.Errorf("ReadByte() error = %v, want io.EOF", err)
	}
	if err := dev.WriteByte(0x06); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("WriteByte() error = %v, want io.ErrClosedPipe", err)
	}
	if _, err := link.Host().Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("host Read() error = %v, want io.EOF", err)
	}
}
