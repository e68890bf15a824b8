package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// scriptLink replays a fixed byte script and records everything written back.
type scriptLink struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newScriptLink(script ...[]byte) *scriptLink {
	return &scriptLink{in: bytes.NewReader(bytes.Join(script, nil))}
}

func (l *scriptLink) ReadByte() (byte, error) { return l.in.ReadByte() }
func (l *scriptLink) WriteByte(c byte) error   { return l.out.WriteByte(c) }
func (l *scriptLink) written() []byte          { return l.out.Bytes() }

func testBlock(seed byte) []byte {
	data := make([]byte, BlockSize)
	for i := range data {
		data[i] = seed + byte(i*7)
	}
	return data
}

func mustPacket(t *testing.T, mode Mode, number byte, data []byte) []byte {
	t.Helper()
	frame, err := BuildPacket(mode, number, data)
	if err != nil {
		t.Fatalf("BuildPacket() error: %v", err)
	}
	return frame
}

func TestReceiverRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeCRC, ModeChecksum} {
		t.Run(mode.String(), func(t *testing.T) {
			data := testBlock(0x11)
			link := newScriptLink(mustPacket(t, mode, 1, data))
			rx := NewReceiver(link, mode)

			pkt, err := rx.Receive()
			if err != nil {
				t.Fatalf("Receive() error: %v", err)
			}
			if !bytes.Equal(pkt.Payload[:], data) {
				t.Error("payload differs from the transmitted block")
			}
			if pkt.Number != 1 || pkt.Complement != 0xFE {
				t.Errorf("block pair = %02X %02X, want 01 FE", pkt.Number, pkt.Complement)
			}
			if rx.State() != StateAccept {
				t.Errorf("State() = %s, want %s", rx.State(), StateAccept)
			}
			if len(link.written()) != 0 {
				t.Errorf("accepted packet must not be answered by the receiver, wrote % 02X", link.written())
			}
			if s := rx.Stats(); s.Accepted != 1 || s.Rejected != 0 {
				t.Errorf("Stats() = %+v", s)
			}
		})
	}
}

func TestReceiverEndOfTransmission(t *testing.T) {
	link := newScriptLink([]byte{EndOfTransmission})
	rx := NewReceiver(link, ModeCRC)

	pkt, err := rx.Receive()
	if err != io.EOF {
		t.Fatalf("Receive() error = %v, want io.EOF", err)
	}
	if pkt != nil {
		t.Error("Receive() returned a packet on EOT")
	}
	if rx.State() != StateEndOfTransmission {
		t.Errorf("State() = %s, want %s", rx.State(), StateEndOfTransmission)
	}
	if len(link.written()) != 0 {
		t.Errorf("EOT must be acknowledged by the caller, receiver wrote % 02X", link.written())
	}
}

func TestReceiverDiscardsNoise(t *testing.T) {
	data := testBlock(0x42)
	noise := []byte{0x00, 0xFF, 'C', Ack, Nak, 0x7F}
	link := newScriptLink(noise, mustPacket(t, ModeCRC, 9, data))
	rx := NewReceiver(link, ModeCRC)

	pkt, err := rx.Receive()
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if !bytes.Equal(pkt.Payload[:], data) {
		t.Error("payload differs after resynchronisation")
	}
	if got := rx.Stats().Discarded; got != len(noise) {
		t.Errorf("Discarded = %d, want %d", got, len(noise))
	}
	if len(link.written()) != 0 {
		t.Errorf("noise must not be answered, wrote % 02X", link.written())
	}
}

func TestReceiverRejectsCorruption(t *testing.T) {
	data := testBlock(0x03)
	good := mustPacket(t, ModeCRC, 1, data)

	// every single bit of the payload and the CRC
	for i := HeaderSize; i < len(good); i++ {
		for bit := 0; bit < BitsPerByte; bit++ {
			bad := append([]byte(nil), good...)
			bad[i] ^= 1 << bit

			link := newScriptLink(bad, []byte{EndOfTransmission})
			rx := NewReceiver(link, ModeCRC)

			var rejected []*RejectError
			rx.OnReject = func(e *RejectError) { rejected = append(rejected, e) }

			pkt, err := rx.Receive()
			if err != io.EOF || pkt != nil {
				t.Fatalf("byte %d bit %d: corrupted packet accepted", i, bit)
			}
			if !bytes.Equal(link.written(), []byte{Nak}) {
				t.Fatalf("byte %d bit %d: wrote % 02X, want a single NAK", i, bit, link.written())
			}
			if len(rejected) != 1 || rejected[0].Reason != ReasonChecksum {
				t.Fatalf("byte %d bit %d: rejections = %v", i, bit, rejected)
			}
		}
	}
}

func TestReceiverRejectsBadBlockPair(t *testing.T) {
	tests := []struct {
		name string
		num  byte
		inv  byte
	}{
		{"equal bytes", 0x01, 0x01},
		{"off by one", 0x01, 0xFD},
		{"zero pair", 0x00, 0x00},
		{"both ones", 0xFF, 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := mustPacket(t, ModeCRC, tt.num, testBlock(0x20))
			frame[2] = tt.inv

			link := newScriptLink(frame, []byte{EndOfTransmission})
			rx := NewReceiver(link, ModeCRC)

			var got *RejectError
			rx.OnReject = func(e *RejectError) { got = e }

			if _, err := rx.Receive(); err != io.EOF {
				t.Fatalf("Receive() error = %v, want io.EOF after rejection", err)
			}
			if got == nil || got.Reason != ReasonBlockPair {
				t.Fatalf("rejection = %v, want block pair mismatch", got)
			}
			if !bytes.Equal(link.written(), []byte{Nak}) {
				t.Errorf("wrote % 02X, want a single NAK", link.written())
			}
		})
	}
}

func TestReceiverRetransmission(t *testing.T) {
	data := testBlock(0x77)
	good := mustPacket(t, ModeCRC, 1, data)
	bad := append([]byte(nil), good...)
	bad[HeaderSize+10] ^= 0x80

	link := newScriptLink(bad, good)
	rx := NewReceiver(link, ModeCRC)

	pkt, err := rx.Receive()
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if !bytes.Equal(pkt.Payload[:], data) {
		t.Error("payload differs from the retransmitted block")
	}
	if !bytes.Equal(link.written(), []byte{Nak}) {
		t.Errorf("wrote % 02X, want one NAK for the corrupted copy", link.written())
	}
	if s := rx.Stats(); s.Accepted != 1 || s.Rejected != 1 {
		t.Errorf("Stats() = %+v, want 1 accepted and 1 rejected", s)
	}
}

func TestReceiverAcceptsDuplicateBlocks(t *testing.T) {
	data := testBlock(0x01)
	frame := mustPacket(t, ModeCRC, 5, data)
	link := newScriptLink(frame, frame)
	rx := NewReceiver(link, ModeCRC)

	for i := 0; i < 2; i++ {
		pkt, err := rx.Receive()
		if err != nil {
			t.Fatalf("Receive() #%d error: %v", i, err)
		}
		if pkt.Number != 5 {
			t.Errorf("Receive() #%d number = %d, want 5", i, pkt.Number)
		}
	}
}

func TestReceiverChecksumModeRejectsBadSum(t *testing.T) {
	frame := mustPacket(t, ModeChecksum, 1, testBlock(0x09))
	frame[len(frame)-1]++

	link := newScriptLink(frame, []byte{EndOfTransmission})
	rx := NewReceiver(link, ModeChecksum)

	if _, err := rx.Receive(); err != io.EOF {
		t.Fatalf("Receive() error = %v, want io.EOF", err)
	}
	if !bytes.Equal(link.written(), []byte{Nak}) {
		t.Errorf("wrote % 02X, want a single NAK", link.written())
	}
}

func TestReceiverTruncatedStream(t *testing.T) {
	frame := mustPacket(t, ModeCRC, 1, testBlock(0x00))

	for _, cut := range []int{0, 1, 2, HeaderSize + 5, len(frame) - 1} {
		link := newScriptLink(frame[:cut])
		rx := NewReceiver(link, ModeCRC)

		_, err := rx.Receive()
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("cut at %d: error = %v, want io.ErrUnexpectedEOF", cut, err)
		}
	}
}

func TestRejectError(t *testing.T) {
	err := error(&RejectError{Number: 3, Complement: 0xFC, Reason: ReasonChecksum, Got: 0x1234, Want: 0x4321})

	if !IsRejectError(err) {
		t.Error("IsRejectError() = false, want true")
	}
	if IsRejectError(errors.New("other")) {
		t.Error("IsRejectError(other) = true, want false")
	}

	want := "block 3 rejected: checksum mismatch (got 0x1234, want 0x4321)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
