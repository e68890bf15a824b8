package sender

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moffa90/go-xmboot/bootloader"
	"github.com/moffa90/go-xmboot/protocol"
	"github.com/moffa90/go-xmboot/sim"
)

// startBoard runs the simulated device until the test ends.
func startBoard(t *testing.T, board *sim.Board, opts ...bootloader.Option) *sim.Link {
	t.Helper()
	link := sim.NewLink()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- board.Emulate(ctx, link.Device(), opts...) }()

	t.Cleanup(func() {
		cancel()
		link.Close()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			t.Logf("emulator stopped: %v", err)
		}
	})
	return link
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSendToSimulatedDevice(t *testing.T) {
	for _, mode := range []protocol.Mode{protocol.ModeCRC, protocol.ModeChecksum} {
		t.Run(mode.String(), func(t *testing.T) {
			board := sim.NewBoard()
			link := startBoard(t, board, bootloader.WithMode(mode))

			data := testData(5*protocol.BlockSize + 40)
			s := New(link.Host(), WithReplyTimeout(time.Second), WithHandshakeTimeout(3*time.Second))

			result, err := s.Send(context.Background(), data)
			if err != nil {
				t.Fatalf("Send() error: %v", err)
			}
			if result.Mode != mode || result.Blocks != 6 || result.Retransmissions != 0 {
				t.Errorf("Result = %+v", result)
			}

			waitFor(t, "device reset", func() bool { return board.Resets() >= 1 })

			got := board.Flash.Contents(2048, 2048+6*protocol.BlockSize)
			want := append(append([]byte(nil), data...), bytes.Repeat([]byte{protocol.PadByte}, 88)...)
			if !bytes.Equal(got, want) {
				t.Error("program memory differs from the sent image and padding")
			}
			if board.EEPROM.ReadFlag() != bootloader.FlagProgrammed {
				t.Errorf("flag = 0x%02X, want 0x00", board.EEPROM.ReadFlag())
			}
			waitFor(t, "jump to application", func() bool { return len(board.Jumps()) == 1 })
		})
	}
}

func TestSendRecoversFromVerifyFailure(t *testing.T) {
	board := sim.NewBoard()
	board.Flash.InjectReadFault(2048+protocol.BlockSize+9, 1)
	link := startBoard(t, board)

	data := testData(3 * protocol.BlockSize)
	s := New(link.Host(), WithReplyTimeout(time.Second), WithHandshakeTimeout(3*time.Second))

	result, err := s.Send(context.Background(), data)
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if result.Retransmissions != 1 {
		t.Errorf("Retransmissions = %d, want 1", result.Retransmissions)
	}

	waitFor(t, "device reset", func() bool { return board.Resets() >= 1 })
	if got := board.Flash.Contents(2048, 2048+uint32(len(data))); !bytes.Equal(got, data) {
		t.Error("program memory differs after the retransmission")
	}
}

func TestTriggerReentersUpdateMode(t *testing.T) {
	board := sim.NewBoard(sim.WithFlag(bootloader.FlagProgrammed))
	link := startBoard(t, board, bootloader.WithSettleDelay(0))

	waitFor(t, "jump to application", func() bool { return len(board.Jumps()) == 1 })

	if err := Trigger(link.Host()); err != nil {
		t.Fatalf("Trigger() error: %v", err)
	}

	data := testData(protocol.BlockSize)
	s := New(link.Host(), WithReplyTimeout(time.Second), WithHandshakeTimeout(3*time.Second))
	if _, err := s.Send(context.Background(), data); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	waitFor(t, "second jump", func() bool { return len(board.Jumps()) == 2 })
	if got := board.Flash.Contents(2048, 2048+protocol.BlockSize); !bytes.Equal(got, data) {
		t.Error("program memory differs after the triggered update")
	}
}
