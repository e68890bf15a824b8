package image

import (
	"bytes"
	"testing"

	"github.com/moffa90/go-xmboot/protocol"
)

func TestImageBlocks(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		wantCount int
		wantLast  int
	}{
		{"empty", 0, 0, 0},
		{"one byte", 1, 1, 1},
		{"exact block", protocol.BlockSize, 1, protocol.BlockSize},
		{"block and a bit", protocol.BlockSize + 5, 2, 5},
		{"three blocks", 3 * protocol.BlockSize, 3, protocol.BlockSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.size)
			for i := range data {
				data[i] = byte(i)
			}
			img := &Image{Base: 0x800, Data: data}

			blocks := img.Blocks()
			if len(blocks) != tt.wantCount || img.BlockCount() != tt.wantCount {
				t.Fatalf("blocks = %d (BlockCount %d), want %d", len(blocks), img.BlockCount(), tt.wantCount)
			}
			if tt.wantCount > 0 && len(blocks[len(blocks)-1]) != tt.wantLast {
				t.Errorf("last block = %d bytes, want %d", len(blocks[len(blocks)-1]), tt.wantLast)
			}
			if !bytes.Equal(bytes.Join(blocks, nil), data) {
				t.Error("joined blocks differ from the image")
			}
			if img.End() != 0x800+uint32(tt.size) {
				t.Errorf("End() = 0x%X", img.End())
			}
		})
	}
}
