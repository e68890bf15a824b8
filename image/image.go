package image

import "github.com/moffa90/go-xmboot/protocol"

// Image is a contiguous application image.
type Image struct {
	// Base is the lowest load address found in the file (0 for binary files)
	Base uint32

	// Data is the image content starting at Base
	Data []byte
}

// Size returns the image size in bytes.
func (img *Image) Size() int { return len(img.Data) }

// End returns one past the last address covered by the image.
func (img *Image) End() uint32 { return img.Base + uint32(len(img.Data)) }

// BlockCount returns the number of transfer blocks needed for the image.
func (img *Image) BlockCount() int {
	return (len(img.Data) + protocol.BlockSize - 1) / protocol.BlockSize
}

// Blocks splits the image into transfer blocks. Every block is BlockSize
// bytes except the last, which may be shorter and is padded on the wire.
// The returned slices share memory with Data.
func (img *Image) Blocks() [][]byte {
	blocks := make([][]byte, 0, img.BlockCount())
	for off := 0; off < len(img.Data); off += protocol.BlockSize {
		end := off + protocol.BlockSize
		if end > len(img.Data) {
			end = len(img.Data)
		}
		blocks = append(blocks, img.Data[off:end])
	}
	return blocks
}
