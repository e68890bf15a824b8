package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildPacket constructs one packet frame for the sending side.
// Data shorter than BlockSize is padded with PadByte.
//
// Frame structure:
//
//	ModeCRC:      [SOH][BLK][~BLK][DATA(128)][CRC_H][CRC_L]
//	ModeChecksum: [SOH][BLK][~BLK][DATA(128)][SUM]
//
// Returns the complete frame ready to send, or an error if validation fails.
func BuildPacket(mode Mode, number byte, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if len(data) > BlockSize {
		return nil, fmt.Errorf("data length %d exceeds block size %d bytes", len(data), BlockSize)
	}

	var block Block
	n := copy(block[:], data)
	for i := n; i < BlockSize; i++ {
		block[i] = PadByte
	}

	frame := make([]byte, 0, mode.PacketSize())

	// Header
	frame = append(frame, StartOfHeader, number, ^number)

	// Data
	frame = append(frame, block[:]...)

	// Trailer
	switch mode {
	case ModeChecksum:
		frame = append(frame, Sum8(block[:]))
	default:
		crc := make([]byte, 2)
		binary.BigEndian.PutUint16(crc, BlockCRC(&block))
		frame = append(frame, crc...)
	}

	return frame, nil
}
