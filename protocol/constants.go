package protocol

// Control characters used on the wire.
const (
	// StartOfHeader marks the beginning of a 128-byte block packet (0x01)
	StartOfHeader = 0x01

	// EndOfTransmission tells the receiver that no more blocks follow (0x04)
	EndOfTransmission = 0x04

	// Ack acknowledges a block or the final EOT (0x06)
	Ack = 0x06

	// Nak rejects a block and asks for a retransmission (0x15).
	// It is also the ready probe of plain XMODEM.
	Nak = 0x15

	// PollCRC is the ready probe that selects XMODEM-CRC ('C')
	PollCRC = 'C'

	// Cancel aborts a transfer from either side (0x18)
	Cancel = 0x18

	// PadByte fills the unused tail of the last block (CP/M EOF, 0x1A)
	PadByte = 0x1A
)

// Packet geometry.
const (
	// BlockSize is the payload size of every packet
	BlockSize = 128

	// HeaderSize is SOH(1) + BLK(1) + ~BLK(1)
	HeaderSize = 3

	// CRCTrailerSize is the trailer size in XMODEM-CRC mode (CRC high, CRC low)
	CRCTrailerSize = 2

	// ChecksumTrailerSize is the trailer size in plain XMODEM mode
	ChecksumTrailerSize = 1

	// BlockPairSum is the sum of a block number and its complement
	BlockPairSum = 0xFF
)
