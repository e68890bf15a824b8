package protocol

import (
	"fmt"
	"strings"
)

// Block is one packet payload.
type Block [BlockSize]byte

// Packet is a received and validated packet.
type Packet struct {
	// Number is the block number as sent (wraps at 256, starts at 1)
	Number byte

	// Complement is the one's complement of Number as sent
	Complement byte

	// Payload is the 128-byte data block
	Payload Block

	// Checksum is the received trailer: the CRC in XMODEM-CRC mode,
	// the zero-extended 8-bit sum in plain mode
	Checksum uint16
}

// Mode selects between plain XMODEM and XMODEM-CRC.
type Mode int

const (
	// ModeCRC uses the 'C' probe and a 2-byte CRC trailer
	ModeCRC Mode = iota

	// ModeChecksum uses the NAK probe and a 1-byte sum trailer
	ModeChecksum
)

// ParseMode converts a configuration string ("crc" or "checksum") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crc", "xmodem-crc", "":
		return ModeCRC, nil
	case "checksum", "sum", "xmodem":
		return ModeChecksum, nil
	default:
		return ModeCRC, fmt.Errorf("unknown mode %q: must be crc or checksum", s)
	}
}

// Poll returns the ready probe the receiver sends while waiting for a sender.
func (m Mode) Poll() byte {
	if m == ModeChecksum {
		return Nak
	}
	return PollCRC
}

// TrailerSize returns the number of checksum bytes after the payload.
func (m Mode) TrailerSize() int {
	if m == ModeChecksum {
		return ChecksumTrailerSize
	}
	return CRCTrailerSize
}

// PacketSize returns the total size of one packet on the wire.
func (m Mode) PacketSize() int {
	return HeaderSize + BlockSize + m.TrailerSize()
}

// Checksum computes the trailer value of data for this mode.
func (m Mode) Checksum(data []byte) uint16 {
	if m == ModeChecksum {
		return uint16(Sum8(data))
	}
	return CRC16(data)
}

func (m Mode) String() string {
	switch m {
	case ModeCRC:
		return "crc"
	case ModeChecksum:
		return "checksum"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}
