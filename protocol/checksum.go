package protocol

// Checksum algorithm constants.
const (
	// CRC16Polynomial is the CRC-16 polynomial used by XMODEM-CRC (0x1021)
	CRC16Polynomial = 0x1021

	// CRC16InitialValue is the CRC register value before the first byte
	CRC16InitialValue = 0x0000

	// CRC16HighBitMask is the high bit tested on every shift
	CRC16HighBitMask = 0x8000

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// CRC16 computes the XMODEM-CRC value of data.
//
// Bit-serial, most significant bit first:
//   - Polynomial: CRC16Polynomial
//   - Initial value: CRC16InitialValue
//   - No reflection, no final XOR, no augmentation bytes
func CRC16(data []byte) uint16 {
	var crc uint16 = CRC16InitialValue

	for _, b := range data {
		crc ^= uint16(b) << BitsPerByte
		for i := 0; i < BitsPerByte; i++ {
			top := crc & CRC16HighBitMask
			crc <<= 1
			if top != 0 {
				crc ^= CRC16Polynomial
			}
		}
	}

	return crc
}

// BlockCRC computes the XMODEM-CRC value of a full payload block.
func BlockCRC(b *Block) uint16 {
	return CRC16(b[:])
}

// Sum8 computes the plain XMODEM checksum: the 8-bit sum of all bytes.
// Unlike a row checksum there is no 2's complement.
func Sum8(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// ValidBlockPair reports whether num and inv form a block number and its
// one's complement. The block number itself is not checked against any
// expected sequence.
func ValidBlockPair(num, inv byte) bool {
	return num+inv == BlockPairSum
}
