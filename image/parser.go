package image

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Constants for Intel HEX parsing.
const (
	// MinimumRecordLength is the shortest record in hex characters, without ':'
	MinimumRecordLength = 10

	// RecordHeaderSize is the size of length, address and type fields
	RecordHeaderSize = 4

	// RecordChecksumSize is the size of the record checksum field
	RecordChecksumSize = 1

	// MaxImageSize bounds the span between the lowest and highest address
	MaxImageSize = 1 << 20

	// ErasedByte fills gaps between records
	ErasedByte = 0xFF
)

// Intel HEX record types.
const (
	RecordData                   = 0x00
	RecordEndOfFile              = 0x01
	RecordExtendedSegmentAddress = 0x02
	RecordStartSegmentAddress    = 0x03
	RecordExtendedLinearAddress  = 0x04
	RecordStartLinearAddress     = 0x05
)

// Parse loads an image from the given file path.
//
// Example:
//
//	img, err := image.Parse("app.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes at 0x%04X\n", img.Size(), img.Base)
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader loads an image from any io.Reader, detecting the format
// from the content.
func ParseReader(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)
	for {
		c, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("empty file")
			}
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		switch c[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		case ':':
			return ParseHex(br)
		}
		return ParseBinary(br)
	}
}

// ParseBinary loads a raw binary image. Base is 0.
func ParseBinary(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	return &Image{Data: data}, nil
}

// segment is the data of one record at its absolute address.
type segment struct {
	addr uint32
	data []byte
}

// ParseHex loads an Intel HEX image.
//
// Example:
//
//	img, err := image.ParseHex(strings.NewReader(":0400000001020304F2\n:00000001FF\n"))
func ParseHex(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)

	var (
		segments []segment
		upper    uint32
		lineNum  int
		sawEOF   bool
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines
		if line == "" {
			continue
		}
		if sawEOF {
			return nil, fmt.Errorf("line %d: data after end of file record", lineNum)
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch rec.kind {
		case RecordData:
			if len(rec.data) > 0 {
				segments = append(segments, segment{addr: upper + uint32(rec.addr), data: rec.data})
			}
		case RecordEndOfFile:
			sawEOF = true
		case RecordExtendedSegmentAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: segment address record must carry 2 bytes", lineNum)
			}
			upper = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4
		case RecordExtendedLinearAddress:
			if len(rec.data) != 2 {
				return nil, fmt.Errorf("line %d: linear address record must carry 2 bytes", lineNum)
			}
			upper = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16
		case RecordStartSegmentAddress, RecordStartLinearAddress:
			// entry point, not needed for programming
		default:
			return nil, fmt.Errorf("line %d: unsupported record type 0x%02X", lineNum, rec.kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no data records found in file")
	}

	return assemble(segments)
}

// record is one decoded Intel HEX line.
type record struct {
	addr uint16
	kind byte
	data []byte
}

// parseRecord parses a single Intel HEX record.
//
// Record format:
//
//	:[Length(1 byte)][Address(2 bytes)][Type(1 byte)][Data(N bytes)][Checksum(1 byte)]
//
// The address is big-endian.
func parseRecord(line string) (*record, error) {
	if line[0] != ':' {
		return nil, fmt.Errorf("record must start with ':'")
	}
	line = line[1:]

	if len(line) < MinimumRecordLength {
		return nil, fmt.Errorf("record too short: got %d characters, minimum is %d", len(line), MinimumRecordLength)
	}

	raw, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}

	dataLen := int(raw[0])
	expectedLen := RecordHeaderSize + dataLen + RecordChecksumSize
	if len(raw) != expectedLen {
		return nil, fmt.Errorf("data length mismatch: got %d bytes, expected %d (header=%d + data=%d + checksum=%d)",
			len(raw), expectedLen, RecordHeaderSize, dataLen, RecordChecksumSize)
	}

	checksum := raw[len(raw)-1]
	calculated := recordChecksum(raw[:len(raw)-1])
	if checksum != calculated {
		return nil, fmt.Errorf("checksum mismatch: got 0x%02X, expected 0x%02X", checksum, calculated)
	}

	rec := &record{
		addr: uint16(raw[1])<<8 | uint16(raw[2]),
		kind: raw[3],
		data: make([]byte, dataLen),
	}
	copy(rec.data, raw[RecordHeaderSize:RecordHeaderSize+dataLen])

	return rec, nil
}

// recordChecksum computes the 8-bit record checksum.
// Uses basic summation with 2's complement.
func recordChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1 // 2's complement
}

// assemble lays the segments out in one buffer. Later records overwrite
// earlier ones where they overlap.
func assemble(segments []segment) (*Image, error) {
	lo, hi := segments[0].addr, segments[0].addr
	for _, s := range segments {
		if s.addr < lo {
			lo = s.addr
		}
		if end := s.addr + uint32(len(s.data)); end > hi {
			hi = end
		}
	}

	if hi-lo > MaxImageSize {
		return nil, fmt.Errorf("image spans 0x%X-0x%X, more than %d bytes", lo, hi, MaxImageSize)
	}

	data := bytes.Repeat([]byte{ErasedByte}, int(hi-lo))
	for _, s := range segments {
		copy(data[s.addr-lo:], s.data)
	}

	return &Image{Base: lo, Data: data}, nil
}
