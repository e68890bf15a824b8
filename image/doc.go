// Package image loads application images for the firmware updater.
//
// Two formats are accepted: raw binary files and Intel HEX files as produced
// by avr-objcopy. The format is detected from the content: a file whose
// first non-blank character is ':' is parsed as Intel HEX.
//
// # Intel HEX Format
//
// Every line is a record:
//
//	:[Length(2)][Address(4)][Type(2)][Data(2*Length)][Checksum(2)]
//
// Example record:
//
//	:0400000001020304F2
//	  04 = Data length
//	  0000 = Load address (big-endian)
//	  00 = Record type (data)
//	  01020304 = Data
//	  F2 = Checksum (two's complement of the byte sum)
//
// Supported record types are data (00), end of file (01), extended segment
// address (02) and extended linear address (04). Start address records
// (03, 05) are accepted and ignored. Gaps between data records are filled
// with the erased value 0xFF.
//
// # Usage
//
//	img, err := image.Parse("app.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Base: 0x%04X\n", img.Base)
//	fmt.Printf("Blocks: %d\n", img.BlockCount())
//
//	for i, block := range img.Blocks() {
//	    fmt.Printf("Block %d: %d bytes\n", i+1, len(block))
//	}
//
// # Error Handling
//
// Parse returns detailed errors for invalid files:
//   - Records that are too short or not hex encoded
//   - Record checksum mismatches
//   - Unknown record types
//   - Images larger than MaxImageSize
//
// Record errors include the line number.
package image
