// Package sender implements the host side of the firmware updater: it
// transmits an application image to a device in update mode over
// XMODEM-CRC (or plain XMODEM with the 8-bit sum).
//
// # Basic Usage
//
//	port, _ := serialport.Open("/dev/ttyUSB0", 230400)
//	defer port.Close()
//
//	img, _ := image.Parse("app.hex")
//
//	s := sender.New(port,
//	    sender.WithRetries(10),
//	    sender.WithProgressCallback(func(p sender.Progress) {
//	        fmt.Printf("%.1f%%\n", p.Percentage)
//	    }),
//	)
//	result, err := s.Send(context.Background(), img.Data)
//
// # Transfer
//
// Send waits for the device's ready probe, which also selects the packet
// format: 'C' for CRC-16, NAK for the 8-bit sum. Blocks are numbered from 1
// and the last one is padded with 0x1A. Every block is retransmitted on NAK
// or when no reply arrives within the reply timeout, up to the retry limit.
// Bytes other than ACK, NAK and CAN while waiting for a reply are ignored.
// EOT ends the transfer once the device acknowledges it.
//
// The device does not check block sequence numbers: a block whose ACK is
// lost and that is therefore sent again is programmed twice. Keep the reply
// timeout well above the device's programming time.
//
// # Re-entering Update Mode
//
// A running application built with the updater's re-entry hook goes back
// to update mode when it receives any byte. Trigger sends that byte.
package sender
