// Package bootloader implements the device side of the serial firmware
// updater: it receives an application image over XMODEM-CRC, programs it
// into program memory page by page, verifies every block by read-back and
// hands control to the application.
//
// # Overview
//
// On every reset the updater runs this sequence:
//   - Entry decision: read the persisted flag and the control input
//   - Either jump to the application, or
//   - Handshake: blink and send the ready probe until the sender starts
//   - Transfer: receive, program and verify blocks until EOT
//   - Persist the "application programmed" flag
//   - Wait for the control input to be released, then reset
//
// # Basic Usage
//
// The hardware is injected as a Device made of narrow capabilities:
//
//	dev := bootloader.Device{
//	    Link:   uart,   // Transport
//	    Memory: flash,  // ProgramMemory
//	    Flag:   eeprom, // FlagStore
//	    Button: sw,     // Input
//	    LED:    led,    // Indicator
//	    Waiter: bootloader.SpinWaiter{},
//	    Jump:   jumpToApp,
//	    Reset:  softReset,
//	}
//
//	upd := bootloader.New(dev,
//	    bootloader.WithAppStart(2048),
//	    bootloader.WithMemoryEnd(32*1024),
//	)
//	outcome, err := upd.Boot(context.Background())
//
// # Progress Tracking
//
//	upd := bootloader.New(dev,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("[%s] block %d at 0x%04X\n", p.Phase, p.Block, p.Address)
//	    }),
//	)
//
// # Error Handling
//
// Transfer and programming problems never end a session. A corrupted packet
// is answered with NAK by the protocol receiver; a block whose read-back
// differs (VerifyError) or that does not fit (AddressOutOfRangeError) is
// answered with NAK as well, so the sender's retry logic covers both. There
// is no local retry limit and no timeout: the sender decides when to give up.
//
// Errors returned by Boot come from the link itself (a simulated or remote
// link that closed), from a cancelled context, or from a flag write that
// never completed (ErrFlagWriteTimeout).
//
// # Hardware Independence
//
// This package does NOT touch registers. Every busy-wait goes through a
// Waiter so that tests run against a simulated backend without delays;
// see package sim.
package bootloader
