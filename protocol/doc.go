// Package protocol implements the receiving side of the XMODEM and XMODEM-CRC
// transfer protocols as used by the serial firmware updater.
//
// # Protocol Overview
//
// The sender transmits fixed-size packets, one 128-byte block at a time:
//
//	XMODEM-CRC: [SOH][BLK][~BLK][DATA(128)][CRC_H][CRC_L]
//	XMODEM:     [SOH][BLK][~BLK][DATA(128)][SUM]
//
// Where:
//   - SOH = Start of Header (0x01)
//   - BLK = block number, ~BLK its one's complement (BLK + ~BLK == 0xFF)
//   - CRC = CRC-16 (poly 0x1021, init 0x0000, MSB first), high byte first
//   - SUM = 8-bit arithmetic sum of the data bytes
//
// The transfer ends with a single EOT (0x04). The receiver answers every
// packet with ACK (0x06) or NAK (0x15). Before the first packet the receiver
// repeatedly sends a ready probe: 'C' for XMODEM-CRC, NAK for plain XMODEM.
//
// # Receiving Packets
//
// A Receiver reads from any byte link and returns one validated packet per
// call:
//
//	rx := protocol.NewReceiver(link, protocol.ModeCRC)
//	for {
//	    pkt, err := rx.Receive()
//	    if err == io.EOF {
//	        break // sender is done, caller acknowledges the EOT
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // consume pkt.Payload, then ACK or NAK it
//	}
//
// Corrupted packets are answered with NAK inside Receive and never returned.
// Accepted packets are NOT acknowledged by the receiver, so the caller can
// decide the answer after it has stored the data.
//
// # Building Packets
//
// BuildPacket produces a complete frame for the sending side:
//
//	frame, err := protocol.BuildPacket(protocol.ModeCRC, 1, data)
package protocol
