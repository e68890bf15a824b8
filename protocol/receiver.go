package protocol

import (
	"io"
)

// ByteLink is the byte-at-a-time serial link a Receiver runs over.
// Hardware links block until a byte is available and never fail;
// simulated or remote links may return io.EOF once closed.
type ByteLink interface {
	io.ByteReader
	io.ByteWriter
}

// State is a step of the receive state machine.
type State int

const (
	// StateWaitHeader discards bytes until SOH or EOT arrives
	StateWaitHeader State = iota

	// StateReadBlockNumbers reads the block number and its complement
	StateReadBlockNumbers

	// StateReadPayload reads the 128 data bytes
	StateReadPayload

	// StateReadChecksum reads the CRC or sum trailer
	StateReadChecksum

	// StateValidate checks trailer and block number pair
	StateValidate

	// StateAccept holds a validated packet that the caller has not answered yet
	StateAccept

	// StateEndOfTransmission means the sender sent EOT
	StateEndOfTransmission
)

func (s State) String() string {
	switch s {
	case StateWaitHeader:
		return "wait-header"
	case StateReadBlockNumbers:
		return "read-block-numbers"
	case StateReadPayload:
		return "read-payload"
	case StateReadChecksum:
		return "read-checksum"
	case StateValidate:
		return "validate"
	case StateAccept:
		return "accept"
	case StateEndOfTransmission:
		return "end-of-transmission"
	default:
		return "unknown"
	}
}

// Stats counts what a Receiver has seen since it was created.
type Stats struct {
	// Accepted is the number of packets returned to the caller
	Accepted int

	// Rejected is the number of packets answered with NAK
	Rejected int

	// Discarded is the number of bytes dropped while waiting for a header
	Discarded int
}

// Receiver assembles validated packets from a byte link.
//
// The packet buffer is owned by the Receiver and overwritten in place by
// every call to Receive. A Receiver is not safe for concurrent use.
type Receiver struct {
	link  ByteLink
	mode  Mode
	state State
	pkt   Packet
	stats Stats

	// OnReject, if set, is called for every packet answered with NAK.
	OnReject func(*RejectError)
}

// NewReceiver creates a Receiver reading packets of the given mode from link.
func NewReceiver(link ByteLink, mode Mode) *Receiver {
	if link == nil {
		panic("link cannot be nil")
	}
	return &Receiver{
		link: link,
		mode: mode,
	}
}

// Mode returns the packet format the receiver expects.
func (r *Receiver) Mode() Mode { return r.mode }

// State returns the current state of the receive state machine.
func (r *Receiver) State() State { return r.state }

// Stats returns the receive counters.
func (r *Receiver) Stats() Stats { return r.stats }

// Receive blocks until a packet passes validation and returns it, or until
// the sender signals end of transmission, in which case it returns io.EOF.
// A link that ends without EOT yields io.ErrUnexpectedEOF.
//
// Bytes other than SOH and EOT while waiting for a header are discarded.
// A packet with a bad trailer or a bad block number pair is answered with
// NAK and the receiver goes back to waiting for a header; there is no retry
// limit, the sender decides when to give up. An accepted packet is not
// acknowledged: the caller sends ACK or NAK once it has dealt with the data.
//
// The returned packet is valid until the next call to Receive.
func (r *Receiver) Receive() (*Packet, error) {
	r.state = StateWaitHeader

	for {
		switch r.state {
		case StateWaitHeader:
			c, err := r.link.ReadByte()
			if err != nil {
				return nil, linkError(err)
			}
			switch c {
			case StartOfHeader:
				r.state = StateReadBlockNumbers
			case EndOfTransmission:
				r.state = StateEndOfTransmission
				return nil, io.EOF
			default:
				r.stats.Discarded++
			}

		case StateReadBlockNumbers:
			num, err := r.link.ReadByte()
			if err != nil {
				return nil, linkError(err)
			}
			inv, err := r.link.ReadByte()
			if err != nil {
				return nil, linkError(err)
			}
			r.pkt.Number = num
			r.pkt.Complement = inv
			r.state = StateReadPayload

		case StateReadPayload:
			for i := range r.pkt.Payload {
				b, err := r.link.ReadByte()
				if err != nil {
					return nil, linkError(err)
				}
				r.pkt.Payload[i] = b
			}
			r.state = StateReadChecksum

		case StateReadChecksum:
			trailer, err := r.readTrailer()
			if err != nil {
				return nil, linkError(err)
			}
			r.pkt.Checksum = trailer
			r.state = StateValidate

		case StateValidate:
			if rej := r.validate(); rej != nil {
				r.stats.Rejected++
				if r.OnReject != nil {
					r.OnReject(rej)
				}
				if err := r.link.WriteByte(Nak); err != nil {
					return nil, err
				}
				r.state = StateWaitHeader
				continue
			}
			r.stats.Accepted++
			r.state = StateAccept
			return &r.pkt, nil

		default:
			r.state = StateWaitHeader
		}
	}
}

// linkError keeps io.EOF reserved for the EOT marker: a link that closes
// is reported as io.ErrUnexpectedEOF.
func linkError(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// readTrailer reads the CRC (high byte first) or the single sum byte.
func (r *Receiver) readTrailer() (uint16, error) {
	hi, err := r.link.ReadByte()
	if err != nil {
		return 0, err
	}
	if r.mode == ModeChecksum {
		return uint16(hi), nil
	}
	lo, err := r.link.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<BitsPerByte | uint16(lo), nil
}

// validate checks the trailer first, then the block number pair.
func (r *Receiver) validate() *RejectError {
	want := r.mode.Checksum(r.pkt.Payload[:])
	if r.pkt.Checksum != want {
		return &RejectError{
			Number:     r.pkt.Number,
			Complement: r.pkt.Complement,
			Reason:     ReasonChecksum,
			Got:        r.pkt.Checksum,
			Want:       want,
		}
	}
	if !ValidBlockPair(r.pkt.Number, r.pkt.Complement) {
		return &RejectError{
			Number:     r.pkt.Number,
			Complement: r.pkt.Complement,
			Reason:     ReasonBlockPair,
		}
	}
	return nil
}
