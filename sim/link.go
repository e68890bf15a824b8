package sim

import (
	"io"
	"sync"
	"time"
)

// NoTimeout makes HostPort reads block until data arrives.
const NoTimeout time.Duration = -1

const linkBuffer = 4096

// Link is an in-memory serial line between a host and a device.
type Link struct {
	toDevice chan byte
	toHost   chan byte
	done     chan struct{}
	once     sync.Once

	host   *HostPort
	device *DevicePort
}

// NewLink creates a connected host and device port pair.
func NewLink() *Link {
	l := &Link{
		toDevice: make(chan byte, linkBuffer),
		toHost:   make(chan byte, linkBuffer),
		done:     make(chan struct{}),
	}
	l.host = &HostPort{link: l, timeout: NoTimeout}
	l.device = &DevicePort{link: l}
	return l
}

// Host returns the host end.
func (l *Link) Host() *HostPort { return l.host }

// Device returns the device end.
func (l *Link) Device() *DevicePort { return l.device }

// Close disconnects both ends. Bytes already in flight can still be read.
func (l *Link) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

// HostPort is the host end of a Link. It behaves like an opened serial
// port: a read that times out returns 0 bytes and no error.
type HostPort struct {
	link *Link

	mu      sync.Mutex
	timeout time.Duration
}

// SetReadTimeout sets the read timeout. NoTimeout blocks.
func (p *HostPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func (p *HostPort) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	timeout := p.timeout
	p.mu.Unlock()

	var expired <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case c := <-p.link.toHost:
		b[0] = c
	case <-expired:
		return 0, nil
	case <-p.link.done:
		select {
		case c := <-p.link.toHost:
			b[0] = c
		default:
			return 0, io.EOF
		}
	}

	n := 1
	for n < len(b) {
		select {
		case c := <-p.link.toHost:
			b[n] = c
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

func (p *HostPort) Write(b []byte) (int, error) {
	for i, c := range b {
		select {
		case <-p.link.done:
			return i, io.ErrClosedPipe
		default:
		}
		select {
		case p.link.toDevice <- c:
		case <-p.link.done:
			return i, io.ErrClosedPipe
		}
	}
	return len(b), nil
}

// Close closes the whole link.
func (p *HostPort) Close() error { return p.link.Close() }

// DevicePort is the device end of a Link.
type DevicePort struct {
	link *Link
}

// ReadByte blocks until a byte arrives. It returns io.EOF once the link is
// closed and drained.
func (p *DevicePort) ReadByte() (byte, error) {
	select {
	case c := <-p.link.toDevice:
		return c, nil
	case <-p.link.done:
		select {
		case c := <-p.link.toDevice:
			return c, nil
		default:
			return 0, io.EOF
		}
	}
}

func (p *DevicePort) WriteByte(c byte) error {
	select {
	case <-p.link.done:
		return io.ErrClosedPipe
	default:
	}
	select {
	case p.link.toHost <- c:
		return nil
	case <-p.link.done:
		return io.ErrClosedPipe
	}
}

// ActivityPending reports whether the host has sent a byte not yet read.
func (p *DevicePort) ActivityPending() bool {
	return len(p.link.toDevice) > 0
}
