package bootloader

import (
	"github.com/moffa90/go-xmboot/protocol"
)

// Writer programs received blocks into the application region.
//
// Bytes are staged into the page buffer one at a time and a page is
// committed whenever a full page has been staged. After each block the
// whole block is read back; the write cursor only advances when every byte
// matches, so a block that failed verification is rewritten in place when
// the sender retransmits it.
type Writer struct {
	mem    ProgramMemory
	flag   FlagStore
	waiter Waiter
	config Config

	pageSize int
	cursor   uint32
	pending  int
	pages    int
}

// NewWriter creates a Writer whose cursor starts at cfg.AppStart.
// The page size of mem must divide the block size.
func NewWriter(mem ProgramMemory, flag FlagStore, waiter Waiter, cfg Config) (*Writer, error) {
	ps := mem.PageSize()
	if ps <= 0 || protocol.BlockSize%ps != 0 {
		return nil, &PageSizeError{PageSize: ps}
	}
	return &Writer{
		mem:      mem,
		flag:     flag,
		waiter:   waiter,
		config:   cfg,
		pageSize: ps,
		cursor:   cfg.AppStart,
	}, nil
}

// Cursor returns the address the next block will be written to.
func (w *Writer) Cursor() uint32 { return w.cursor }

// PagesCommitted returns the number of page commits issued so far.
func (w *Writer) PagesCommitted() int { return w.pages }

// Pending returns the number of bytes staged but not yet committed.
func (w *Writer) Pending() int { return w.pending }

// WriteBlock stages and commits one block at the cursor and verifies it.
//
// Returns *AddressOutOfRangeError when the block does not fit below
// MemoryEnd and *VerifyError on the first mismatching byte. In both cases
// the cursor is unchanged.
func (w *Writer) WriteBlock(b *protocol.Block) error {
	if w.cursor < w.config.AppStart || w.cursor+protocol.BlockSize > w.config.MemoryEnd {
		return &AddressOutOfRangeError{
			Address: w.cursor,
			Start:   w.config.AppStart,
			End:     w.config.MemoryEnd,
		}
	}

	for i, v := range b {
		addr := w.cursor + uint32(i)
		w.mem.Load(addr, v)
		w.pending++
		if w.pending == w.pageSize {
			w.mem.CommitPage(addr)
			w.pending = 0
			w.pages++
		}
	}

	for i, v := range b {
		addr := w.cursor + uint32(i)
		if got := w.mem.Read(addr); got != v {
			return &VerifyError{Address: addr, Want: v, Got: got}
		}
	}

	w.cursor += protocol.BlockSize
	return nil
}

// PersistSuccessFlag writes the programmed marker to the flag store and
// waits for the write to complete.
func (w *Writer) PersistSuccessFlag() error {
	return writeFlag(w.flag, w.waiter, w.config.ProgrammedMarker, w.config.FlagWriteTicks)
}

func writeFlag(flag FlagStore, waiter Waiter, v byte, ticks uint32) error {
	flag.WriteFlag(v)
	if !waiter.Until(func() bool { return !flag.Busy() }, ticks) {
		return ErrFlagWriteTimeout
	}
	return nil
}
