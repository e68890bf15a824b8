package sim

import (
	"bytes"
	"sync"
)

// ErasedByte is the value of erased non-volatile memory.
const ErasedByte = 0xFF

// Flash is simulated program memory with a page buffer.
//
// Load writes into the page buffer at the offset of the address within its
// page. CommitPage erases the addressed page, copies the buffer into it and
// clears the buffer to ErasedByte.
type Flash struct {
	mu       sync.Mutex
	data     []byte
	pageSize int
	buffer   []byte
	commits  int
	faults   map[uint32]int
}

// NewFlash creates erased program memory of size bytes.
func NewFlash(size, pageSize int) *Flash {
	if size <= 0 || pageSize <= 0 {
		panic("flash size and page size must be positive")
	}
	return &Flash{
		data:     bytes.Repeat([]byte{ErasedByte}, size),
		pageSize: pageSize,
		buffer:   bytes.Repeat([]byte{ErasedByte}, pageSize),
		faults:   make(map[uint32]int),
	}
}

func (f *Flash) PageSize() int { return f.pageSize }

// Size returns the memory size in bytes.
func (f *Flash) Size() int { return len(f.data) }

func (f *Flash) Load(addr uint32, b byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffer[int(addr)%f.pageSize] = b
}

func (f *Flash) CommitPage(addr uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := int(addr) - int(addr)%f.pageSize
	if base+f.pageSize <= len(f.data) {
		copy(f.data[base:base+f.pageSize], f.buffer)
	}
	for i := range f.buffer {
		f.buffer[i] = ErasedByte
	}
	f.commits++
}

func (f *Flash) Read(addr uint32) byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if int(addr) >= len(f.data) {
		return ErasedByte
	}
	if n := f.faults[addr]; n > 0 {
		f.faults[addr] = n - 1
		return ^f.data[addr]
	}
	return f.data[addr]
}

// InjectReadFault makes the next count reads of addr return the inverted
// stored byte.
func (f *Flash) InjectReadFault(addr uint32, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[addr] = count
}

// Commits returns the number of page commits so far.
func (f *Flash) Commits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

// Contents returns a copy of the bytes in [start, end).
func (f *Flash) Contents(start, end uint32) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if int(end) > len(f.data) {
		end = uint32(len(f.data))
	}
	if start >= end {
		return nil
	}
	return append([]byte(nil), f.data[start:end]...)
}

// Program writes data at addr directly, bypassing the page buffer.
// It stands in for an external programmer flashing the updater itself.
func (f *Flash) Program(addr uint32, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(f.data[addr:], data)
}

// EEPROM is the simulated flag byte. A write keeps Busy true for the
// configured number of checks.
type EEPROM struct {
	mu         sync.Mutex
	value      byte
	busyCycles int
	busy       int
	writes     int
}

// NewEEPROM creates an erased flag byte.
func NewEEPROM() *EEPROM {
	return &EEPROM{value: ErasedByte}
}

// SetBusyCycles sets how many Busy checks each write stays busy for.
func (e *EEPROM) SetBusyCycles(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.busyCycles = n
}

// Set stores v without a write cycle.
func (e *EEPROM) Set(v byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = v
}

func (e *EEPROM) ReadFlag() byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *EEPROM) WriteFlag(v byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = v
	e.busy = e.busyCycles
	e.writes++
}

func (e *EEPROM) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy > 0 {
		e.busy--
		return true
	}
	return false
}

// Writes returns the number of write cycles so far.
func (e *EEPROM) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}
