package rb

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// cursors holds the two unbounded positions of a ring buffer.
// The writer only stores into writePos and the reader only stores into readPos,
// so each one is padded on its own cache line.
//
// Slots are mapped as pos % capacity. When the cursors wrap at 2^64 the mapping
// stays continuous only for power-of-two capacities: with any other capacity
// an element still queued across the wrap may be overwritten.
type cursors struct {
	writePos atomic.Uint64

	_ cpu.CacheLinePad

	readPos atomic.Uint64

	_ cpu.CacheLinePad

	capacity uint64
}

// len returns the occupied count. Wrapping subtraction keeps it
// correct after the cursors overflow.
func (c *cursors) len() uint64 {
	return c.writePos.Load() - c.readPos.Load()
}

func (c *cursors) rem() uint64 {
	return c.capacity - c.len()
}

func (c *cursors) isEmpty() bool {
	return c.readPos.Load() == c.writePos.Load()
}

func (c *cursors) isFull() bool {
	return c.len() == c.capacity
}

// phy maps a logical position into a physical slot.
// Capacity is not required to be a power of two.
func (c *cursors) phy(pos uint64) int {
	return int(pos % c.capacity)
}

func (c *cursors) incrReader() {
	if c.isEmpty() {
		panic("ring buffer: attempted to advance reader of an empty ring buffer")
	}

	c.readPos.Store(c.readPos.Load() + 1)
}

func (c *cursors) incrWriter() {
	if c.isFull() {
		panic("ring buffer: attempted to advance writer of a full ring buffer")
	}

	c.writePos.Store(c.writePos.Load() + 1)
}
