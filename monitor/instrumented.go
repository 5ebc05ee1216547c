package monitor

import (
	"sync/atomic"

	"github.com/FerroO2000/ringbuf/internal/rb"
)

// WriterStats holds the counters of an instrumented writer.
type WriterStats struct {
	// Accepted is the number of elements written.
	Accepted int64
	// Rejected is the number of elements that did not fit.
	Rejected int64
	// ShortWrites is the number of bulk writes that were truncated.
	ShortWrites int64
}

// InstrumentedWriter wraps a writer view and counts the outcome of every call.
// Like the wrapped view, it must be used by a single goroutine.
type InstrumentedWriter[T any] struct {
	*rb.Writer[T]

	accepted    atomic.Int64
	rejected    atomic.Int64
	shortWrites atomic.Int64
}

// InstrumentWriter wraps w and exports its counters as
// <name>_accepted, <name>_rejected and <name>_short_writes.
func InstrumentWriter[T any](m *Monitor, name string, w *rb.Writer[T]) *InstrumentedWriter[T] {
	iw := &InstrumentedWriter[T]{
		Writer: w,
	}

	m.tel.NewCounter(name+"_accepted", iw.accepted.Load)
	m.tel.NewCounter(name+"_rejected", iw.rejected.Load)
	m.tel.NewCounter(name+"_short_writes", iw.shortWrites.Load)

	return iw
}

// Enqueue appends one element. It returns false if the buffer is full.
func (iw *InstrumentedWriter[T]) Enqueue(value T) bool {
	if !iw.Writer.Enqueue(value) {
		iw.rejected.Add(1)
		return false
	}

	iw.accepted.Add(1)
	return true
}

// Write appends as many leading elements of src as fit and returns how many were written.
func (iw *InstrumentedWriter[T]) Write(src []T) int {
	n := iw.Writer.Write(src)

	iw.accepted.Add(int64(n))
	if n < len(src) {
		iw.rejected.Add(int64(len(src) - n))
		iw.shortWrites.Add(1)
	}

	return n
}

// Stats returns the current counters.
func (iw *InstrumentedWriter[T]) Stats() WriterStats {
	return WriterStats{
		Accepted:    iw.accepted.Load(),
		Rejected:    iw.rejected.Load(),
		ShortWrites: iw.shortWrites.Load(),
	}
}

// ReaderStats holds the counters of an instrumented reader.
type ReaderStats struct {
	// Delivered is the number of elements read.
	Delivered int64
	// EmptyDequeues is the number of dequeues on an empty buffer.
	EmptyDequeues int64
	// ShortReads is the number of bulk reads that returned less than requested.
	ShortReads int64
}

// InstrumentedReader wraps a reader view and counts the outcome of every call.
// Like the wrapped view, it must be used by a single goroutine.
type InstrumentedReader[T any] struct {
	*rb.Reader[T]

	delivered     atomic.Int64
	emptyDequeues atomic.Int64
	shortReads    atomic.Int64
}

// InstrumentReader wraps r and exports its counters as
// <name>_delivered, <name>_empty_dequeues and <name>_short_reads.
func InstrumentReader[T any](m *Monitor, name string, r *rb.Reader[T]) *InstrumentedReader[T] {
	ir := &InstrumentedReader[T]{
		Reader: r,
	}

	m.tel.NewCounter(name+"_delivered", ir.delivered.Load)
	m.tel.NewCounter(name+"_empty_dequeues", ir.emptyDequeues.Load)
	m.tel.NewCounter(name+"_short_reads", ir.shortReads.Load)

	return ir
}

// Dequeue removes and returns the oldest element, if any.
func (ir *InstrumentedReader[T]) Dequeue() (T, bool) {
	value, ok := ir.Reader.Dequeue()
	if !ok {
		ir.emptyDequeues.Add(1)
		return value, false
	}

	ir.delivered.Add(1)
	return value, true
}

// Read moves up to len(dst) elements into dst and returns how many were read.
func (ir *InstrumentedReader[T]) Read(dst []T) int {
	n := ir.Reader.Read(dst)

	ir.delivered.Add(int64(n))
	if n < len(dst) {
		ir.shortReads.Add(1)
	}

	return n
}

// Stats returns the current counters.
func (ir *InstrumentedReader[T]) Stats() ReaderStats {
	return ReaderStats{
		Delivered:     ir.delivered.Load(),
		EmptyDequeues: ir.emptyDequeues.Load(),
		ShortReads:    ir.shortReads.Load(),
	}
}
