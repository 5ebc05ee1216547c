// Package ringbuf provides a fixed-capacity single producer/single consumer
// ring buffer with separated reader and writer views.
//
// A buffer is created either over freshly allocated memory (New, NewPair)
// or over a caller provided storage (NewWithStorage), for example a fixed-size array:
//
//	var backing [256]byte
//	rb, _ := ringbuf.NewWithStorage(ringbuf.SliceStorage[byte](backing[:]))
//	reader, writer, _ := rb.Pair()
//
// The writer view is handed to the producer and the reader view to the consumer.
// No operation blocks: a full buffer is reported by Enqueue returning false
// or by Write returning a short count, an empty one by Dequeue returning false
// or by Read returning a short count.
package ringbuf

import "github.com/FerroO2000/ringbuf/internal/rb"

var (
	// ErrInvalidCapacity is returned when the capacity is not greater than zero.
	ErrInvalidCapacity = rb.ErrInvalidCapacity
	// ErrNilStorage is returned when no backing storage is provided.
	ErrNilStorage = rb.ErrNilStorage
	// ErrAlreadyPaired is returned when the reader/writer views have already been taken.
	ErrAlreadyPaired = rb.ErrAlreadyPaired
	// ErrSlotInitialized is returned when a slot is initialized more than once.
	ErrSlotInitialized = rb.ErrSlotInitialized
)

// RingBuffer is a lock-free single producer/single consumer ring buffer.
type RingBuffer[T any] = rb.RingBuffer[T]

// Reader is the consumer side view of a ring buffer.
type Reader[T any] = rb.Reader[T]

// Writer is the producer side view of a ring buffer.
type Writer[T any] = rb.Writer[T]

// Storage is the fixed-length backing store of a ring buffer.
type Storage[T any] = rb.Storage[T]

// SliceStorage adapts a slice to the Storage interface.
type SliceStorage[T any] = rb.SliceStorage[T]

// Slot holds a process-lifetime ring buffer that is initialized once.
type Slot[T any] = rb.Slot[T]

// New returns a ring buffer with the given capacity.
// Any positive capacity is accepted, but only a power of two keeps the FIFO
// order across the wrap of the internal cursors, after 2^64 operations.
func New[T any](capacity int) (*RingBuffer[T], error) {
	return rb.New[T](capacity)
}

// NewWithStorage returns a ring buffer over the given storage.
func NewWithStorage[T any](storage Storage[T]) (*RingBuffer[T], error) {
	return rb.NewWithStorage(storage)
}

// NewPair returns the reader and writer views of a new ring buffer.
func NewPair[T any](capacity int) (*Reader[T], *Writer[T], error) {
	return rb.NewPair[T](capacity)
}
