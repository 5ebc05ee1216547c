// Package rb provides a fixed-capacity single producer/single consumer ring buffer.
package rb

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrInvalidCapacity is returned when the capacity is not greater than zero.
	ErrInvalidCapacity = errors.New("ring buffer: capacity must be greater than zero")
	// ErrNilStorage is returned when no backing storage is provided.
	ErrNilStorage = errors.New("ring buffer: nil storage")
	// ErrAlreadyPaired is returned when the reader/writer views have already been taken.
	ErrAlreadyPaired = errors.New("ring buffer: reader and writer already paired")
)

// RingBuffer is a lock-free single producer/single consumer ring buffer
// over a fixed-length backing storage.
//
// Exactly one goroutine may call the writer side methods (Enqueue, Write)
// and exactly one goroutine may call the reader side methods (Dequeue, Read).
type RingBuffer[T any] struct {
	cursors

	storage Storage[T]

	paired atomic.Bool
}

// New returns a ring buffer backed by a freshly allocated slice of the given capacity.
func New[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return NewWithStorage[T](make(SliceStorage[T], capacity))
}

// NewWithStorage returns a ring buffer that uses the given storage.
// The capacity of the buffer is the length of the storage.
func NewWithStorage[T any](storage Storage[T]) (*RingBuffer[T], error) {
	if storage == nil {
		return nil, ErrNilStorage
	}

	capacity := storage.Len()
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &RingBuffer[T]{
		cursors: cursors{capacity: uint64(capacity)},
		storage: storage,
	}, nil
}

// NewPair returns the reader and writer views of a new ring buffer
// with the given capacity.
func NewPair[T any](capacity int) (*Reader[T], *Writer[T], error) {
	rb, err := New[T](capacity)
	if err != nil {
		return nil, nil, err
	}

	return rb.Pair()
}

// Pair returns the reader and the writer views of the buffer.
// It can be called only once.
func (rb *RingBuffer[T]) Pair() (*Reader[T], *Writer[T], error) {
	if !rb.paired.CompareAndSwap(false, true) {
		return nil, nil, ErrAlreadyPaired
	}

	return &Reader[T]{rb: rb}, &Writer[T]{rb: rb}, nil
}

// Enqueue inserts the value at the write position.
// It returns false, leaving the buffer untouched, if the buffer is full.
func (rb *RingBuffer[T]) Enqueue(value T) bool {
	if rb.isFull() {
		return false
	}

	rb.storage.Set(rb.phy(rb.writePos.Load()), value)
	rb.incrWriter()

	return true
}

// Dequeue removes and returns the value at the read position.
// It returns false if the buffer is empty.
func (rb *RingBuffer[T]) Dequeue() (T, bool) {
	if rb.isEmpty() {
		var zero T
		return zero, false
	}

	value := rb.storage.Get(rb.phy(rb.readPos.Load()))
	rb.incrReader()

	return value, true
}

// Write enqueues as many leading elements of src as fit in the free space
// and returns how many were written.
func (rb *RingBuffer[T]) Write(src []T) int {
	n := min(rb.rem(), uint64(len(src)))

	for i := range n {
		// The reader can only free slots, so the enqueue cannot fail
		rb.Enqueue(src[i])
	}

	return int(n)
}

// Read dequeues up to len(dst) elements into dst in FIFO order
// and returns how many were read.
func (rb *RingBuffer[T]) Read(dst []T) int {
	n := min(rb.len(), uint64(len(dst)))

	for i := range n {
		value, ok := rb.Dequeue()
		if !ok {
			panic("ring buffer: buffer is empty")
		}
		dst[i] = value
	}

	return int(n)
}

// Cap returns the capacity of the buffer.
func (rb *RingBuffer[T]) Cap() int {
	return int(rb.capacity)
}

// Len returns the number of queued elements.
func (rb *RingBuffer[T]) Len() int {
	return int(rb.len())
}

// Rem returns the number of free slots.
func (rb *RingBuffer[T]) Rem() int {
	return int(rb.rem())
}

// IsEmpty states whether the buffer is empty.
func (rb *RingBuffer[T]) IsEmpty() bool {
	return rb.isEmpty()
}

// IsFull states whether the buffer is full.
func (rb *RingBuffer[T]) IsFull() bool {
	return rb.isFull()
}
