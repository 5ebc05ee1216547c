package rb

import (
	"errors"
	"sync"
)

// ErrSlotInitialized is returned when a slot is initialized more than once.
var ErrSlotInitialized = errors.New("ring buffer: slot already initialized")

// Slot holds a process-lifetime ring buffer.
// The zero value is ready to be declared as a package level variable
// and initialized once at startup.
type Slot[T any] struct {
	mux sync.Mutex
	rb  *RingBuffer[T]
}

// Init builds the ring buffer over the given storage and returns its views.
// Only the first successful call initializes the slot.
func (s *Slot[T]) Init(storage Storage[T]) (*Reader[T], *Writer[T], error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.rb != nil {
		return nil, nil, ErrSlotInitialized
	}

	rb, err := NewWithStorage(storage)
	if err != nil {
		return nil, nil, err
	}
	s.rb = rb

	return rb.Pair()
}

// Buffer returns the ring buffer of the slot, or nil if the slot
// has not been initialized yet.
func (s *Slot[T]) Buffer() *RingBuffer[T] {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.rb
}
