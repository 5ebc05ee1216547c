package rb

// Reader is the consumer side view of a ring buffer.
// It must be used by a single goroutine at a time.
type Reader[T any] struct {
	rb *RingBuffer[T]
}

// Dequeue removes and returns the oldest element, if any.
func (r *Reader[T]) Dequeue() (T, bool) {
	return r.rb.Dequeue()
}

// Read moves up to len(dst) elements into dst and returns how many were read.
func (r *Reader[T]) Read(dst []T) int {
	return r.rb.Read(dst)
}

// Len returns the number of elements ready to be read.
func (r *Reader[T]) Len() int {
	return r.rb.Len()
}

// Cap returns the capacity of the underlying buffer.
func (r *Reader[T]) Cap() int {
	return r.rb.Cap()
}

// IsEmpty states whether there is nothing to read.
func (r *Reader[T]) IsEmpty() bool {
	return r.rb.IsEmpty()
}

// Writer is the producer side view of a ring buffer.
// It must be used by a single goroutine at a time.
type Writer[T any] struct {
	rb *RingBuffer[T]
}

// Enqueue appends one element. It returns false if the buffer is full.
func (w *Writer[T]) Enqueue(value T) bool {
	return w.rb.Enqueue(value)
}

// Write appends as many leading elements of src as fit and returns how many were written.
func (w *Writer[T]) Write(src []T) int {
	return w.rb.Write(src)
}

// Rem returns the number of free slots.
func (w *Writer[T]) Rem() int {
	return w.rb.Rem()
}

// Cap returns the capacity of the underlying buffer.
func (w *Writer[T]) Cap() int {
	return w.rb.Cap()
}

// IsFull states whether there is no room left.
func (w *Writer[T]) IsFull() bool {
	return w.rb.IsFull()
}
