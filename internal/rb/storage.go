package rb

// Storage is the fixed-length backing store of a ring buffer.
// Indices passed to Get and Set are always in [0, Len()).
type Storage[T any] interface {
	// Len returns the number of slots. It must not change over time.
	Len() int
	// Get returns the value stored at index i.
	Get(i int) T
	// Set stores v at index i.
	Set(i int, v T)
}

var _ Storage[byte] = SliceStorage[byte](nil)

// SliceStorage adapts a slice to the Storage interface.
// Wrapping a fixed-size array (arr[:]) does not allocate.
type SliceStorage[T any] []T

// Len returns the length of the slice.
func (s SliceStorage[T]) Len() int {
	return len(s)
}

// Get returns the element at index i.
func (s SliceStorage[T]) Get(i int) T {
	return s[i]
}

// Set sets the element at index i.
func (s SliceStorage[T]) Set(i int, v T) {
	s[i] = v
}
