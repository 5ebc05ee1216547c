package bridge

import (
	"context"
	"io"

	"github.com/FerroO2000/ringbuf/internal/config"
)

// Source produces the bytes pushed into the ring.
type Source interface {
	// Open prepares the source.
	Open(ctx context.Context) error
	// Read reads up to len(p) bytes. It blocks until some data is available,
	// the context is done or the source is exhausted (io.EOF).
	Read(ctx context.Context, p []byte) (int, error)
	// Close releases the source. It unblocks a pending Read.
	Close() error
}

// configurable is implemented by the sources and sinks that carry a configuration.
type configurable interface {
	getConfig() config.Config
}

///////////////////////
//  READER  SOURCE  //
///////////////////////

var _ Source = (*ReaderSource)(nil)

// ReaderSource reads from an io.Reader, e.g. the standard input.
// The context cannot interrupt a pending read: closing the source does
// if the reader is also an io.Closer.
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource returns a new reader source.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{
		r: r,
	}
}

// Open does nothing.
func (rs *ReaderSource) Open(_ context.Context) error {
	return nil
}

// Read reads from the underlying reader.
func (rs *ReaderSource) Read(_ context.Context, p []byte) (int, error) {
	return rs.r.Read(p)
}

// Close closes the underlying reader, if it is an io.Closer.
func (rs *ReaderSource) Close() error {
	if closer, ok := rs.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
