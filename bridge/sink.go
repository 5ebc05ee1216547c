package bridge

import (
	"context"
	"io"
)

// Sink receives the chunks drained from the ring.
type Sink interface {
	// Open prepares the sink.
	Open(ctx context.Context) error
	// Write delivers a chunk. The sink must not retain p after returning.
	Write(ctx context.Context, p []byte) error
	// Close flushes and releases the sink.
	Close() error
}

var _ Sink = (*WriterSink)(nil)

// WriterSink writes into an io.Writer, e.g. the standard output.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink returns a new writer sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{
		w: w,
	}
}

// Open does nothing.
func (ws *WriterSink) Open(_ context.Context) error {
	return nil
}

// Write writes the whole chunk.
func (ws *WriterSink) Write(_ context.Context, p []byte) error {
	_, err := ws.w.Write(p)
	return err
}

// Close closes the underlying writer, if it is an io.Closer.
func (ws *WriterSink) Close() error {
	if closer, ok := ws.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
