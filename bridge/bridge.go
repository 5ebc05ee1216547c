package bridge

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/FerroO2000/ringbuf"
	"github.com/FerroO2000/ringbuf/internal"
	"github.com/FerroO2000/ringbuf/internal/config"
	"github.com/FerroO2000/ringbuf/monitor"
)

var (
	// ErrNoSource is returned when a bridge is created without a source.
	ErrNoSource = errors.New("bridge: source is nil")
	// ErrNoSink is returned when a bridge is created without a sink.
	ErrNoSink = errors.New("bridge: sink is nil")
)

// Bridge connects a source to a sink through a byte ring buffer.
// The producer stage owns the writer view of the ring,
// the consumer stage owns the reader view.
type Bridge struct {
	tel *internal.Telemetry

	cfg *Config

	ring   *ringbuf.RingBuffer[byte]
	writer *monitor.InstrumentedWriter[byte]
	reader *monitor.InstrumentedReader[byte]

	monitor *monitor.Monitor

	producer *ProducerStage
	consumer *ConsumerStage
	pipeline *Pipeline
}

// New returns a bridge whose ring is allocated with the configured capacity.
func New(source Source, sink Sink, cfg *Config) (*Bridge, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	tel := internal.NewTelemetry("bridge", cfg.Name)
	config.NewValidator(tel).Validate(cfg)

	ring, err := ringbuf.New[byte](cfg.RingCapacity)
	if err != nil {
		return nil, err
	}

	return newBridge(tel, source, sink, ring, cfg)
}

// NewWithStorage returns a bridge whose ring is placed over the given storage,
// e.g. a memory mapped region. The RingCapacity field of the configuration
// is ignored in favor of the length of the storage.
func NewWithStorage(source Source, sink Sink, storage ringbuf.Storage[byte], cfg *Config) (*Bridge, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	tel := internal.NewTelemetry("bridge", cfg.Name)
	config.NewValidator(tel).Validate(cfg)

	ring, err := ringbuf.NewWithStorage(storage)
	if err != nil {
		return nil, err
	}
	cfg.RingCapacity = ring.Cap()

	return newBridge(tel, source, sink, ring, cfg)
}

func newBridge(tel *internal.Telemetry, source Source, sink Sink, ring *ringbuf.RingBuffer[byte], cfg *Config) (*Bridge, error) {
	if source == nil {
		return nil, ErrNoSource
	}
	if sink == nil {
		return nil, ErrNoSink
	}

	reader, writer, err := ring.Pair()
	if err != nil {
		return nil, err
	}

	mon := monitor.New(cfg.Name)
	if err := mon.Register("ring", ring); err != nil {
		return nil, err
	}

	iw := monitor.InstrumentWriter(mon, "ring", writer)
	ir := monitor.InstrumentReader(mon, "ring", reader)

	producerDone := &atomic.Bool{}

	producer := NewProducerStage(source, iw, producerDone, cfg)
	consumer := NewConsumerStage(sink, ir, producerDone, cfg)

	pipeline := NewPipeline(cfg.DrainTimeout)
	pipeline.AddStage(producer)
	pipeline.AddStage(consumer)

	return &Bridge{
		tel: tel,

		cfg: cfg,

		ring:   ring,
		writer: iw,
		reader: ir,

		monitor: mon,

		producer: producer,
		consumer: consumer,
		pipeline: pipeline,
	}, nil
}

// Init opens the source and the sink.
func (b *Bridge) Init(ctx context.Context) error {
	b.tel.LogInfo("initializing", "ring_capacity", b.cfg.RingCapacity, "chunk_size", b.cfg.ChunkSize)
	return b.pipeline.Init(ctx)
}

// Run moves the data until the source is exhausted and the ring is drained,
// or until the context is done. It blocks until both stages have returned.
func (b *Bridge) Run(ctx context.Context) {
	b.tel.LogInfo("running")

	b.pipeline.Run(ctx)
	b.pipeline.Wait()

	ws := b.writer.Stats()
	rs := b.reader.Stats()
	b.tel.LogInfo("stopped",
		"accepted", ws.Accepted, "short_writes", ws.ShortWrites,
		"delivered", rs.Delivered, "pending", b.ring.Len())
}

// Close closes the source, lets the consumer deliver what is left in the ring
// for up to the drain timeout, then closes the sink.
// It blocks until both stages have returned.
func (b *Bridge) Close() {
	b.tel.LogInfo("closing")
	b.pipeline.Close()
}

// Monitor returns the monitor tracking the ring of the bridge.
func (b *Bridge) Monitor() *monitor.Monitor {
	return b.monitor
}

// WriterStats returns the counters of the writer view of the ring.
func (b *Bridge) WriterStats() monitor.WriterStats {
	return b.writer.Stats()
}

// ReaderStats returns the counters of the reader view of the ring.
func (b *Bridge) ReaderStats() monitor.ReaderStats {
	return b.reader.Stats()
}
