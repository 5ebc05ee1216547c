package bridge

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
)

// ProducerStage reads from a source and pushes the bytes into the ring.
// When the ring is full it idles until the consumer frees some space.
type ProducerStage struct {
	*stageBase

	cfg *Config

	source Source
	writer ringWriter

	// done is set once the source is exhausted
	done *atomic.Bool

	// Metrics
	readBytes    atomic.Int64
	writtenBytes atomic.Int64
	shortWrites  atomic.Int64
	sourceErrors atomic.Int64
}

// NewProducerStage returns a new producer stage.
// The done flag is set when the stage returns from Run.
func NewProducerStage(source Source, writer ringWriter, done *atomic.Bool, cfg *Config) *ProducerStage {
	return &ProducerStage{
		stageBase: newStageBase("producer", cfg.Name),

		cfg: cfg,

		source: source,
		writer: writer,

		done: done,
	}
}

// Init validates the configurations and opens the source.
func (ps *ProducerStage) Init(ctx context.Context) error {
	ps.stageBase.init(append(configsOf(ps.source), ps.cfg)...)

	if ps.source == nil {
		return ErrNoSource
	}

	if err := ps.source.Open(ctx); err != nil {
		ps.tel.LogError("failed to open source", err)
		return err
	}

	ps.initMetrics()

	return nil
}

func (ps *ProducerStage) initMetrics() {
	ps.tel.NewCounter("read_bytes", ps.readBytes.Load)
	ps.tel.NewCounter("written_bytes", ps.writtenBytes.Load)
	ps.tel.NewCounter("short_writes", ps.shortWrites.Load)
	ps.tel.NewCounter("source_errors", ps.sourceErrors.Load)
}

// Run reads from the source until it is exhausted, closed or the context is done.
func (ps *ProducerStage) Run(ctx context.Context) {
	ctx = ps.stageBase.run(ctx)
	defer ps.stageBase.stopped()
	defer ps.done.Store(true)

	idle := newIdler(ps.cfg.IdleBackoff, ps.cfg.MaxIdleBackoff)
	buf := make([]byte, ps.cfg.ChunkSize)

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := ps.source.Read(ctx, buf)
		if n > 0 {
			ps.readBytes.Add(int64(n))

			if !ps.push(ctx, idle, buf[:n]) {
				return
			}
		}

		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			ps.tel.LogInfo("source exhausted, stopping")
			return

		case ctx.Err() != nil, isClosedErr(err):
			return
		}

		ps.sourceErrors.Add(1)
		ps.tel.LogError("failed to read from source", err)

		if !idle.wait(ctx) {
			return
		}
	}
}

// push writes the chunk into the ring, waiting for space when needed.
// It returns false if the context is done before the whole chunk is written.
func (ps *ProducerStage) push(ctx context.Context, idle *idler, chunk []byte) bool {
	_, span := ps.tel.NewTrace(ctx, "push chunk")
	defer span.End()

	span.SetAttributes(attribute.Int("chunk_size", len(chunk)))

	rounds := 0
	for len(chunk) > 0 {
		n := ps.writer.Write(chunk)
		ps.writtenBytes.Add(int64(n))
		chunk = chunk[n:]

		if len(chunk) == 0 {
			break
		}

		// Short write, the ring is full
		ps.shortWrites.Add(1)
		rounds++

		if !idle.wait(ctx) {
			span.SetAttributes(attribute.Int("dropped_bytes", len(chunk)))
			return false
		}
	}

	idle.reset()
	span.SetAttributes(attribute.Int("idle_rounds", rounds))

	return true
}

// Close closes the source, which unblocks a pending read, and stops the stage.
func (ps *ProducerStage) Close() {
	if ps.source != nil {
		if err := ps.source.Close(); err != nil {
			ps.tel.LogError("failed to close source", err)
		}
	}

	ps.stageBase.stop(false)
}
