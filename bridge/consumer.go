package bridge

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// ConsumerStage drains the ring and delivers the bytes to a sink.
// When the ring is empty it idles until the producer pushes more data.
type ConsumerStage struct {
	*stageBase

	cfg *Config

	sink   Sink
	reader ringReader

	// producerDone is set by the producer once the source is exhausted
	producerDone *atomic.Bool

	// Metrics
	deliveredBytes  atomic.Int64
	deliveredChunks atomic.Int64
	sinkErrors      atomic.Int64
	chunkSize       metric.Int64Histogram
}

// NewConsumerStage returns a new consumer stage.
// The stage stops once producerDone is set and the ring is empty.
func NewConsumerStage(sink Sink, reader ringReader, producerDone *atomic.Bool, cfg *Config) *ConsumerStage {
	return &ConsumerStage{
		stageBase: newStageBase("consumer", cfg.Name),

		cfg: cfg,

		sink:   sink,
		reader: reader,

		producerDone: producerDone,
	}
}

// Init validates the configurations and opens the sink.
func (cs *ConsumerStage) Init(ctx context.Context) error {
	cs.stageBase.init(append(configsOf(cs.sink), cs.cfg)...)

	if cs.sink == nil {
		return ErrNoSink
	}

	if err := cs.sink.Open(ctx); err != nil {
		cs.tel.LogError("failed to open sink", err)
		return err
	}

	cs.initMetrics()

	return nil
}

func (cs *ConsumerStage) initMetrics() {
	cs.tel.NewCounter("delivered_bytes", cs.deliveredBytes.Load)
	cs.tel.NewCounter("delivered_chunks", cs.deliveredChunks.Load)
	cs.tel.NewCounter("sink_errors", cs.sinkErrors.Load)
	cs.chunkSize = cs.tel.NewHistogram("chunk_size")
}

// Run drains the ring until the producer is done and the ring is empty,
// or until the context is done.
func (cs *ConsumerStage) Run(ctx context.Context) {
	ctx = cs.stageBase.run(ctx)
	defer cs.stageBase.stopped()

	idle := newIdler(cs.cfg.IdleBackoff, cs.cfg.MaxIdleBackoff)
	buf := make([]byte, cs.cfg.ChunkSize)

	for {
		n := cs.reader.Read(buf)
		if n > 0 {
			idle.reset()
			cs.deliver(ctx, buf[:n])
			continue
		}

		// The done flag must be checked before the emptiness,
		// so that the last pushed bytes are not missed
		if cs.producerDone.Load() && cs.reader.IsEmpty() {
			cs.tel.LogInfo("producer is done and ring is drained, stopping")
			return
		}

		if !idle.wait(ctx) {
			return
		}
	}
}

func (cs *ConsumerStage) deliver(ctx context.Context, chunk []byte) {
	ctx, span := cs.tel.NewTrace(ctx, "deliver chunk")
	defer span.End()

	span.SetAttributes(attribute.Int("chunk_size", len(chunk)))

	if err := cs.sink.Write(ctx, chunk); err != nil {
		cs.sinkErrors.Add(1)
		span.SetStatus(codes.Error, err.Error())

		if ctx.Err() == nil {
			cs.tel.LogError("failed to write into sink", err)
		}
		return
	}

	cs.deliveredBytes.Add(int64(len(chunk)))
	cs.deliveredChunks.Add(1)

	if cs.chunkSize != nil {
		cs.chunkSize.Record(ctx, int64(len(chunk)))
	}
}

// Close stops the stage, waits for the pending delivery and closes the sink.
func (cs *ConsumerStage) Close() {
	cs.stageBase.stop(true)

	if cs.sink != nil {
		if err := cs.sink.Close(); err != nil {
			cs.tel.LogError("failed to close sink", err)
		}
	}
}
