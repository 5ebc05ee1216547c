package bridge

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FerroO2000/ringbuf/internal/rb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingSource returns an error at every read until it is exhausted.
type failingSource struct {
	failures int
	data     *strings.Reader
}

func (fs *failingSource) Open(_ context.Context) error { return nil }

func (fs *failingSource) Read(_ context.Context, p []byte) (int, error) {
	if fs.failures > 0 {
		fs.failures--
		return 0, errors.New("transient failure")
	}
	return fs.data.Read(p)
}

func (fs *failingSource) Close() error { return nil }

// failingSink rejects every other chunk.
type failingSink struct {
	calls int
	got   []byte
}

func (fs *failingSink) Open(_ context.Context) error { return nil }

func (fs *failingSink) Write(_ context.Context, p []byte) error {
	fs.calls++
	if fs.calls%2 == 0 {
		return errors.New("rejected")
	}
	fs.got = append(fs.got, p...)
	return nil
}

func (fs *failingSink) Close() error { return nil }

func Test_ProducerStage(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig(8, 4)

	r, w, err := rb.NewPair[byte](cfg.RingCapacity)
	require.NoError(t, err)

	done := &atomic.Bool{}
	source := &failingSource{failures: 3, data: strings.NewReader("abcdef")}

	ps := NewProducerStage(source, w, done, cfg)
	require.NoError(t, ps.Init(t.Context()))

	ps.Run(t.Context())
	ps.Close()

	assert.True(done.Load())
	assert.Equal(int64(6), ps.readBytes.Load())
	assert.Equal(int64(6), ps.writtenBytes.Load())
	assert.Equal(int64(3), ps.sourceErrors.Load())
	assert.Zero(ps.shortWrites.Load())

	out := make([]byte, 8)
	n := r.Read(out)
	assert.Equal("abcdef", string(out[:n]))
}

func Test_ProducerStage_FullRing(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig(4, 8)

	_, w, err := rb.NewPair[byte](cfg.RingCapacity)
	require.NoError(t, err)

	ps := NewProducerStage(NewReaderSource(strings.NewReader("abcdefgh")), w, &atomic.Bool{}, cfg)
	require.NoError(t, ps.Init(t.Context()))

	ctx, cancelCtx := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancelCtx()

	// Nobody drains the ring, the stage must give up when the context is done
	ps.Run(ctx)
	ps.Close()

	assert.Equal(int64(4), ps.writtenBytes.Load())
	assert.Positive(ps.shortWrites.Load())
	assert.True(w.IsFull())
}

func Test_ConsumerStage(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig(16, 3)

	r, w, err := rb.NewPair[byte](cfg.RingCapacity)
	require.NoError(t, err)

	assert.Equal(12, w.Write([]byte("aaabbbcccddd")))

	done := &atomic.Bool{}
	done.Store(true)

	sink := &failingSink{}
	cs := NewConsumerStage(sink, r, done, cfg)
	require.NoError(t, cs.Init(t.Context()))

	cs.Run(t.Context())
	cs.Close()

	assert.Equal("aaaccc", string(sink.got))
	assert.Equal(int64(6), cs.deliveredBytes.Load())
	assert.Equal(int64(2), cs.deliveredChunks.Load())
	assert.Equal(int64(2), cs.sinkErrors.Load())
	assert.True(r.IsEmpty())
}

func Test_Stage_CloseBeforeRun(t *testing.T) {
	cfg := newTestConfig(16, 4)

	r, _, err := rb.NewPair[byte](cfg.RingCapacity)
	require.NoError(t, err)

	cs := NewConsumerStage(&failingSink{}, r, &atomic.Bool{}, cfg)
	require.NoError(t, cs.Init(t.Context()))

	cs.Close()

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		cs.Run(t.Context())
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("closed stage kept running")
	}
}

func Test_Stage_InitErrors(t *testing.T) {
	assert := assert.New(t)

	cfg := newTestConfig(16, 4)

	r, w, err := rb.NewPair[byte](cfg.RingCapacity)
	require.NoError(t, err)

	ps := NewProducerStage(nil, w, &atomic.Bool{}, cfg)
	assert.ErrorIs(ps.Init(t.Context()), ErrNoSource)

	cs := NewConsumerStage(nil, r, &atomic.Bool{}, cfg)
	assert.ErrorIs(cs.Init(t.Context()), ErrNoSink)
}
