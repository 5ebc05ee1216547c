package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	mux    sync.Mutex
	events []string
}

func (el *eventLog) add(event string) {
	el.mux.Lock()
	defer el.mux.Unlock()
	el.events = append(el.events, event)
}

func (el *eventLog) all() []string {
	el.mux.Lock()
	defer el.mux.Unlock()
	return append([]string{}, el.events...)
}

// upstreamStage runs until it is closed.
type upstreamStage struct {
	log     *eventLog
	stopped *atomic.Bool
	closed  chan struct{}
}

func (us *upstreamStage) Init(_ context.Context) error { return nil }

func (us *upstreamStage) Run(ctx context.Context) {
	defer us.stopped.Store(true)

	select {
	case <-ctx.Done():
	case <-us.closed:
	}
	us.log.add("upstream stopped")
}

func (us *upstreamStage) Close() {
	us.log.add("upstream closed")
	close(us.closed)
}

// downstreamStage keeps working for drainTime once upstream has stopped,
// or forever if drainTime is negative, until it is closed.
type downstreamStage struct {
	log       *eventLog
	upstream  *atomic.Bool
	drainTime time.Duration
	closed    chan struct{}
}

func (ds *downstreamStage) Init(_ context.Context) error { return nil }

func (ds *downstreamStage) Run(ctx context.Context) {
	for !ds.upstream.Load() {
		select {
		case <-ds.closed:
			ds.log.add("downstream interrupted")
			return
		case <-time.After(time.Millisecond):
		}
	}

	if ds.drainTime < 0 {
		<-ds.closed
		ds.log.add("downstream interrupted")
		return
	}

	time.Sleep(ds.drainTime)
	ds.log.add("downstream drained")
}

func (ds *downstreamStage) Close() {
	ds.log.add("downstream closed")
	close(ds.closed)
}

func newTestPipeline(drainTimeout, drainTime time.Duration) (*Pipeline, *eventLog) {
	log := &eventLog{}
	stopped := &atomic.Bool{}

	p := NewPipeline(drainTimeout)
	p.AddStage(&upstreamStage{log: log, stopped: stopped, closed: make(chan struct{})})
	p.AddStage(&downstreamStage{log: log, upstream: stopped, drainTime: drainTime, closed: make(chan struct{})})

	return p, log
}

func Test_Pipeline_CloseDrains(t *testing.T) {
	assert := assert.New(t)

	p, log := newTestPipeline(time.Second, 20*time.Millisecond)
	require.NoError(t, p.Init(t.Context()))

	p.Run(t.Context())
	p.Close()

	assert.Equal([]string{
		"upstream closed",
		"upstream stopped",
		"downstream drained",
		"downstream closed",
	}, log.all())
}

func Test_Pipeline_CloseDrainTimeout(t *testing.T) {
	assert := assert.New(t)

	p, log := newTestPipeline(30*time.Millisecond, -1)
	require.NoError(t, p.Init(t.Context()))

	p.Run(t.Context())

	start := time.Now()
	p.Close()

	assert.GreaterOrEqual(time.Since(start), 30*time.Millisecond)
	assert.Equal([]string{
		"upstream closed",
		"upstream stopped",
		"downstream closed",
		"downstream interrupted",
	}, log.all())
}

func Test_Pipeline_CloseBeforeRun(t *testing.T) {
	assert := assert.New(t)

	p, log := newTestPipeline(time.Second, 0)

	start := time.Now()
	p.Close()

	assert.Less(time.Since(start), time.Second)
	assert.Equal([]string{"upstream closed", "downstream closed"}, log.all())

	// Stages added once running are ignored
	p.Run(t.Context())
	p.AddStage(&upstreamStage{log: log, stopped: &atomic.Bool{}, closed: make(chan struct{})})
	assert.Len(p.stages, 2)
	p.Wait()
}
