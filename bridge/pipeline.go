// Package bridge moves bytes from a source to a sink through a ring buffer.
//
// The producer stage owns the writer view of the ring and the consumer stage
// owns the reader view. Since the ring never blocks, both stages wait
// for space or data by idling with an exponential backoff.
package bridge

import (
	"context"
	"sync"
	"time"
)

// Stage defines the interface for a generic stage.
type Stage interface {
	// Init initializes the stage.
	Init(ctx context.Context) error
	// Run runs the stage until the context is done or the stage has nothing left to do.
	Run(ctx context.Context)
	// Close closes (forever) the stage.
	Close()
}

// Pipeline runs a chain of stages, each one feeding the next.
type Pipeline struct {
	stages []Stage

	// drainTimeout bounds how long a stage may keep running
	// once the stages before it have stopped
	drainTimeout time.Duration

	mux       sync.Mutex
	isRunning bool
	done      []chan struct{}

	wg *sync.WaitGroup
}

// NewPipeline returns a new pipeline.
func NewPipeline(drainTimeout time.Duration) *Pipeline {
	return &Pipeline{
		stages: []Stage{},

		drainTimeout: drainTimeout,

		wg: &sync.WaitGroup{},
	}
}

// AddStage appends a stage to the chain.
// Stages added after Run are ignored.
func (p *Pipeline) AddStage(stage Stage) {
	p.mux.Lock()
	defer p.mux.Unlock()

	if p.isRunning {
		return
	}

	p.stages = append(p.stages, stage)
}

// Init initializes all the stages, in order.
func (p *Pipeline) Init(ctx context.Context) error {
	for _, stage := range p.stages {
		if err := stage.Init(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Run runs every stage in its own goroutine.
func (p *Pipeline) Run(ctx context.Context) {
	p.mux.Lock()
	defer p.mux.Unlock()

	if p.isRunning {
		return
	}
	p.isRunning = true

	p.done = make([]chan struct{}, len(p.stages))
	p.wg.Add(len(p.stages))

	for idx, stage := range p.stages {
		done := make(chan struct{})
		p.done[idx] = done

		go func() {
			defer p.wg.Done()
			defer close(done)

			stage.Run(ctx)
		}()
	}
}

// Wait blocks until every stage has returned from Run.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// waitStage waits up to the drain timeout for the stage at idx to return from Run.
// It returns true if the stage has returned or has never been run.
func (p *Pipeline) waitStage(idx int) bool {
	p.mux.Lock()
	var done chan struct{}
	if p.isRunning {
		done = p.done[idx]
	}
	p.mux.Unlock()

	if done == nil {
		return true
	}

	timer := time.NewTimer(p.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Close closes the stages from the first to the last.
// Before being closed, every stage after the first is given up to
// the drain timeout to return by itself, so that the data already
// handed over by the stopped stages is not lost.
// It blocks until all the stages have returned from Run.
func (p *Pipeline) Close() {
	for idx, stage := range p.stages {
		if idx > 0 {
			p.waitStage(idx)
		}

		stage.Close()

		// The next stage drains only once this one has stopped feeding it
		p.waitStage(idx)
	}

	p.wg.Wait()
}
