package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"

	"github.com/FerroO2000/ringbuf/internal"
	"github.com/FerroO2000/ringbuf/internal/config"
)

// ringWriter is the producer side of the ring used by a producer stage.
type ringWriter interface {
	Write(src []byte) int
	Rem() int
}

// ringReader is the consumer side of the ring used by a consumer stage.
type ringReader interface {
	Read(dst []byte) int
	IsEmpty() bool
}

type stageBase struct {
	tel *internal.Telemetry

	mux    sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

func newStageBase(kind, name string) *stageBase {
	return &stageBase{
		tel: internal.NewTelemetry(kind, name),
	}
}

func (s *stageBase) init(cfgs ...config.Config) {
	s.tel.LogInfo("initializing")

	validator := config.NewValidator(s.tel)
	for _, cfg := range cfgs {
		validator.Validate(cfg)
	}
}

// run returns the context the stage runs with.
// The context is already done if the stage has been closed.
func (s *stageBase) run(ctx context.Context) context.Context {
	s.tel.LogInfo("running")

	s.mux.Lock()
	defer s.mux.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	if s.closed {
		s.cancel()
	}

	return ctx
}

// stopped marks the end of the run.
func (s *stageBase) stopped() {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.cancel()
	close(s.done)
}

// stop cancels the run. If wait is true it blocks until the run has returned.
func (s *stageBase) stop(wait bool) {
	s.tel.LogInfo("closing")

	s.mux.Lock()
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mux.Unlock()

	if cancel == nil {
		return
	}

	cancel()

	if wait {
		<-done
	}
}

// configsOf returns the configuration of v, if it has one.
func configsOf(v any) []config.Config {
	if c, ok := v.(configurable); ok {
		return []config.Config{c.getConfig()}
	}
	return nil
}

// isClosedErr states whether err is returned by a closed source or sink.
func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
