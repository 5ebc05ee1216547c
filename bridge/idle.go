package bridge

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// idler waits with an exponentially growing delay while a stage
// has nothing to do.
type idler struct {
	backoff *backoff.ExponentialBackOff
}

func newIdler(initial, maxWait time.Duration) *idler {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxWait
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()

	return &idler{
		backoff: b,
	}
}

// next returns the next wait interval.
func (i *idler) next() time.Duration {
	return i.backoff.NextBackOff()
}

// wait sleeps for the next interval.
// It returns false if the context is done first.
func (i *idler) wait(ctx context.Context) bool {
	timer := time.NewTimer(i.next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// reset brings the wait back to the initial interval.
func (i *idler) reset() {
	i.backoff.Reset()
}
