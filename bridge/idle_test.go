package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_idler(t *testing.T) {
	assert := assert.New(t)

	idle := newIdler(time.Millisecond, 8*time.Millisecond)

	assert.Equal(time.Millisecond, idle.next())
	assert.Equal(2*time.Millisecond, idle.next())
	assert.Equal(4*time.Millisecond, idle.next())
	assert.Equal(8*time.Millisecond, idle.next())
	assert.Equal(8*time.Millisecond, idle.next())

	idle.reset()
	assert.Equal(time.Millisecond, idle.next())

	assert.True(idle.wait(t.Context()))

	ctx, cancelCtx := context.WithCancel(t.Context())
	cancelCtx()
	assert.False(idle.wait(ctx))
}
