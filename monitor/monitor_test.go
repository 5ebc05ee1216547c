package monitor

import (
	"testing"

	"github.com/FerroO2000/ringbuf/internal/rb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Monitor(t *testing.T) {
	assert := assert.New(t)

	mon := New("test")

	rx, err := rb.New[byte](8)
	require.NoError(t, err)
	tx, err := rb.New[byte](4)
	require.NoError(t, err)

	assert.NoError(mon.Register("rx", rx))
	assert.NoError(mon.Register("tx", tx))
	assert.ErrorIs(mon.Register("rx", rx), ErrDuplicateName)

	rx.Write([]byte("abc"))
	tx.Write([]byte("abcdef"))

	assert.Equal([]Snapshot{
		{Name: "rx", Occupied: 3, Capacity: 8, Free: 5},
		{Name: "tx", Occupied: 4, Capacity: 4, Free: 0},
	}, mon.Snapshot())
}

func Test_InstrumentedViews(t *testing.T) {
	assert := assert.New(t)

	mon := New("views")

	r, w, err := rb.NewPair[int](4)
	require.NoError(t, err)

	iw := InstrumentWriter(mon, "ring", w)
	ir := InstrumentReader(mon, "ring", r)

	assert.True(iw.Enqueue(1))
	assert.Equal(2, iw.Write([]int{2, 3}))
	assert.Equal(1, iw.Write([]int{4, 5, 6}))
	assert.False(iw.Enqueue(7))
	assert.True(iw.IsFull())

	assert.Equal(WriterStats{Accepted: 4, Rejected: 3, ShortWrites: 1}, iw.Stats())

	val, ok := ir.Dequeue()
	assert.True(ok)
	assert.Equal(1, val)

	out := make([]int, 2)
	assert.Equal(2, ir.Read(out))
	assert.Equal([]int{2, 3}, out)

	assert.Equal(1, ir.Read(out))
	assert.Equal(4, out[0])

	_, ok = ir.Dequeue()
	assert.False(ok)
	assert.True(ir.IsEmpty())

	assert.Equal(ReaderStats{Delivered: 4, EmptyDequeues: 1, ShortReads: 1}, ir.Stats())
}
