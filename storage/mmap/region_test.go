//go:build linux || darwin || freebsd

package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/FerroO2000/ringbuf/internal/rb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewAnonymous(t *testing.T) {
	assert := assert.New(t)

	_, err := NewAnonymous(0)
	assert.ErrorIs(err, ErrInvalidSize)

	region, err := NewAnonymous(16)
	require.NoError(t, err)
	defer region.Close()

	buf, err := rb.NewWithStorage[byte](region)
	require.NoError(t, err)
	assert.Equal(16, buf.Cap())

	r, w, err := buf.Pair()
	require.NoError(t, err)

	assert.Equal(12, w.Write([]byte("Hello, World")))

	dst := make([]byte, 64)
	n := r.Read(dst)
	assert.Equal("Hello, World", string(dst[:n]))

	assert.NoError(region.Sync())
	assert.NoError(region.Close())
	assert.NoError(region.Close())
}

func Test_OpenFile(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "ring.bin")

	region, err := OpenFile(path, 8)
	require.NoError(t, err)

	buf, err := rb.NewWithStorage[byte](region)
	require.NoError(t, err)

	assert.True(buf.Enqueue('a'))
	assert.True(buf.Enqueue('b'))

	require.NoError(t, region.Sync())
	require.NoError(t, region.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(data, 8)
	assert.Equal([]byte("ab"), data[:2])
}
