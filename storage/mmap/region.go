//go:build linux || darwin || freebsd

// Package mmap provides a memory-mapped byte storage for ring buffers.
package mmap

import (
	"errors"
	"fmt"
	"os"

	"github.com/FerroO2000/ringbuf/internal/rb"
	"golang.org/x/sys/unix"
)

// ErrInvalidSize is returned when the requested region size is not greater than zero.
var ErrInvalidSize = errors.New("mmap: size must be greater than zero")

var _ rb.Storage[byte] = (*Region)(nil)

// Region is a shared memory mapping used as ring buffer storage.
type Region struct {
	data []byte
	file *os.File
}

// NewAnonymous maps an anonymous shared region of the given size.
func NewAnonymous(size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: anonymous mapping: %w", err)
	}

	return &Region{data: data}, nil
}

// OpenFile maps the file at path, creating it and growing it to size bytes if needed.
// Writes to the region are visible to other processes mapping the same file.
func OpenFile(path string, size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	if info.Size() < int64(size) {
		if err := file.Truncate(int64(size)); err != nil {
			file.Close()
			return nil, fmt.Errorf("mmap: grow %s: %w", path, err)
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap: map %s: %w", path, err)
	}

	return &Region{data: data, file: file}, nil
}

// Len returns the size of the region.
func (r *Region) Len() int {
	return len(r.data)
}

// Get returns the byte at index i.
func (r *Region) Get(i int) byte {
	return r.data[i]
}

// Set stores v at index i.
func (r *Region) Set(i int, v byte) {
	r.data[i] = v
}

// Sync flushes the region to the backing file, if any.
func (r *Region) Sync() error {
	if r.file == nil {
		return nil
	}

	return unix.Msync(r.data, unix.MS_SYNC)
}

// Close unmaps the region and closes the backing file.
// The ring buffer using the region must not be used afterwards.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}

	err := unix.Munmap(r.data)
	r.data = nil

	if r.file != nil {
		err = errors.Join(err, r.file.Close())
		r.file = nil
	}

	return err
}
