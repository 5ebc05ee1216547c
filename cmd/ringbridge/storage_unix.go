//go:build linux || darwin || freebsd

package main

import (
	"github.com/FerroO2000/ringbuf"
	"github.com/FerroO2000/ringbuf/storage/mmap"
)

// openRingStorage maps the given file as the backing storage of the ring.
func openRingStorage(path string, size int) (ringbuf.Storage[byte], func() error, error) {
	region, err := mmap.OpenFile(path, size)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() error {
		if err := region.Sync(); err != nil {
			region.Close()
			return err
		}
		return region.Close()
	}

	return region, closeFn, nil
}
