//go:build !(linux || darwin || freebsd)

package main

import (
	"errors"

	"github.com/FerroO2000/ringbuf"
)

func openRingStorage(_ string, _ int) (ringbuf.Storage[byte], func() error, error) {
	return nil, nil, errors.New("file backed ring is not supported on this platform")
}
