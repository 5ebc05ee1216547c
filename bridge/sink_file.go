package bridge

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/FerroO2000/ringbuf/internal/config"
)

// Default values for the file sink configuration.
const (
	DefaultFileSinkConfigPerm       fs.FileMode = 0o644
	DefaultFileSinkConfigBufferSize             = 32 * 1024
	DefaultFileSinkConfigSyncWrites             = false
)

// FileSinkConfig contains the configuration of the file sink.
type FileSinkConfig struct {
	// Path is the path of the output file. The bytes are appended to it.
	Path string

	// Perm is the permission used when the file is created.
	//
	// Default: 0644
	Perm fs.FileMode

	// BufferSize is the size of the write buffer.
	//
	// Default: 32KiB
	BufferSize int

	// SyncWrites states whether every chunk is flushed to disk.
	//
	// Default: false
	SyncWrites bool
}

// NewFileSinkConfig returns the default configuration for the file sink.
func NewFileSinkConfig(path string) *FileSinkConfig {
	return &FileSinkConfig{
		Path:       path,
		Perm:       DefaultFileSinkConfigPerm,
		BufferSize: DefaultFileSinkConfigBufferSize,
		SyncWrites: DefaultFileSinkConfigSyncWrites,
	}
}

// Validate checks the configuration.
func (c *FileSinkConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotZero(ac, "Perm", &c.Perm, DefaultFileSinkConfigPerm)
	config.CheckPositive(ac, "BufferSize", &c.BufferSize, DefaultFileSinkConfigBufferSize)
}

var _ Sink = (*FileSink)(nil)

// FileSink appends the chunks to a file.
type FileSink struct {
	cfg *FileSinkConfig

	file   *os.File
	writer *bufio.Writer
}

// NewFileSink returns a new file sink.
func NewFileSink(cfg *FileSinkConfig) *FileSink {
	return &FileSink{
		cfg: cfg,
	}
}

func (fs *FileSink) getConfig() config.Config {
	return fs.cfg
}

// Open creates the parent directories and opens the file in append mode.
func (fs *FileSink) Open(_ context.Context) error {
	if err := os.MkdirAll(filepath.Dir(fs.cfg.Path), 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(fs.cfg.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, fs.cfg.Perm)
	if err != nil {
		return err
	}

	fs.file = file
	fs.writer = bufio.NewWriterSize(file, fs.cfg.BufferSize)

	return nil
}

// Write appends the chunk.
func (fs *FileSink) Write(_ context.Context, p []byte) error {
	if _, err := fs.writer.Write(p); err != nil {
		return err
	}

	if !fs.cfg.SyncWrites {
		return nil
	}

	if err := fs.writer.Flush(); err != nil {
		return err
	}
	return fs.file.Sync()
}

// Close flushes the pending bytes and closes the file.
func (fs *FileSink) Close() error {
	if fs.file == nil {
		return nil
	}

	err := errors.Join(fs.writer.Flush(), fs.file.Close())
	fs.file = nil

	return err
}
