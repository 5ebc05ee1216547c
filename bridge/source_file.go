package bridge

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
	"github.com/fsnotify/fsnotify"
)

// Default values for the file source configuration.
const (
	DefaultFileSourceConfigFromStart    = false
	DefaultFileSourceConfigPollInterval = time.Second
)

// FileSourceConfig contains the configuration of the file source.
type FileSourceConfig struct {
	// Path is the path of the file to follow.
	Path string

	// FromStart states whether to read the current content of the file.
	// If false, only the bytes appended after Open are read.
	//
	// Default: false
	FromStart bool

	// PollInterval is the interval at which the file is checked for new data
	// even without a notification.
	//
	// Default: 1s
	PollInterval time.Duration
}

// NewFileSourceConfig returns the default configuration for the file source.
func NewFileSourceConfig(path string) *FileSourceConfig {
	return &FileSourceConfig{
		Path:         path,
		FromStart:    DefaultFileSourceConfigFromStart,
		PollInterval: DefaultFileSourceConfigPollInterval,
	}
}

// Validate checks the configuration.
func (c *FileSourceConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckPositiveDuration(ac, "PollInterval", &c.PollInterval, DefaultFileSourceConfigPollInterval)
}

var _ Source = (*FileSource)(nil)

// FileSource follows a file like `tail -f`.
// Truncated or re-created files are read again from the beginning.
type FileSource struct {
	cfg *FileSourceConfig

	path    string
	watcher *fsnotify.Watcher

	// mux guards the file, which can be closed while a Read is waiting
	mux    sync.Mutex
	file   *os.File
	offset int64
}

// NewFileSource returns a new file source.
func NewFileSource(cfg *FileSourceConfig) *FileSource {
	return &FileSource{
		cfg: cfg,
	}
}

func (fs *FileSource) getConfig() config.Config {
	return fs.cfg
}

// Open opens the file and starts watching its directory.
func (fs *FileSource) Open(_ context.Context) error {
	path, err := filepath.Abs(fs.cfg.Path)
	if err != nil {
		return err
	}
	fs.path = path

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	fs.file = file

	if !fs.cfg.FromStart {
		offset, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			file.Close()
			return err
		}
		fs.offset = offset
	}

	// The directory is watched, so that the file can be followed
	// across removal and re-creation
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		file.Close()
		return err
	}
	fs.watcher = watcher

	return nil
}

// Read reads the next bytes appended to the file.
func (fs *FileSource) Read(ctx context.Context, p []byte) (int, error) {
	for {
		n, err := fs.readFile(p)
		if n > 0 || err != nil {
			return n, err
		}

		event, err := fs.waitChange(ctx)
		if err != nil {
			return 0, err
		}

		if event != nil {
			if err := fs.handleEvent(*event); err != nil {
				return 0, err
			}
		}
	}
}

func (fs *FileSource) readFile(p []byte) (int, error) {
	fs.mux.Lock()
	defer fs.mux.Unlock()

	if fs.file == nil {
		return 0, nil
	}

	n, err := fs.file.Read(p)
	fs.offset += int64(n)

	if n > 0 {
		return n, nil
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	return 0, fs.checkTruncated()
}

// checkTruncated rewinds the file if it is shorter than the current offset.
func (fs *FileSource) checkTruncated() error {
	info, err := fs.file.Stat()
	if err != nil {
		return err
	}

	if info.Size() >= fs.offset {
		return nil
	}

	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	fs.offset = 0

	return nil
}

// waitChange waits for a notification about the followed file
// or for the poll interval to expire.
func (fs *FileSource) waitChange(ctx context.Context) (*fsnotify.Event, error) {
	timer := time.NewTimer(fs.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timer.C:
			return nil, nil

		case err, ok := <-fs.watcher.Errors:
			if !ok {
				return nil, os.ErrClosed
			}
			return nil, err

		case event, ok := <-fs.watcher.Events:
			if !ok {
				return nil, os.ErrClosed
			}

			if event.Name != fs.path {
				continue
			}

			return &event, nil
		}
	}
}

func (fs *FileSource) handleEvent(event fsnotify.Event) error {
	fs.mux.Lock()
	defer fs.mux.Unlock()

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if fs.file != nil {
			fs.file.Close()
			fs.file = nil
		}

	case event.Has(fsnotify.Create):
		if fs.file != nil {
			fs.file.Close()
		}

		file, err := os.Open(fs.path)
		if err != nil {
			fs.file = nil
			return err
		}

		fs.file = file
		fs.offset = 0
	}

	return nil
}

// Close stops watching and closes the file.
func (fs *FileSource) Close() error {
	var errs []error

	if fs.watcher != nil {
		errs = append(errs, fs.watcher.Close())
	}

	fs.mux.Lock()
	if fs.file != nil {
		errs = append(errs, fs.file.Close())
		fs.file = nil
	}
	fs.mux.Unlock()

	return errors.Join(errs...)
}
