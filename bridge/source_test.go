package bridge

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopbackUDPSource(t *testing.T) *UDPSource {
	t.Helper()

	cfg := NewUDPSourceConfig()
	cfg.IPAddr = "127.0.0.1"
	cfg.Port = 0
	cfg.PollInterval = 10 * time.Millisecond

	source := NewUDPSource(cfg)
	require.NoError(t, source.Open(t.Context()))
	t.Cleanup(func() { source.Close() })

	return source
}

func Test_UDPSource(t *testing.T) {
	assert := assert.New(t)

	source := newLoopbackUDPSource(t)

	conn, err := net.Dial("udp", source.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("datagram"))
	require.NoError(t, err)

	ctx, cancelCtx := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancelCtx()

	buf := make([]byte, 64)
	n, err := source.Read(ctx, buf)
	assert.NoError(err)
	assert.Equal("datagram", string(buf[:n]))
}

func Test_UDPSource_Cancel(t *testing.T) {
	assert := assert.New(t)

	source := newLoopbackUDPSource(t)

	ctx, cancelCtx := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancelCtx()

	n, err := source.Read(ctx, make([]byte, 8))
	assert.Zero(n)
	assert.ErrorIs(err, context.DeadlineExceeded)
}

func Test_TCPSource(t *testing.T) {
	assert := assert.New(t)

	cfg := NewTCPSourceConfig()
	cfg.IPAddr = "127.0.0.1"
	cfg.Port = 0
	cfg.PollInterval = 10 * time.Millisecond

	source := NewTCPSource(cfg)
	require.NoError(t, source.Open(t.Context()))

	ctx, cancelCtx := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancelCtx()

	readAll := func(expected int) string {
		got := []byte{}
		buf := make([]byte, 4)
		for len(got) < expected {
			n, err := source.Read(ctx, buf)
			require.NoError(t, err)
			got = append(got, buf[:n]...)
		}
		return string(got)
	}

	// Clients are served one after the other
	for _, msg := range []string{"first client", "second client"} {
		conn, err := net.Dial("tcp", source.Addr().String())
		require.NoError(t, err)

		_, err = conn.Write([]byte(msg))
		require.NoError(t, err)

		assert.Equal(msg, readAll(len(msg)))
		conn.Close()
	}

	assert.NoError(source.Close())

	_, err := source.Read(ctx, make([]byte, 4))
	assert.ErrorIs(err, net.ErrClosed)
}

func Test_FileSource(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "input.log")
	require.NoError(t, os.WriteFile(path, []byte("old content\n"), 0o644))

	cfg := NewFileSourceConfig(path)
	cfg.PollInterval = 10 * time.Millisecond

	source := NewFileSource(cfg)
	require.NoError(t, source.Open(t.Context()))
	defer source.Close()

	ctx, cancelCtx := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancelCtx()

	go func() {
		time.Sleep(20 * time.Millisecond)

		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			return
		}
		defer f.Close()

		f.WriteString("new line\n")
	}()

	// The content written before Open is skipped
	buf := make([]byte, 64)
	n, err := source.Read(ctx, buf)
	assert.NoError(err)
	assert.Equal("new line\n", string(buf[:n]))
}

func Test_FileSource_FromStart(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "input.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	cfg := NewFileSourceConfig(path)
	cfg.FromStart = true

	source := NewFileSource(cfg)
	require.NoError(t, source.Open(t.Context()))

	buf := make([]byte, 4)
	got := []byte{}
	for len(got) < 10 {
		n, err := source.Read(t.Context(), buf)
		require.NoError(t, err)
		got = append(got, buf[:n]...)
	}
	assert.Equal("0123456789", string(got))

	assert.NoError(source.Close())

	ctx, cancelCtx := context.WithTimeout(t.Context(), time.Second)
	defer cancelCtx()

	_, err := source.Read(ctx, buf)
	assert.Error(err)
}

func Test_FileSource_Missing(t *testing.T) {
	source := NewFileSource(NewFileSourceConfig(filepath.Join(t.TempDir(), "missing")))
	assert.ErrorIs(t, source.Open(t.Context()), os.ErrNotExist)
}

func Test_ReaderSource(t *testing.T) {
	assert := assert.New(t)

	pr, pw := io.Pipe()
	source := NewReaderSource(pr)

	go func() {
		pw.Write([]byte("piped"))
		pw.Close()
	}()

	buf := make([]byte, 16)
	n, err := source.Read(t.Context(), buf)
	assert.NoError(err)
	assert.Equal("piped", string(buf[:n]))

	_, err = source.Read(t.Context(), buf)
	assert.ErrorIs(err, io.EOF)

	assert.NoError(source.Close())
}

func Test_SourceConfigs(t *testing.T) {
	assert := assert.New(t)

	udpCfg := &UDPSourceConfig{}
	ac := config.NewAnomalyCollector()
	udpCfg.Validate(ac)
	assert.Equal(2, ac.Len())
	assert.Equal(DefaultUDPSourceConfigIPAddr, udpCfg.IPAddr)
	assert.Equal(DefaultUDPSourceConfigPollInterval, udpCfg.PollInterval)

	fileCfg := &FileSourceConfig{Path: "x", PollInterval: -time.Second}
	ac = config.NewAnomalyCollector()
	fileCfg.Validate(ac)
	assert.Equal(1, ac.Len())
	assert.Equal(DefaultFileSourceConfigPollInterval, fileCfg.PollInterval)
}
