package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"os"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
)

// Default values for the TCP source configuration.
const (
	DefaultTCPSourceConfigIPAddr       = "0.0.0.0"
	DefaultTCPSourceConfigPort         = 20_001
	DefaultTCPSourceConfigPollInterval = 100 * time.Millisecond
)

// TCPSourceConfig contains the configuration of the TCP source.
type TCPSourceConfig struct {
	// IPAddr is the IP address to listen on.
	//
	// Default: 0.0.0.0
	IPAddr string

	// Port is the port to listen on. Zero picks a free port.
	//
	// Default: 20_001
	Port uint16

	// PollInterval is how often a pending accept or read checks for cancellation.
	//
	// Default: 100ms
	PollInterval time.Duration
}

// NewTCPSourceConfig returns the default configuration for the TCP source.
func NewTCPSourceConfig() *TCPSourceConfig {
	return &TCPSourceConfig{
		IPAddr:       DefaultTCPSourceConfigIPAddr,
		Port:         DefaultTCPSourceConfigPort,
		PollInterval: DefaultTCPSourceConfigPollInterval,
	}
}

// Validate checks the configuration.
func (c *TCPSourceConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotEmpty(ac, "IPAddr", &c.IPAddr, DefaultTCPSourceConfigIPAddr)
	config.CheckPositiveDuration(ac, "PollInterval", &c.PollInterval, DefaultTCPSourceConfigPollInterval)
}

var _ Source = (*TCPSource)(nil)

// TCPSource accepts one connection at a time and reads its stream.
// When a client disconnects the next one is accepted.
type TCPSource struct {
	cfg *TCPSourceConfig

	listener *net.TCPListener
	// conn is only touched by Read
	conn *net.TCPConn

	closed atomic.Bool
}

// NewTCPSource returns a new TCP source.
func NewTCPSource(cfg *TCPSourceConfig) *TCPSource {
	return &TCPSource{
		cfg: cfg,
	}
}

func (ts *TCPSource) getConfig() config.Config {
	return ts.cfg
}

// Open starts listening.
func (ts *TCPSource) Open(_ context.Context) error {
	parsedAddr, err := netip.ParseAddr(ts.cfg.IPAddr)
	if err != nil {
		return err
	}

	addr := net.TCPAddrFromAddrPort(netip.AddrPortFrom(parsedAddr, ts.cfg.Port))
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return err
	}

	ts.listener = listener

	return nil
}

// Addr returns the local address the source is listening on.
func (ts *TCPSource) Addr() net.Addr {
	return ts.listener.Addr()
}

func (ts *TCPSource) accept(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := ts.listener.SetDeadline(time.Now().Add(ts.cfg.PollInterval)); err != nil {
			return err
		}

		conn, err := ts.listener.AcceptTCP()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return err
		}

		ts.conn = conn
		return nil
	}
}

// Read reads from the current connection, accepting a new one if needed.
func (ts *TCPSource) Read(ctx context.Context, p []byte) (int, error) {
	for {
		if ts.closed.Load() {
			if ts.conn != nil {
				ts.conn.Close()
				ts.conn = nil
			}
			return 0, net.ErrClosed
		}

		if ts.conn == nil {
			if err := ts.accept(ctx); err != nil {
				return 0, err
			}
		}

		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := ts.conn.SetReadDeadline(time.Now().Add(ts.cfg.PollInterval)); err != nil {
			return 0, err
		}

		n, err := ts.conn.Read(p)
		if n > 0 {
			return n, nil
		}

		switch {
		case err == nil, errors.Is(err, os.ErrDeadlineExceeded):
			continue

		case errors.Is(err, io.EOF):
			// The client is gone, wait for the next one
			ts.conn.Close()
			ts.conn = nil
			continue

		default:
			return 0, err
		}
	}
}

// Close closes the listener. The current connection is closed
// by the pending Read, within a poll interval.
func (ts *TCPSource) Close() error {
	if !ts.closed.CompareAndSwap(false, true) {
		return nil
	}

	if ts.listener == nil {
		return nil
	}
	return ts.listener.Close()
}
