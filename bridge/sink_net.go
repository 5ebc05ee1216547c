package bridge

import (
	"context"
	"net"
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
	"github.com/cenkalti/backoff/v5"
)

//////////////////
//  UDP  SINK  //
//////////////////

// Default values for the UDP sink configuration.
const (
	DefaultUDPSinkConfigAddr = "127.0.0.1:20000"
)

// UDPSinkConfig contains the configuration of the UDP sink.
type UDPSinkConfig struct {
	// Addr is the destination address (host:port).
	//
	// Default: 127.0.0.1:20000
	Addr string
}

// NewUDPSinkConfig returns the default configuration for the UDP sink.
func NewUDPSinkConfig() *UDPSinkConfig {
	return &UDPSinkConfig{
		Addr: DefaultUDPSinkConfigAddr,
	}
}

// Validate checks the configuration.
func (c *UDPSinkConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotEmpty(ac, "Addr", &c.Addr, DefaultUDPSinkConfigAddr)
}

var _ Sink = (*UDPSink)(nil)

// UDPSink sends every chunk as a datagram.
type UDPSink struct {
	cfg *UDPSinkConfig

	conn net.Conn
}

// NewUDPSink returns a new UDP sink.
func NewUDPSink(cfg *UDPSinkConfig) *UDPSink {
	return &UDPSink{
		cfg: cfg,
	}
}

func (us *UDPSink) getConfig() config.Config {
	return us.cfg
}

// Open dials the destination.
func (us *UDPSink) Open(ctx context.Context) error {
	dialer := &net.Dialer{}

	conn, err := dialer.DialContext(ctx, "udp", us.cfg.Addr)
	if err != nil {
		return err
	}

	us.conn = conn

	return nil
}

// Write sends the chunk.
func (us *UDPSink) Write(_ context.Context, p []byte) error {
	_, err := us.conn.Write(p)
	return err
}

// Close closes the socket.
func (us *UDPSink) Close() error {
	if us.conn == nil {
		return nil
	}
	return us.conn.Close()
}

//////////////////
//  TCP  SINK  //
//////////////////

// Default values for the TCP sink configuration.
const (
	DefaultTCPSinkConfigAddr         = "127.0.0.1:20001"
	DefaultTCPSinkConfigDialTimeout  = 5 * time.Second
	DefaultTCPSinkConfigWriteTimeout = 10 * time.Second
	DefaultTCPSinkConfigMaxRetries   = 5
)

// TCPSinkConfig contains the configuration of the TCP sink.
type TCPSinkConfig struct {
	// Addr is the destination address (host:port).
	//
	// Default: 127.0.0.1:20001
	Addr string

	// DialTimeout is the timeout of a single connection attempt.
	//
	// Default: 5s
	DialTimeout time.Duration

	// WriteTimeout is the timeout for writing a chunk.
	//
	// Default: 10s
	WriteTimeout time.Duration

	// MaxRetries is the number of connection attempts before giving up.
	//
	// Default: 5
	MaxRetries uint
}

// NewTCPSinkConfig returns the default configuration for the TCP sink.
func NewTCPSinkConfig() *TCPSinkConfig {
	return &TCPSinkConfig{
		Addr:         DefaultTCPSinkConfigAddr,
		DialTimeout:  DefaultTCPSinkConfigDialTimeout,
		WriteTimeout: DefaultTCPSinkConfigWriteTimeout,
		MaxRetries:   DefaultTCPSinkConfigMaxRetries,
	}
}

// Validate checks the configuration.
func (c *TCPSinkConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotEmpty(ac, "Addr", &c.Addr, DefaultTCPSinkConfigAddr)
	config.CheckPositiveDuration(ac, "DialTimeout", &c.DialTimeout, DefaultTCPSinkConfigDialTimeout)
	config.CheckPositiveDuration(ac, "WriteTimeout", &c.WriteTimeout, DefaultTCPSinkConfigWriteTimeout)
	config.CheckNotZero(ac, "MaxRetries", &c.MaxRetries, DefaultTCPSinkConfigMaxRetries)
}

var _ Sink = (*TCPSink)(nil)

// TCPSink writes the chunks on a TCP stream.
// A broken connection is dialed again on the next write.
type TCPSink struct {
	cfg *TCPSinkConfig

	conn net.Conn
}

// NewTCPSink returns a new TCP sink.
func NewTCPSink(cfg *TCPSinkConfig) *TCPSink {
	return &TCPSink{
		cfg: cfg,
	}
}

func (ts *TCPSink) getConfig() config.Config {
	return ts.cfg
}

func (ts *TCPSink) dial(ctx context.Context) error {
	dialer := &net.Dialer{Timeout: ts.cfg.DialTimeout}

	conn, err := backoff.Retry(ctx,
		func() (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", ts.cfg.Addr)
		},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(ts.cfg.MaxRetries),
	)
	if err != nil {
		return err
	}

	ts.conn = conn

	return nil
}

// Open dials the destination, retrying with an exponential backoff.
func (ts *TCPSink) Open(ctx context.Context) error {
	return ts.dial(ctx)
}

// Write writes the chunk, dialing again if the previous write broke the connection.
func (ts *TCPSink) Write(ctx context.Context, p []byte) error {
	if ts.conn == nil {
		if err := ts.dial(ctx); err != nil {
			return err
		}
	}

	if err := ts.conn.SetWriteDeadline(time.Now().Add(ts.cfg.WriteTimeout)); err != nil {
		return err
	}

	if _, err := ts.conn.Write(p); err != nil {
		ts.conn.Close()
		ts.conn = nil
		return err
	}

	return nil
}

// Close closes the connection.
func (ts *TCPSink) Close() error {
	if ts.conn == nil {
		return nil
	}

	err := ts.conn.Close()
	ts.conn = nil

	return err
}
