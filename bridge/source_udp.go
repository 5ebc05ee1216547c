package bridge

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
)

// Default values for the UDP source configuration.
const (
	DefaultUDPSourceConfigIPAddr       = "0.0.0.0"
	DefaultUDPSourceConfigPort         = 20_000
	DefaultUDPSourceConfigPollInterval = 100 * time.Millisecond
)

// UDPSourceConfig contains the configuration of the UDP source.
type UDPSourceConfig struct {
	// IPAddr is the IP address to listen on.
	//
	// Default: 0.0.0.0
	IPAddr string

	// Port is the port to listen on. Zero picks a free port.
	//
	// Default: 20_000
	Port uint16

	// PollInterval is how often a pending read checks for cancellation.
	//
	// Default: 100ms
	PollInterval time.Duration
}

// NewUDPSourceConfig returns the default configuration for the UDP source.
func NewUDPSourceConfig() *UDPSourceConfig {
	return &UDPSourceConfig{
		IPAddr:       DefaultUDPSourceConfigIPAddr,
		Port:         DefaultUDPSourceConfigPort,
		PollInterval: DefaultUDPSourceConfigPollInterval,
	}
}

// Validate checks the configuration.
func (c *UDPSourceConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotEmpty(ac, "IPAddr", &c.IPAddr, DefaultUDPSourceConfigIPAddr)
	config.CheckPositiveDuration(ac, "PollInterval", &c.PollInterval, DefaultUDPSourceConfigPollInterval)
}

var _ Source = (*UDPSource)(nil)

// UDPSource reads the payload of the datagrams received on a UDP socket.
// A datagram larger than the read buffer is truncated.
type UDPSource struct {
	cfg *UDPSourceConfig

	conn *net.UDPConn
}

// NewUDPSource returns a new UDP source.
func NewUDPSource(cfg *UDPSourceConfig) *UDPSource {
	return &UDPSource{
		cfg: cfg,
	}
}

func (us *UDPSource) getConfig() config.Config {
	return us.cfg
}

// Open starts listening.
func (us *UDPSource) Open(_ context.Context) error {
	parsedAddr, err := netip.ParseAddr(us.cfg.IPAddr)
	if err != nil {
		return err
	}

	addr := net.UDPAddrFromAddrPort(netip.AddrPortFrom(parsedAddr, us.cfg.Port))
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}

	us.conn = conn

	return nil
}

// Addr returns the local address the source is listening on.
func (us *UDPSource) Addr() net.Addr {
	return us.conn.LocalAddr()
}

// Read waits for the next datagram.
func (us *UDPSource) Read(ctx context.Context, p []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		if err := us.conn.SetReadDeadline(time.Now().Add(us.cfg.PollInterval)); err != nil {
			return 0, err
		}

		n, err := us.conn.Read(p)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return n, err
		}

		return n, nil
	}
}

// Close closes the socket.
func (us *UDPSource) Close() error {
	if us.conn == nil {
		return nil
	}
	return us.conn.Close()
}
