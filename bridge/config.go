package bridge

import (
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
)

// Default values for the bridge configuration.
const (
	DefaultConfigName           = "bridge"
	DefaultConfigRingCapacity   = 4096
	DefaultConfigChunkSize      = 512
	DefaultConfigIdleBackoff    = 100 * time.Microsecond
	DefaultConfigMaxIdleBackoff = 50 * time.Millisecond
	DefaultConfigDrainTimeout   = 5 * time.Second
)

// Config contains the configuration of a bridge.
type Config struct {
	// Name identifies the bridge in logs and metrics.
	//
	// Default: bridge
	Name string

	// RingCapacity is the number of bytes the ring buffer can hold.
	//
	// Default: 4096
	RingCapacity int

	// ChunkSize is the size of the chunks read from the source
	// and delivered to the sink.
	//
	// Default: 512
	ChunkSize int

	// IdleBackoff is the first wait when the ring is full (producer)
	// or empty (consumer). The wait doubles at each idle round.
	//
	// Default: 100µs
	IdleBackoff time.Duration

	// MaxIdleBackoff is the upper bound of the idle wait.
	//
	// Default: 50ms
	MaxIdleBackoff time.Duration

	// DrainTimeout is how long Close lets the consumer deliver the bytes
	// left in the ring after the producer has stopped.
	//
	// Default: 5s
	DrainTimeout time.Duration
}

// NewConfig returns the default configuration for a bridge.
func NewConfig() *Config {
	return &Config{
		Name:           DefaultConfigName,
		RingCapacity:   DefaultConfigRingCapacity,
		ChunkSize:      DefaultConfigChunkSize,
		IdleBackoff:    DefaultConfigIdleBackoff,
		MaxIdleBackoff: DefaultConfigMaxIdleBackoff,
		DrainTimeout:   DefaultConfigDrainTimeout,
	}
}

// Validate checks the configuration.
func (c *Config) Validate(ac *config.AnomalyCollector) {
	config.CheckNotEmpty(ac, "Name", &c.Name, DefaultConfigName)

	config.CheckPositive(ac, "RingCapacity", &c.RingCapacity, DefaultConfigRingCapacity)
	config.CheckPositive(ac, "ChunkSize", &c.ChunkSize, DefaultConfigChunkSize)

	config.CheckPositiveDuration(ac, "IdleBackoff", &c.IdleBackoff, DefaultConfigIdleBackoff)
	config.CheckPositiveDuration(ac, "MaxIdleBackoff", &c.MaxIdleBackoff, DefaultConfigMaxIdleBackoff)
	config.CheckNotLowerThan(ac, "MaxIdleBackoff", "IdleBackoff", &c.MaxIdleBackoff, c.IdleBackoff)

	config.CheckPositiveDuration(ac, "DrainTimeout", &c.DrainTimeout, DefaultConfigDrainTimeout)
}
