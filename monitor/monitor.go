// Package monitor exports the occupancy of ring buffers and the outcome
// of the operations performed through their views as metrics.
package monitor

import (
	"errors"
	"sync"

	"github.com/FerroO2000/ringbuf/internal"
)

// ErrDuplicateName is returned when a buffer is registered twice with the same name.
var ErrDuplicateName = errors.New("monitor: buffer name already registered")

// Stats is implemented by ring buffers and by their views.
type Stats interface {
	// Len returns the number of queued elements.
	Len() int
	// Cap returns the capacity.
	Cap() int
}

// Snapshot is the state of a buffer at a point in time.
type Snapshot struct {
	Name     string
	Occupied int
	Capacity int
	Free     int
}

// Monitor tracks a set of named ring buffers.
type Monitor struct {
	tel *internal.Telemetry

	mux     sync.Mutex
	buffers map[string]Stats
	names   []string
}

// New returns a new monitor. The name is used to scope its metrics.
func New(name string) *Monitor {
	return &Monitor{
		tel: internal.NewTelemetry("monitor", name),

		buffers: make(map[string]Stats),
	}
}

// Register adds a buffer to the monitor and exports the
// <name>_occupied, <name>_capacity and <name>_free gauges.
func (m *Monitor) Register(name string, stats Stats) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	if _, ok := m.buffers[name]; ok {
		return ErrDuplicateName
	}

	m.buffers[name] = stats
	m.names = append(m.names, name)

	m.tel.NewGauge(name+"_occupied", func() int64 { return int64(stats.Len()) })
	m.tel.NewGauge(name+"_capacity", func() int64 { return int64(stats.Cap()) })
	m.tel.NewGauge(name+"_free", func() int64 { return int64(stats.Cap() - stats.Len()) })

	m.tel.LogDebug("buffer registered", "buffer", name, "capacity", stats.Cap())

	return nil
}

// Snapshot returns the state of every registered buffer,
// in registration order.
func (m *Monitor) Snapshot() []Snapshot {
	m.mux.Lock()
	defer m.mux.Unlock()

	snaps := make([]Snapshot, 0, len(m.names))
	for _, name := range m.names {
		stats := m.buffers[name]

		occupied := stats.Len()
		capacity := stats.Cap()

		snaps = append(snaps, Snapshot{
			Name:     name,
			Occupied: occupied,
			Capacity: capacity,
			Free:     capacity - occupied,
		})
	}

	return snaps
}
