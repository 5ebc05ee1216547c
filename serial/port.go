// Package serial models an interrupt-driven UART built on two ring buffers.
//
// The interrupt side (ReceiveISR, TransmitISR) and the task side
// (Read, Write and friends) each hold only the ring views they need:
// the receive interrupt owns the RX writer, the task owns the RX reader
// and the TX writer, the transmit interrupt owns the TX reader.
package serial

import (
	"sync/atomic"

	"github.com/FerroO2000/ringbuf/internal"
	"github.com/FerroO2000/ringbuf/internal/config"
	"github.com/FerroO2000/ringbuf/internal/rb"
	"github.com/FerroO2000/ringbuf/monitor"
)

//////////////
//  CONFIG  //
//////////////

// Default values for the port configuration.
const (
	DefaultPortConfigName       = "uart0"
	DefaultPortConfigRxCapacity = 64
	DefaultPortConfigTxCapacity = 64
)

// PortConfig contains the configuration of a serial port.
type PortConfig struct {
	// Name identifies the port in logs and metrics.
	//
	// Default: uart0
	Name string

	// RxCapacity is the number of bytes the receive ring can hold.
	//
	// Default: 64
	RxCapacity int

	// TxCapacity is the number of bytes the transmit ring can hold.
	//
	// Default: 64
	TxCapacity int
}

// NewPortConfig returns the default configuration for a serial port.
func NewPortConfig() *PortConfig {
	return &PortConfig{
		Name:       DefaultPortConfigName,
		RxCapacity: DefaultPortConfigRxCapacity,
		TxCapacity: DefaultPortConfigTxCapacity,
	}
}

// Validate checks the configuration.
func (c *PortConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotEmpty(ac, "Name", &c.Name, DefaultPortConfigName)
	config.CheckPositive(ac, "RxCapacity", &c.RxCapacity, DefaultPortConfigRxCapacity)
	config.CheckPositive(ac, "TxCapacity", &c.TxCapacity, DefaultPortConfigTxCapacity)
}

////////////
//  PORT  //
////////////

// Port is a serial port whose receive and transmit paths are decoupled by ring buffers.
type Port struct {
	tel *internal.Telemetry

	rxBuf *rb.RingBuffer[byte]
	txBuf *rb.RingBuffer[byte]

	// Interrupt side
	rxWriter *rb.Writer[byte]
	txReader *rb.Reader[byte]

	// Task side
	rxReader *rb.Reader[byte]
	txWriter *rb.Writer[byte]

	// Metrics
	received    atomic.Int64
	transmitted atomic.Int64
	overruns    atomic.Int64
}

// NewPort returns a port whose rings are allocated from the configuration.
func NewPort(cfg *PortConfig) (*Port, error) {
	if cfg == nil {
		cfg = NewPortConfig()
	}

	tel := internal.NewTelemetry("serial", cfg.Name)
	config.NewValidator(tel).Validate(cfg)

	return newPort(tel, make(rb.SliceStorage[byte], cfg.RxCapacity), make(rb.SliceStorage[byte], cfg.TxCapacity))
}

// NewPortWithStorage returns a port whose rings use the given storages,
// for example statically allocated arrays.
func NewPortWithStorage(name string, rx, tx rb.Storage[byte]) (*Port, error) {
	return newPort(internal.NewTelemetry("serial", name), rx, tx)
}

func newPort(tel *internal.Telemetry, rx, tx rb.Storage[byte]) (*Port, error) {
	rxBuf, err := rb.NewWithStorage(rx)
	if err != nil {
		return nil, err
	}

	txBuf, err := rb.NewWithStorage(tx)
	if err != nil {
		return nil, err
	}

	rxReader, rxWriter, err := rxBuf.Pair()
	if err != nil {
		return nil, err
	}

	txReader, txWriter, err := txBuf.Pair()
	if err != nil {
		return nil, err
	}

	p := &Port{
		tel: tel,

		rxBuf: rxBuf,
		txBuf: txBuf,

		rxWriter: rxWriter,
		txReader: txReader,

		rxReader: rxReader,
		txWriter: txWriter,
	}

	p.initMetrics()

	tel.LogInfo("port ready", "rx_capacity", rxBuf.Cap(), "tx_capacity", txBuf.Cap())

	return p, nil
}

func (p *Port) initMetrics() {
	p.tel.NewCounter("received_bytes", p.received.Load)
	p.tel.NewCounter("transmitted_bytes", p.transmitted.Load)
	p.tel.NewCounter("overruns", p.overruns.Load)
}

// ReceiveISR stores a byte coming from the line.
// When the receive ring is full the byte is lost and an overrun is counted.
func (p *Port) ReceiveISR(b byte) bool {
	if !p.rxWriter.Enqueue(b) {
		p.overruns.Add(1)
		return false
	}

	p.received.Add(1)
	return true
}

// TransmitISR returns the next byte to be put on the line, if any.
func (p *Port) TransmitISR() (byte, bool) {
	b, ok := p.txReader.Dequeue()
	if ok {
		p.transmitted.Add(1)
	}
	return b, ok
}

// Read moves up to len(dst) received bytes into dst and returns how many were read.
func (p *Port) Read(dst []byte) int {
	return p.rxReader.Read(dst)
}

// Get returns the oldest received byte, if any.
func (p *Port) Get() (byte, bool) {
	return p.rxReader.Dequeue()
}

// Write queues as many bytes of src as fit for transmission and returns how many were queued.
func (p *Port) Write(src []byte) int {
	return p.txWriter.Write(src)
}

// Put queues one byte for transmission. It returns false if the transmit ring is full.
func (p *Port) Put(b byte) bool {
	return p.txWriter.Enqueue(b)
}

// Buffered returns the number of received bytes waiting to be read.
func (p *Port) Buffered() int {
	return p.rxReader.Len()
}

// Available returns the free space of the transmit ring.
func (p *Port) Available() int {
	return p.txWriter.Rem()
}

// Overruns returns the number of received bytes lost because the receive ring was full.
func (p *Port) Overruns() int64 {
	return p.overruns.Load()
}

// Stats returns the receive and transmit rings, to be registered into a monitor.
func (p *Port) Stats() (rx, tx monitor.Stats) {
	return p.rxBuf, p.txBuf
}
