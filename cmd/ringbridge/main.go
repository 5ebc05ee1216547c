// Command ringbridge moves bytes from a source to a sink through
// a fixed-capacity ring buffer.
//
// Example, forwarding the datagrams received on port 20000 to a Kafka topic:
//
//	ringbridge -source udp -source-addr 0.0.0.0:20000 -sink kafka -kafka-topic raw
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FerroO2000/ringbuf/bridge"
	"github.com/FerroO2000/ringbuf/internal"
)

const (
	serviceName  = "ringbridge"
	closeTimeout = 5 * time.Second
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "ringbridge:", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	ctx, cancelCtx := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelCtx()

	internal.SetLogLevel(opts.logLevel)
	tel := internal.NewTelemetry("cmd", serviceName)

	otelTel, err := initTelemetry(ctx, telemetryConfig{
		serviceName: serviceName,
		endpoint:    opts.otelEndpoint,
		logEndpoint: opts.otelLogEndpoint,
		traceRatio:  opts.traceRatio,
	})
	if err != nil {
		return err
	}
	if otelTel == nil {
		tel.LogWarn("OpenTelemetry collector is not reachable, telemetry is not exported", "endpoint", opts.otelEndpoint)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := otelTel.shutdown(shutdownCtx); err != nil {
			tel.LogError("failed to shutdown telemetry", err)
		}
	}()

	source, err := newSource(opts)
	if err != nil {
		return err
	}

	sink, err := newSink(opts)
	if err != nil {
		return err
	}

	cfg := bridge.NewConfig()
	cfg.Name = serviceName
	cfg.RingCapacity = opts.capacity
	cfg.ChunkSize = opts.chunk

	var b *bridge.Bridge
	if opts.ringFile != "" {
		storage, closeStorage, err := openRingStorage(opts.ringFile, opts.capacity)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStorage(); err != nil {
				tel.LogError("failed to close ring file", err)
			}
		}()

		b, err = bridge.NewWithStorage(source, sink, storage, cfg)
		if err != nil {
			return err
		}
	} else {
		b, err = bridge.New(source, sink, cfg)
		if err != nil {
			return err
		}
	}

	if err := b.Init(ctx); err != nil {
		b.Close()
		return err
	}

	tel.LogInfo("bridge started", "source", opts.source, "sink", opts.sink)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		tel.LogInfo("interrupted, shutting down")
	case <-done:
	}

	b.Close()

	select {
	case <-done:
	case <-time.After(closeTimeout):
		// A read on the standard input cannot be interrupted
		tel.LogWarn("bridge did not stop in time", "timeout", closeTimeout)
	}

	ws := b.WriterStats()
	rs := b.ReaderStats()
	tel.LogInfo("bridge stopped", "accepted", ws.Accepted, "delivered", rs.Delivered)

	return nil
}

// parseLogLevel parses a level name like "debug" or "warn".
func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}
