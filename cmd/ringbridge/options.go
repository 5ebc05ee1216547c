package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/FerroO2000/ringbuf/bridge"
)

var (
	errUnknownSource = errors.New("unknown source")
	errUnknownSink   = errors.New("unknown sink")
	errMissingPath   = errors.New("missing path")
)

type options struct {
	source     string
	sourceAddr string
	sourcePath string

	sink     string
	sinkAddr string
	sinkPath string

	kafkaBrokers string
	kafkaTopic   string

	capacity int
	chunk    int
	ringFile string

	logLevel slog.Level

	otelEndpoint    string
	otelLogEndpoint string
	traceRatio      float64
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("ringbridge", flag.ContinueOnError)

	fs.StringVar(&opts.source, "source", "stdin", "source kind: file, udp, tcp or stdin")
	fs.StringVar(&opts.sourceAddr, "source-addr", "0.0.0.0:20000", "listen address of the udp/tcp source")
	fs.StringVar(&opts.sourcePath, "source-path", "", "path of the file followed by the file source")

	fs.StringVar(&opts.sink, "sink", "stdout", "sink kind: file, udp, tcp, kafka or stdout")
	fs.StringVar(&opts.sinkAddr, "sink-addr", "127.0.0.1:20001", "destination address of the udp/tcp sink")
	fs.StringVar(&opts.sinkPath, "sink-path", "", "path of the file written by the file sink")

	fs.StringVar(&opts.kafkaBrokers, "kafka-brokers", "localhost:9092", "comma separated list of kafka brokers")
	fs.StringVar(&opts.kafkaTopic, "kafka-topic", bridge.DefaultKafkaSinkConfigTopic, "kafka topic")

	fs.IntVar(&opts.capacity, "capacity", bridge.DefaultConfigRingCapacity, "capacity of the ring in bytes")
	fs.IntVar(&opts.chunk, "chunk", bridge.DefaultConfigChunkSize, "size of the chunks moved through the ring")
	fs.StringVar(&opts.ringFile, "ring-file", "", "place the ring over a memory mapped file")

	logLevel := fs.String("log-level", "info", "log level: debug, info, warn or error")

	fs.StringVar(&opts.otelEndpoint, "otel-endpoint", "localhost:4317", "OTLP/gRPC endpoint for traces and metrics")
	fs.StringVar(&opts.otelLogEndpoint, "otel-log-endpoint", "localhost:4318", "OTLP/HTTP endpoint for logs, empty to disable")
	fs.Float64Var(&opts.traceRatio, "trace-ratio", 0.05, "sampling ratio of the traces")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	level, err := parseLogLevel(*logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}
	opts.logLevel = level

	return opts, nil
}

// splitAddr splits a host:port address into its parts.
func splitAddr(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	if host == "" {
		host = "0.0.0.0"
	}

	return host, uint16(port), nil
}

func newSource(opts *options) (bridge.Source, error) {
	switch opts.source {
	case "stdin":
		return bridge.NewReaderSource(os.Stdin), nil

	case "file":
		if opts.sourcePath == "" {
			return nil, fmt.Errorf("file source: %w", errMissingPath)
		}
		return bridge.NewFileSource(bridge.NewFileSourceConfig(opts.sourcePath)), nil

	case "udp":
		host, port, err := splitAddr(opts.sourceAddr)
		if err != nil {
			return nil, fmt.Errorf("udp source: %w", err)
		}

		cfg := bridge.NewUDPSourceConfig()
		cfg.IPAddr = host
		cfg.Port = port

		return bridge.NewUDPSource(cfg), nil

	case "tcp":
		host, port, err := splitAddr(opts.sourceAddr)
		if err != nil {
			return nil, fmt.Errorf("tcp source: %w", err)
		}

		cfg := bridge.NewTCPSourceConfig()
		cfg.IPAddr = host
		cfg.Port = port

		return bridge.NewTCPSource(cfg), nil
	}

	return nil, fmt.Errorf("%w: %q", errUnknownSource, opts.source)
}

func newSink(opts *options) (bridge.Sink, error) {
	switch opts.sink {
	case "stdout":
		return bridge.NewWriterSink(os.Stdout), nil

	case "file":
		if opts.sinkPath == "" {
			return nil, fmt.Errorf("file sink: %w", errMissingPath)
		}
		return bridge.NewFileSink(bridge.NewFileSinkConfig(opts.sinkPath)), nil

	case "udp":
		cfg := bridge.NewUDPSinkConfig()
		cfg.Addr = opts.sinkAddr
		return bridge.NewUDPSink(cfg), nil

	case "tcp":
		cfg := bridge.NewTCPSinkConfig()
		cfg.Addr = opts.sinkAddr
		return bridge.NewTCPSink(cfg), nil

	case "kafka":
		cfg := bridge.NewKafkaSinkConfig()
		cfg.Brokers = splitList(opts.kafkaBrokers)
		cfg.Topic = opts.kafkaTopic
		return bridge.NewKafkaSink(cfg), nil
	}

	return nil, fmt.Errorf("%w: %q", errUnknownSink, opts.sink)
}

func splitList(s string) []string {
	items := []string{}
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
