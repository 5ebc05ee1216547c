package bridge

import (
	"context"
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
	"github.com/segmentio/kafka-go"
)

// Default values for the Kafka sink configuration.
const (
	DefaultKafkaSinkConfigTopic        = "ringbuf"
	DefaultKafkaSinkConfigMaxAttempts  = 10
	DefaultKafkaSinkConfigBatchSize    = 100
	DefaultKafkaSinkConfigBatchBytes   = 1048576
	DefaultKafkaSinkConfigBatchTimeout = time.Second
	DefaultKafkaSinkConfigWriteTimeout = 10 * time.Second
)

// DefaultKafkaSinkConfigBrokers is the default list of brokers.
var DefaultKafkaSinkConfigBrokers = []string{"localhost:9092"}

// KafkaSinkConfig contains the configuration of the Kafka sink.
type KafkaSinkConfig struct {
	// Brokers is the list of Kafka brokers to connect to.
	//
	// Default: localhost:9092
	Brokers []string

	// Topic is the topic the chunks are written to.
	//
	// Default: ringbuf
	Topic string

	// Key is the key of every message. Messages with the same key
	// land on the same partition, which keeps the chunks in order.
	Key []byte

	// MaxAttempts is the limit on how many attempts will be made to deliver a message.
	//
	// Default: 10
	MaxAttempts int

	// BatchSize is the limit on how many messages will be buffered
	// before being sent to a partition.
	//
	// Default: 100
	BatchSize int

	// BatchBytes is the limit of the size of a request in bytes.
	//
	// Default: 1048576
	BatchBytes int64

	// BatchTimeout is the time limit on how often incomplete batches are flushed.
	//
	// Default: 1s
	BatchTimeout time.Duration

	// WriteTimeout is the timeout for write operations.
	//
	// Default: 10s
	WriteTimeout time.Duration

	// RequiredAcks is the number of acknowledges required from the partition replicas.
	//
	// Default: RequireOne
	RequiredAcks kafka.RequiredAcks

	// Async makes the writes never block. Delivery errors are then lost.
	//
	// Default: false
	Async bool

	// Compression is the codec used to compress the messages.
	//
	// Default: Snappy
	Compression kafka.Compression

	// AllowAutoTopicCreation notifies the writer to create the topic if missing.
	//
	// Default: true
	AllowAutoTopicCreation bool
}

// NewKafkaSinkConfig returns the default configuration for the Kafka sink.
func NewKafkaSinkConfig() *KafkaSinkConfig {
	return &KafkaSinkConfig{
		Brokers:                DefaultKafkaSinkConfigBrokers,
		Topic:                  DefaultKafkaSinkConfigTopic,
		MaxAttempts:            DefaultKafkaSinkConfigMaxAttempts,
		BatchSize:              DefaultKafkaSinkConfigBatchSize,
		BatchBytes:             DefaultKafkaSinkConfigBatchBytes,
		BatchTimeout:           DefaultKafkaSinkConfigBatchTimeout,
		WriteTimeout:           DefaultKafkaSinkConfigWriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
}

// Validate checks the configuration.
func (c *KafkaSinkConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckLen(ac, "Brokers", &c.Brokers, DefaultKafkaSinkConfigBrokers)
	config.CheckNotEmpty(ac, "Topic", &c.Topic, DefaultKafkaSinkConfigTopic)

	config.CheckPositive(ac, "MaxAttempts", &c.MaxAttempts, DefaultKafkaSinkConfigMaxAttempts)
	config.CheckPositive(ac, "BatchSize", &c.BatchSize, DefaultKafkaSinkConfigBatchSize)
	config.CheckPositive(ac, "BatchBytes", &c.BatchBytes, DefaultKafkaSinkConfigBatchBytes)
	config.CheckPositiveDuration(ac, "BatchTimeout", &c.BatchTimeout, DefaultKafkaSinkConfigBatchTimeout)
	config.CheckPositiveDuration(ac, "WriteTimeout", &c.WriteTimeout, DefaultKafkaSinkConfigWriteTimeout)
}

var _ Sink = (*KafkaSink)(nil)

// KafkaSink writes every chunk as a Kafka message.
type KafkaSink struct {
	cfg *KafkaSinkConfig

	writer *kafka.Writer
}

// NewKafkaSink returns a new Kafka sink.
func NewKafkaSink(cfg *KafkaSinkConfig) *KafkaSink {
	return &KafkaSink{
		cfg: cfg,
	}
}

func (ks *KafkaSink) getConfig() config.Config {
	return ks.cfg
}

// Open creates the Kafka writer. Connections are established lazily.
func (ks *KafkaSink) Open(_ context.Context) error {
	ks.writer = &kafka.Writer{
		Addr:                   kafka.TCP(ks.cfg.Brokers...),
		Topic:                  ks.cfg.Topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            ks.cfg.MaxAttempts,
		BatchSize:              ks.cfg.BatchSize,
		BatchBytes:             ks.cfg.BatchBytes,
		BatchTimeout:           ks.cfg.BatchTimeout,
		WriteTimeout:           ks.cfg.WriteTimeout,
		RequiredAcks:           ks.cfg.RequiredAcks,
		Async:                  ks.cfg.Async,
		Compression:            ks.cfg.Compression,
		AllowAutoTopicCreation: ks.cfg.AllowAutoTopicCreation,
	}

	return nil
}

func (ks *KafkaSink) newMessage(p []byte) kafka.Message {
	// The chunk buffer is reused by the consumer
	value := make([]byte, len(p))
	copy(value, p)

	return kafka.Message{
		Key:   ks.cfg.Key,
		Value: value,
	}
}

// Write delivers the chunk.
func (ks *KafkaSink) Write(ctx context.Context, p []byte) error {
	return ks.writer.WriteMessages(ctx, ks.newMessage(p))
}

// Close flushes the pending messages and closes the writer.
func (ks *KafkaSink) Close() error {
	if ks.writer == nil {
		return nil
	}
	return ks.writer.Close()
}
