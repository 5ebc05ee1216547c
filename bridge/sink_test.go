package bridge

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FerroO2000/ringbuf/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FileSink(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "nested", "out.bin")

	sink := NewFileSink(NewFileSinkConfig(path))
	require.NoError(t, sink.Open(t.Context()))

	assert.NoError(sink.Write(t.Context(), []byte("first ")))
	assert.NoError(sink.Write(t.Context(), []byte("second")))
	assert.NoError(sink.Close())
	assert.NoError(sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal("first second", string(data))

	// A new sink appends to the existing content
	cfg := NewFileSinkConfig(path)
	cfg.SyncWrites = true

	sink = NewFileSink(cfg)
	require.NoError(t, sink.Open(t.Context()))
	assert.NoError(sink.Write(t.Context(), []byte(" third")))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal("first second third", string(data))

	assert.NoError(sink.Close())
}

func Test_UDPSink(t *testing.T) {
	assert := assert.New(t)

	source := newLoopbackUDPSource(t)

	cfg := NewUDPSinkConfig()
	cfg.Addr = source.Addr().String()

	sink := NewUDPSink(cfg)
	require.NoError(t, sink.Open(t.Context()))
	defer sink.Close()

	assert.NoError(sink.Write(t.Context(), []byte("over udp")))

	ctx, cancelCtx := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancelCtx()

	buf := make([]byte, 64)
	n, err := source.Read(ctx, buf)
	assert.NoError(err)
	assert.Equal("over udp", string(buf[:n]))
}

func Test_TCPSink(t *testing.T) {
	assert := assert.New(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 64)
		got := []byte{}
		for len(got) < len("over tcp") {
			n, err := conn.Read(buf)
			if err != nil {
				break
			}
			got = append(got, buf[:n]...)
		}
		received <- string(got)
	}()

	cfg := NewTCPSinkConfig()
	cfg.Addr = listener.Addr().String()

	sink := NewTCPSink(cfg)
	require.NoError(t, sink.Open(t.Context()))

	assert.NoError(sink.Write(t.Context(), []byte("over tcp")))

	select {
	case msg := <-received:
		assert.Equal("over tcp", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("nothing received")
	}

	assert.NoError(sink.Close())
	assert.NoError(sink.Close())
}

func Test_TCPSink_Unreachable(t *testing.T) {
	// Grab a free port and release it, so that nobody is listening
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	cfg := NewTCPSinkConfig()
	cfg.Addr = addr
	cfg.MaxRetries = 2

	sink := NewTCPSink(cfg)
	assert.Error(t, sink.Open(t.Context()))
}

func Test_KafkaSink(t *testing.T) {
	assert := assert.New(t)

	cfg := &KafkaSinkConfig{Key: []byte("key")}
	ac := config.NewAnomalyCollector()
	cfg.Validate(ac)

	assert.Equal(7, ac.Len())
	assert.Equal(DefaultKafkaSinkConfigBrokers, cfg.Brokers)
	assert.Equal(DefaultKafkaSinkConfigTopic, cfg.Topic)

	sink := NewKafkaSink(NewKafkaSinkConfig())
	assert.NoError(sink.Close())

	chunk := []byte("chunk")
	sink.cfg.Key = []byte("key")
	msg := sink.newMessage(chunk)

	// The message must not share memory with the reused chunk buffer
	chunk[0] = 'X'
	assert.Equal(kafka.Message{Key: []byte("key"), Value: []byte("chunk")}, msg)

	require.NoError(t, sink.Open(t.Context()))
	assert.Equal(DefaultKafkaSinkConfigTopic, sink.writer.Topic)
	assert.Equal(kafka.Snappy, sink.writer.Compression)
	assert.NoError(sink.Close())
}
