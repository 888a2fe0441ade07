package outbox

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestKafkaProducerWriterPerTopic(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"})

	logs := p.writer("exercise_log_events")
	require.Same(t, logs, p.writer("exercise_log_events"))
	require.NotSame(t, logs, p.writer("device_sync_events"))

	require.Equal(t, "exercise_log_events", logs.Topic)
	require.IsType(t, &kafka.Hash{}, logs.Balancer)
	require.Equal(t, kafka.RequireAll, logs.RequiredAcks)
	require.Equal(t, defaultBatchTimeout, logs.BatchTimeout)

	require.NoError(t, p.Close())
	require.Empty(t, p.writers)
}

func TestKafkaProducerBatchTimeoutOption(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"}, WithBatchTimeout(250*time.Millisecond))
	require.Equal(t, 250*time.Millisecond, p.writer("device_sync_events").BatchTimeout)

	p = NewKafkaProducer(nil, WithBatchTimeout(0))
	require.Equal(t, defaultBatchTimeout, p.batchTimeout)
	require.NoError(t, p.Close())
}
