package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/events"
)

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)
	s.writes = append(s.writes, writtenBatch{topic: topic, messages: copied})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []schemaCall
}

type schemaCall struct {
	subject string
	schema  string
}

func (s *stubRegistry) EnsureSchema(_ context.Context, subject string, schema string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, schemaCall{subject: subject, schema: schema})
	if s.err != nil {
		return 0, s.err
	}
	if s.id == 0 {
		s.id = 1
	}
	return s.id, nil
}

type deadLetter struct {
	msg    Message
	reason string
}

type memoryQueue struct {
	pending   []Message
	published []int64
	dlq       []deadLetter
}

func (q *memoryQueue) Claim(_ context.Context, limit int) ([]Message, error) {
	if limit > len(q.pending) {
		limit = len(q.pending)
	}
	claimed := q.pending[:limit]
	q.pending = q.pending[limit:]
	return claimed, nil
}

func (q *memoryQueue) MarkPublished(_ context.Context, messages []Message) error {
	for _, msg := range messages {
		q.published = append(q.published, msg.EventID)
	}
	return nil
}

func (q *memoryQueue) DeadLetter(_ context.Context, msg Message, reason string) error {
	q.dlq = append(q.dlq, deadLetter{msg: msg, reason: reason})
	return nil
}

func exerciseLogMessage(id int64, tenantID string) Message {
	payload, _ := json.Marshal(events.ExerciseLogCreated{
		ExerciseLogID: "log-1",
		TenantID:      tenantID,
		ExerciseName:  "Bench Press",
		SetsCompleted: 1,
	})
	return Message{
		EventID:       id,
		TenantID:      tenantID,
		AggregateType: "exercise_log",
		AggregateID:   "log-1",
		EventType:     events.TypeExerciseLogCreated,
		Topic:         "exercise_log_events",
		SchemaSubject: "exercise_log_events-value",
		PartitionKey:  tenantID + ":w1",
		Payload:       payload,
	}
}

func newTestDispatcher(queue Queue, producer messageWriter, registry schemaRegistrar) *Dispatcher {
	return NewDispatcher(queue, producer, registry, 10*time.Millisecond, 5, WithLogger(log.New(io.Discard, "", 0)))
}

func TestDispatcherPublishesFramedBatches(t *testing.T) {
	queue := &memoryQueue{pending: []Message{exerciseLogMessage(1, "t1"), exerciseLogMessage(2, "t1")}}
	producer := &stubProducer{}
	registry := &stubRegistry{id: 21}
	dispatcher := newTestDispatcher(queue, producer, registry)

	beforeDelivered := testutil.ToFloat64(deliveredCounter)
	beforeHistogram := histogramSampleCount(t)

	require.NoError(t, dispatcher.processBatch(context.Background()))

	require.Len(t, producer.writes, 1)
	require.Equal(t, "exercise_log_events", producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.Len(t, registry.calls, 1, "schema ids are cached across the batch")
	require.Equal(t, []int64{1, 2}, queue.published)
	require.Empty(t, queue.dlq)

	record := producer.writes[0].messages[0]
	require.Equal(t, []byte("t1:w1"), record.Key)
	schemaID, payload, err := DecodeWireFormat(record.Value)
	require.NoError(t, err)
	require.Equal(t, 21, schemaID)
	require.JSONEq(t, string(exerciseLogMessage(1, "t1").Payload), string(payload))

	require.InDelta(t, beforeDelivered+2, testutil.ToFloat64(deliveredCounter), 0.0001)
	require.Greater(t, histogramSampleCount(t), beforeHistogram)
}

func TestDispatcherRoutesFailuresToDLQ(t *testing.T) {
	queue := &memoryQueue{pending: []Message{exerciseLogMessage(1, "t1")}}
	producer := &stubProducer{err: errors.New("kafka write failed")}
	dispatcher := newTestDispatcher(queue, producer, &stubRegistry{id: 7})

	beforeFailed := testutil.ToFloat64(failedCounter)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues("exercise_log_events"))

	require.NoError(t, dispatcher.processBatch(context.Background()))

	require.Len(t, queue.dlq, 1)
	require.Contains(t, queue.dlq[0].reason, "kafka write failed")
	require.Contains(t, queue.dlq[0].reason, "topic=exercise_log_events")
	require.Equal(t, []int64{1}, queue.published)
	require.InDelta(t, beforeFailed+1, testutil.ToFloat64(failedCounter), 0.0001)
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues("exercise_log_events")), 0.0001)
}

func TestDispatcherUnknownEventTypeSkipsKafka(t *testing.T) {
	msg := exerciseLogMessage(3, "t1")
	msg.EventType = "exercise_log.unknown"
	queue := &memoryQueue{pending: []Message{msg}}
	producer := &stubProducer{}
	registry := &stubRegistry{}

	require.NoError(t, newTestDispatcher(queue, producer, registry).processBatch(context.Background()))

	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)
	require.Len(t, queue.dlq, 1)
	require.Contains(t, queue.dlq[0].reason, "no schema metadata for event_type=exercise_log.unknown")
}

func TestDispatcherEmptyQueueIsNoop(t *testing.T) {
	queue := &memoryQueue{}
	producer := &stubProducer{}

	require.NoError(t, newTestDispatcher(queue, producer, &stubRegistry{}).processBatch(context.Background()))
	require.Empty(t, producer.writes)
	require.Empty(t, queue.published)
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := newTestDispatcher(&memoryQueue{}, &stubProducer{}, &stubRegistry{})

	go dispatcher.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestDecodeWireFormatRejectsPlainJSON(t *testing.T) {
	_, _, err := DecodeWireFormat([]byte(`{"a":1}`))
	require.Error(t, err)
}

func TestSchemaRegistryRegistersMissingSubject(t *testing.T) {
	var registered string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPost:
			require.Equal(t, "/subjects/exercise_log_events-value/versions", r.URL.Path)
			var body struct {
				SchemaType string `json:"schemaType"`
				Schema     string `json:"schema"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			registered = body.SchemaType
			_, _ = w.Write([]byte(`{"id":42}`))
		}
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL+"/").EnsureSchema(context.Background(), "exercise_log_events-value", exerciseLogCreatedSchema)
	require.NoError(t, err)
	require.Equal(t, 42, id)
	require.Equal(t, "JSON", registered)
}

func TestSchemaRegistryReusesLatestVersion(t *testing.T) {
	posts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
		}
		_, _ = w.Write([]byte(`{"id":9}`))
	}))
	defer srv.Close()

	id, err := NewSchemaRegistryClient(srv.URL).EnsureSchema(context.Background(), "device_sync_events-value", deviceSyncCompletedSchema)
	require.NoError(t, err)
	require.Equal(t, 9, id)
	require.Zero(t, posts)
}

func TestSchemaCatalogIsValidJSON(t *testing.T) {
	for eventType, schema := range schemaCatalog {
		require.Truef(t, json.Valid([]byte(schema)), "schema for %s", eventType)
	}
}

func histogramSampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, batchDuration.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}
