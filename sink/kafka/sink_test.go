package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/pkg/errors"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/sink/kafka"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

func newSnapshot(id, parentID string, order int) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		ID:            id,
		Parts:         []snapshot.Part{{Label: "PART_0", Content: "order"}},
		Headers:       map[string]string{},
		CorrelationID: "tx-1",
		ParentID:      parentID,
		Order:         order,
		Location:      "D/C/E/P/S",
		CapturedAt:    time.Date(2019, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSink_Send(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)

	s, err := kafka.NewSinkWithProducer(kafka.Config{Topic: "lineage"}, producer, nil)
	require.NoError(t, err)

	var sent []*snapshot.Snapshot
	checker := func(val []byte) error {
		decoded, err := snapshot.JSONMarshaler{}.Unmarshal(val)
		if err != nil {
			return err
		}
		sent = append(sent, decoded)
		return nil
	}

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(checker)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(checker)

	require.NoError(t, s.Send(context.Background(), newSnapshot("s-0", "", 0)))
	require.NoError(t, s.Send(context.Background(), newSnapshot("s-1", "s-0", 1)))

	require.Len(t, sent, 2)
	assert.Equal(t, "s-0", sent[0].ID)
	assert.Equal(t, "s-0", sent[1].ParentID)
	assert.Equal(t, 1, sent[1].Order)

	require.NoError(t, s.Close())

	err = s.Send(context.Background(), newSnapshot("s-2", "s-1", 2))
	assert.True(t, errors.Is(err, sink.ErrClosed))
}

func TestSink_Send_failure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)

	s, err := kafka.NewSinkWithProducer(kafka.Config{Topic: "lineage"}, producer, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err = s.Send(context.Background(), newSnapshot("s-0", "", 0))

	var sendErr *sink.SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "kafka", sendErr.Sink)
	assert.Equal(t, "s-0", sendErr.SnapshotID)
	assert.True(t, errors.Is(err, sarama.ErrOutOfBrokers))
}

func TestSink_Send_canceled_context(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)

	s, err := kafka.NewSinkWithProducer(kafka.Config{Topic: "lineage"}, producer, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Send(ctx, newSnapshot("s-0", "", 0))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewSinkWithProducer_invalid(t *testing.T) {
	_, err := kafka.NewSinkWithProducer(kafka.Config{}, mocks.NewSyncProducer(t, nil), nil)
	assert.Error(t, err, "missing topic")

	_, err = kafka.NewSinkWithProducer(kafka.Config{Topic: "lineage"}, nil, nil)
	assert.Error(t, err)
}

func TestDefaultMarshaler(t *testing.T) {
	m := kafka.DefaultMarshaler{}
	s := newSnapshot("s-1", "s-0", 1)

	kafkaMsg, err := m.Marshal("lineage", s)
	require.NoError(t, err)

	assert.Equal(t, "lineage", kafkaMsg.Topic)
	assert.Equal(t, sarama.StringEncoder("tx-1"), kafkaMsg.Key)
	assert.Equal(t, s.CapturedAt, kafkaMsg.Timestamp)

	headers := map[string]string{}
	for _, h := range kafkaMsg.Headers {
		headers[string(h.Key)] = string(h.Value)
	}
	assert.Equal(t, map[string]string{
		kafka.SnapshotIDHeaderKey:    "s-1",
		kafka.CorrelationIDHeaderKey: "tx-1",
		kafka.OrderHeaderKey:         "1",
		kafka.ParentIDHeaderKey:      "s-0",
		kafka.ContentTypeHeaderKey:   "application/json",
	}, headers)

	value, err := kafkaMsg.Value.Encode()
	require.NoError(t, err)

	consumed := &sarama.ConsumerMessage{Value: value}
	for i := range kafkaMsg.Headers {
		consumed.Headers = append(consumed.Headers, &kafkaMsg.Headers[i])
	}

	decoded, err := m.Unmarshal(consumed)
	require.NoError(t, err)
	assert.Equal(t, s.ID, decoded.ID)
	assert.Equal(t, s.Parts, decoded.Parts)
}

func TestDefaultMarshaler_root_has_no_parent_header(t *testing.T) {
	kafkaMsg, err := kafka.DefaultMarshaler{}.Marshal("lineage", newSnapshot("s-0", "", 0))
	require.NoError(t, err)

	for _, h := range kafkaMsg.Headers {
		assert.NotEqual(t, kafka.ParentIDHeaderKey, string(h.Key))
	}
}

func TestDefaultMarshaler_Unmarshal_id_mismatch(t *testing.T) {
	value, err := snapshot.JSONMarshaler{}.Marshal(newSnapshot("s-0", "", 0))
	require.NoError(t, err)

	_, err = kafka.DefaultMarshaler{}.Unmarshal(&sarama.ConsumerMessage{
		Value:   value,
		Headers: []*sarama.RecordHeader{{Key: []byte(kafka.SnapshotIDHeaderKey), Value: []byte("other")}},
	})
	assert.Error(t, err)
}

func TestSink_meters(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)

	saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
	saramaConfig.MetricRegistry = gometrics.NewRegistry()

	s, err := kafka.NewSinkWithProducer(kafka.Config{
		Topic:                 "lineage",
		OverwriteSaramaConfig: saramaConfig,
	}, producer, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	require.NoError(t, s.Send(context.Background(), newSnapshot("s-0", "", 0)))
	require.NoError(t, s.Send(context.Background(), newSnapshot("s-1", "s-0", 1)))
	require.Error(t, s.Send(context.Background(), newSnapshot("s-2", "s-1", 2)))

	sent, ok := saramaConfig.MetricRegistry.Get(kafka.SentMeterName).(gometrics.Meter)
	require.True(t, ok)
	assert.Equal(t, int64(2), sent.Count())

	failed, ok := saramaConfig.MetricRegistry.Get(kafka.FailedMeterName).(gometrics.Meter)
	require.True(t, ok)
	assert.Equal(t, int64(1), failed.Count())
}
