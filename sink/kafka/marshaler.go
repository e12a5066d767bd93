package kafka

import (
	"strconv"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay/snapshot"
)

const (
	SnapshotIDHeaderKey    = "lineage_snapshot_id"
	CorrelationIDHeaderKey = "lineage_correlation_id"
	OrderHeaderKey         = "lineage_order"
	ParentIDHeaderKey      = "lineage_parent_id"
	ContentTypeHeaderKey   = "content_type"
)

// Marshaler marshals snapshots to Kafka messages.
type Marshaler interface {
	Marshal(topic string, s *snapshot.Snapshot) (*sarama.ProducerMessage, error)
}

// Unmarshaler unmarshals Kafka messages to snapshots.
type Unmarshaler interface {
	Unmarshal(*sarama.ConsumerMessage) (*snapshot.Snapshot, error)
}

type MarshalerUnmarshaler interface {
	Marshaler
	Unmarshaler
}

// DefaultMarshaler uses the correlation id as the message key,
// so all hops of a transaction land on one partition in the order of sending.
type DefaultMarshaler struct {
	// Body encodes the snapshot, defaults to snapshot.JSONMarshaler.
	Body snapshot.Marshaler
}

func (d DefaultMarshaler) body() snapshot.Marshaler {
	if d.Body == nil {
		return snapshot.JSONMarshaler{}
	}
	return d.Body
}

func (d DefaultMarshaler) Marshal(topic string, s *snapshot.Snapshot) (*sarama.ProducerMessage, error) {
	value, err := d.body().Marshal(s)
	if err != nil {
		return nil, err
	}

	headers := []sarama.RecordHeader{
		{Key: []byte(SnapshotIDHeaderKey), Value: []byte(s.ID)},
		{Key: []byte(CorrelationIDHeaderKey), Value: []byte(s.CorrelationID)},
		{Key: []byte(OrderHeaderKey), Value: []byte(strconv.Itoa(s.Order))},
		{Key: []byte(ContentTypeHeaderKey), Value: []byte(d.body().ContentType())},
	}
	if s.ParentID != "" {
		headers = append(headers, sarama.RecordHeader{Key: []byte(ParentIDHeaderKey), Value: []byte(s.ParentID)})
	}

	return &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(s.CorrelationID),
		Value:     sarama.ByteEncoder(value),
		Headers:   headers,
		Timestamp: s.CapturedAt,
	}, nil
}

func (d DefaultMarshaler) Unmarshal(kafkaMsg *sarama.ConsumerMessage) (*snapshot.Snapshot, error) {
	s, err := d.body().Unmarshal(kafkaMsg.Value)
	if err != nil {
		return nil, err
	}

	for _, header := range kafkaMsg.Headers {
		if header == nil || string(header.Key) != SnapshotIDHeaderKey {
			continue
		}
		if string(header.Value) != s.ID {
			return nil, errors.Errorf("snapshot id %s does not match header %s", s.ID, header.Value)
		}
	}

	return s, nil
}
