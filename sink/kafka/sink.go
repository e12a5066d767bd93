// Package kafka provides a Sink producing snapshots to a Kafka topic.
package kafka

import (
	"context"
	"sync"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

const sinkName = "kafka"

// Names of meters registered in the sarama MetricRegistry, next to the producer metrics of sarama.
const (
	SentMeterName   = "lineage-snapshots-sent"
	FailedMeterName = "lineage-snapshots-failed"
)

// Sink produces every snapshot as a single Kafka message with a sync producer.
type Sink struct {
	config   Config
	producer sarama.SyncProducer
	logger   relay.LoggerAdapter

	sent   gometrics.Meter
	failed gometrics.Meter

	closed     bool
	closedLock sync.RWMutex
}

// NewSink creates a new Kafka Sink.
func NewSink(config Config, logger relay.LoggerAdapter) (*Sink, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if len(config.Brokers) == 0 {
		return nil, errors.New("missing Brokers")
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, config.OverwriteSaramaConfig)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create Kafka producer")
	}

	return NewSinkWithProducer(config, producer, logger)
}

// NewSinkWithProducer creates a Sink producing with the given producer.
// Closing the Sink closes the producer.
func NewSinkWithProducer(config Config, producer sarama.SyncProducer, logger relay.LoggerAdapter) (*Sink, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if producer == nil {
		return nil, errors.New("missing producer")
	}

	if logger == nil {
		logger = relay.NopLogger{}
	}

	registry := config.OverwriteSaramaConfig.MetricRegistry
	if registry == nil {
		registry = gometrics.NewRegistry()
	}

	return &Sink{
		config:   config,
		producer: producer,
		logger:   logger.With(relay.LogFields{"kafka_topic": config.Topic}),
		sent:     gometrics.GetOrRegisterMeter(SentMeterName, registry),
		failed:   gometrics.GetOrRegisterMeter(FailedMeterName, registry),
	}, nil
}

// Send produces the snapshot. It blocks until the broker acknowledges the message.
func (s *Sink) Send(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return sink.NewSendError(sinkName, snap, errors.New("nil snapshot"))
	}

	s.closedLock.RLock()
	defer s.closedLock.RUnlock()

	if s.closed {
		return sink.NewSendError(sinkName, snap, sink.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return sink.NewSendError(sinkName, snap, err)
	}

	logFields := relay.LogFields{"snapshot_id": snap.ID}
	s.logger.Trace("Sending snapshot to Kafka", logFields)

	kafkaMsg, err := s.config.Marshaler.Marshal(s.config.Topic, snap)
	if err != nil {
		return sink.NewSendError(sinkName, snap, errors.Wrap(err, "cannot marshal snapshot"))
	}

	partition, offset, err := s.producer.SendMessage(kafkaMsg)
	if err != nil {
		s.failed.Mark(1)
		return sink.NewSendError(sinkName, snap, errors.Wrap(err, "cannot produce snapshot"))
	}

	s.sent.Mark(1)

	logFields["kafka_partition"] = partition
	logFields["kafka_partition_offset"] = offset
	s.logger.Trace("Snapshot sent to Kafka", logFields)

	return nil
}

func (s *Sink) Close() error {
	s.closedLock.Lock()
	defer s.closedLock.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.producer.Close(); err != nil {
		return errors.Wrap(err, "cannot close Kafka producer")
	}

	return nil
}
