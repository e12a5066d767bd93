// Package amqp provides a Sink publishing snapshots to an AMQP broker.
package amqp

import (
	"context"
	"sync"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

const sinkName = "amqp"

// Channel is the part of *amqp.Channel used by the Sink.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Sink publishes every snapshot as a single AMQP message.
//
// Publishings on one channel are serialized, Send is safe for concurrent use.
type Sink struct {
	config Config
	logger relay.LoggerAdapter

	connection *amqp.Connection
	channel    Channel
	lock       sync.Mutex

	closed bool
}

// NewSink connects to the broker and declares the exchange.
func NewSink(config Config, logger relay.LoggerAdapter) (*Sink, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	connection, err := dial(config.Connection)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to AMQP")
	}

	channel, err := connection.Channel()
	if err != nil {
		_ = connection.Close()
		return nil, errors.Wrap(err, "cannot open channel")
	}

	s, err := NewSinkWithChannel(config, channel, logger)
	if err != nil {
		_ = connection.Close()
		return nil, err
	}
	s.connection = connection

	return s, nil
}

// NewSinkWithChannel creates a Sink publishing on an already opened channel.
// Closing the Sink closes the channel.
func NewSinkWithChannel(config Config, channel Channel, logger relay.LoggerAdapter) (*Sink, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if channel == nil {
		return nil, errors.New("missing channel")
	}

	if logger == nil {
		logger = relay.NopLogger{}
	}

	s := &Sink{
		config:  config,
		logger:  logger.With(relay.LogFields{"amqp_exchange_name": config.Exchange.Name}),
		channel: channel,
	}

	if err := s.declareExchange(); err != nil {
		return nil, err
	}

	return s, nil
}

func dial(config ConnectionConfig) (*amqp.Connection, error) {
	if config.AmqpConfig != nil {
		return amqp.DialConfig(config.AmqpURI, *config.AmqpConfig)
	}
	if config.TLSConfig != nil {
		return amqp.DialTLS(config.AmqpURI, config.TLSConfig)
	}
	return amqp.Dial(config.AmqpURI)
}

func (s *Sink) declareExchange() error {
	// the default exchange always exists and cannot be declared
	if s.config.Exchange.Name == "" {
		return nil
	}

	e := s.config.Exchange
	if err := s.channel.ExchangeDeclare(e.Name, e.Type, e.Durable, e.AutoDelete, e.Internal, e.NoWait, e.Arguments); err != nil {
		return errors.Wrapf(err, "cannot declare exchange %s", e.Name)
	}

	s.logger.Debug("Exchange declared", relay.LogFields{"amqp_exchange_type": e.Type})

	return nil
}

// Send publishes the snapshot. It blocks until the publishing is written to the channel.
func (s *Sink) Send(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return sink.NewSendError(sinkName, snap, errors.New("nil snapshot"))
	}
	if err := ctx.Err(); err != nil {
		return sink.NewSendError(sinkName, snap, err)
	}

	publishing, err := s.config.Marshaler.Marshal(snap)
	if err != nil {
		return sink.NewSendError(sinkName, snap, errors.Wrap(err, "cannot marshal snapshot"))
	}

	routingKey := s.config.RoutingKey(snap)
	logFields := relay.LogFields{
		"snapshot_id":      snap.ID,
		"amqp_routing_key": routingKey,
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return sink.NewSendError(sinkName, snap, sink.ErrClosed)
	}

	s.logger.Trace("Publishing snapshot", logFields)

	if err := s.channel.Publish(s.config.Exchange.Name, routingKey, s.config.Mandatory, false, publishing); err != nil {
		return sink.NewSendError(sinkName, snap, errors.Wrap(err, "cannot publish snapshot"))
	}

	s.logger.Trace("Snapshot published", logFields)

	return nil
}

func (s *Sink) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Info("Closing AMQP sink", nil)

	var result error
	if err := s.channel.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "cannot close channel"))
	}
	if s.connection != nil {
		if err := s.connection.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "cannot close connection"))
		}
	}

	return result
}
