package amqp

import (
	"crypto/tls"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/ThreeDotsLabs/relay/snapshot"
)

type ConnectionConfig struct {
	AmqpURI string

	TLSConfig  *tls.Config
	AmqpConfig *amqp.Config
}

type ExchangeConfig struct {
	// Name of the exchange snapshots are published to.
	// Empty name means the default exchange, then RoutingKey is the name of the queue.
	Name string

	// Type of the exchange, defaults to "topic".
	Type string

	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  amqp.Table
}

type Config struct {
	Connection ConnectionConfig
	Exchange   ExchangeConfig

	// RoutingKey generates the routing key of a snapshot.
	// Defaults to "lineage.<correlation id>", so all hops of a transaction can be bound together.
	RoutingKey func(s *snapshot.Snapshot) string

	// Mandatory publishings are returned by the broker when no queue is bound.
	Mandatory bool

	Marshaler Marshaler
}

func (c *Config) setDefaults() {
	if c.Exchange.Type == "" {
		c.Exchange.Type = "topic"
	}
	if c.RoutingKey == nil {
		c.RoutingKey = DefaultRoutingKey
	}
	if c.Marshaler == nil {
		c.Marshaler = DefaultMarshaler{}
	}
}

func (c Config) Validate() error {
	if c.Connection.AmqpConfig != nil && c.Connection.AmqpConfig.TLSClientConfig != nil && c.Connection.TLSConfig != nil {
		return errors.New("both Connection.AmqpConfig.TLSClientConfig and Connection.TLSConfig are set")
	}

	return nil
}

// DefaultRoutingKey routes snapshots by their correlation id.
func DefaultRoutingKey(s *snapshot.Snapshot) string {
	return "lineage." + s.CorrelationID
}
