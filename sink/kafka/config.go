package kafka

import (
	"time"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

type Config struct {
	// Kafka brokers list.
	Brokers []string

	// Topic snapshots are produced to.
	Topic string

	// Marshaler is used to marshal snapshots to Kafka format.
	// Defaults to DefaultMarshaler, which partitions by correlation id.
	Marshaler Marshaler

	// OverwriteSaramaConfig holds additional sarama settings.
	OverwriteSaramaConfig *sarama.Config
}

func (c *Config) setDefaults() {
	if c.OverwriteSaramaConfig == nil {
		c.OverwriteSaramaConfig = DefaultSaramaSyncPublisherConfig()
	}
	if c.Marshaler == nil {
		c.Marshaler = DefaultMarshaler{}
	}
}

func (c Config) Validate() error {
	if c.Topic == "" {
		return errors.New("missing Topic")
	}

	return nil
}

// DefaultSaramaSyncPublisherConfig creates default Sarama config used by the Sink.
//
// Custom config can be passed to NewSink:
//
//		saramaConfig := DefaultSaramaSyncPublisherConfig()
//		saramaConfig.Producer.Compression = sarama.CompressionSnappy
//
//		s, err := NewSink(Config{Brokers: brokers, Topic: "lineage", OverwriteSaramaConfig: saramaConfig}, logger)
//		// ...
//
func DefaultSaramaSyncPublisherConfig() *sarama.Config {
	config := sarama.NewConfig()

	config.Producer.Retry.Max = 10
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionGZIP
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Version = sarama.V1_0_0_0
	config.Metadata.Retry.Backoff = time.Second * 2
	config.ClientID = "relay"

	return config
}
