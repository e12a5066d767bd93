package cmd

import (
	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/components/metrics"
	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/sink/amqp"
	"github.com/ThreeDotsLabs/relay/sink/kafka"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

// buildSink creates the sink chain: an async hand-off in front of all configured transports.
// Remote transports are retried, every transport is measured.
func buildSink(
	config Config,
	memory *sink.Memory,
	metricsBuilder metrics.PrometheusMetricsBuilder,
	logger relay.LoggerAdapter,
) (s sink.Sink, err error) {
	var transports []sink.Sink
	defer func() {
		if err == nil {
			return
		}
		for _, t := range transports {
			_ = t.Close()
		}
	}()

	names := config.Sinks
	if config.PrintChains && !config.hasSink(sinkMemory) {
		names = append(append([]string(nil), names...), sinkMemory)
	}

	for _, name := range names {
		transport, err := newTransport(name, config, memory, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create %s sink", name)
		}

		transport, err = metricsBuilder.DecorateSink(transport, name)
		if err != nil {
			return nil, err
		}

		if name == sinkAMQP || name == sinkKafka {
			transport, err = sink.NewRetry(transport, sink.RetryConfig{
				MaxRetries:      config.Retry.MaxRetries,
				InitialInterval: config.Retry.InitialInterval,
				MaxInterval:     config.Retry.MaxInterval,
			}, logger)
			if err != nil {
				return nil, err
			}
		}

		transports = append(transports, transport)
	}

	var fanOut sink.Sink = sink.NewFanOut(transports...)
	if len(transports) == 1 {
		fanOut = transports[0]
	}

	async, err := sink.NewAsync(fanOut, sink.AsyncConfig{
		Workers:      config.Async.Workers,
		SendTimeout:  config.Async.SendTimeout,
		CloseTimeout: config.Async.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	return async, nil
}

func newTransport(name string, config Config, memory *sink.Memory, logger relay.LoggerAdapter) (sink.Sink, error) {
	switch name {
	case sinkMemory:
		return memory, nil
	case sinkLog:
		return sink.NewLogger(logger), nil
	case sinkAMQP:
		amqpConfig := amqp.Config{
			Connection: amqp.ConnectionConfig{AmqpURI: config.AMQP.URI},
			Exchange: amqp.ExchangeConfig{
				Name:    config.AMQP.Exchange,
				Type:    config.AMQP.ExchangeType,
				Durable: config.AMQP.Durable,
			},
		}
		if routingKey := config.AMQP.RoutingKey; routingKey != "" {
			amqpConfig.RoutingKey = func(*snapshot.Snapshot) string { return routingKey }
		}
		return amqp.NewSink(amqpConfig, logger)
	case sinkKafka:
		return kafka.NewSink(kafka.Config{
			Brokers: config.Kafka.Brokers,
			Topic:   config.Kafka.Topic,
		}, logger)
	default:
		return nil, errors.Errorf("unknown sink %s", name)
	}
}
