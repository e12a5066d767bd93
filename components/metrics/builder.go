package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ThreeDotsLabs/relay/sink"
)

func NewPrometheusMetricsBuilder(prometheusRegistry prometheus.Registerer, namespace string, subsystem string) PrometheusMetricsBuilder {
	return PrometheusMetricsBuilder{
		Namespace:          namespace,
		Subsystem:          subsystem,
		PrometheusRegistry: prometheusRegistry,
	}
}

// PrometheusMetricsBuilder provides methods to decorate sinks and steps, and to observe tagging.
type PrometheusMetricsBuilder struct {
	// PrometheusRegistry may be filled with a pre-existing Prometheus registry, or left empty for the default registry.
	PrometheusRegistry prometheus.Registerer

	Namespace string
	Subsystem string

	// SendBuckets defines the histogram buckets for sink send time histogram, defaulted if nil.
	SendBuckets []float64
	// StepBuckets defines the histogram buckets for step execution time histogram, defaulted if nil.
	StepBuckets []float64
}

// DecorateSink wraps the underlying sink with Prometheus metrics.
// sinkName is used as the value of the sink_name label.
func (b PrometheusMetricsBuilder) DecorateSink(s sink.Sink, sinkName string) (sink.Sink, error) {
	var err error
	d := SinkPrometheusMetricsDecorator{
		sink:     s,
		sinkName: sinkName,
	}

	d.sendTimeSeconds, err = b.registerHistogramVec(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "sink_send_time_seconds",
			Help:      "The time that a snapshot send attempt (success or not) took in seconds",
			Buckets:   b.SendBuckets,
		},
		sinkLabelKeys,
	))
	if err != nil {
		return nil, errors.Wrap(err, "could not register send time metric")
	}

	return d, nil
}

func (b PrometheusMetricsBuilder) registerer() prometheus.Registerer {
	if b.PrometheusRegistry == nil {
		return prometheus.DefaultRegisterer
	}
	return b.PrometheusRegistry
}

func (b PrometheusMetricsBuilder) register(c prometheus.Collector) (prometheus.Collector, error) {
	err := b.registerer().Register(c)
	if err == nil {
		return c, nil
	}

	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector, nil
	}

	return nil, err
}

func (b PrometheusMetricsBuilder) registerCounterVec(c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	col, err := b.register(c)
	if err != nil {
		return nil, err
	}
	return col.(*prometheus.CounterVec), nil
}

func (b PrometheusMetricsBuilder) registerCounter(c prometheus.Counter) (prometheus.Counter, error) {
	col, err := b.register(c)
	if err != nil {
		return nil, err
	}
	return col.(prometheus.Counter), nil
}

func (b PrometheusMetricsBuilder) registerHistogramVec(h *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	col, err := b.register(h)
	if err != nil {
		return nil, err
	}
	return col.(*prometheus.HistogramVec), nil
}
