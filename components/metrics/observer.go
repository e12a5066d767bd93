package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ThreeDotsLabs/relay/components/lineage"
)

// LineageObserver counts outcomes of tagging and the number of envelopes stamped with a correlation id.
type LineageObserver struct {
	taggingTotal       *prometheus.CounterVec
	taggingTimeSeconds *prometheus.HistogramVec
	propagatedTotal    prometheus.Counter
}

func (o LineageObserver) ObserveTagging(outcome lineage.Outcome, duration time.Duration) {
	labels := prometheus.Labels{labelKeyOutcome: string(outcome)}

	o.taggingTotal.With(labels).Inc()
	o.taggingTimeSeconds.With(labels).Observe(duration.Seconds())
}

func (o LineageObserver) ObservePropagation(stamped int) {
	if stamped <= 0 {
		return
	}
	o.propagatedTotal.Add(float64(stamped))
}

// NewLineageObserver returns an observer to be set as lineage.Config.Observer.
func (b PrometheusMetricsBuilder) NewLineageObserver() (LineageObserver, error) {
	var err error
	o := LineageObserver{}

	o.taggingTotal, err = b.registerCounterVec(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "lineage_tagging_total",
			Help:      "The total number of tagged hops by outcome",
		},
		[]string{labelKeyOutcome},
	))
	if err != nil {
		return LineageObserver{}, errors.Wrap(err, "could not register tagging metric")
	}

	o.taggingTimeSeconds, err = b.registerHistogramVec(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "lineage_tagging_time_seconds",
			Help:      "The time that tagging of a hop took in seconds, including the hand-off to the sink",
			Buckets:   stepExecutionTimeBuckets,
		},
		[]string{labelKeyOutcome},
	))
	if err != nil {
		return LineageObserver{}, errors.Wrap(err, "could not register tagging time metric")
	}

	o.propagatedTotal, err = b.registerCounter(prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "lineage_propagated_total",
			Help:      "The total number of outgoing messages stamped with the correlation id",
		},
	))
	if err != nil {
		return LineageObserver{}, errors.Wrap(err, "could not register propagation metric")
	}

	return o, nil
}
