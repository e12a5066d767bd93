package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ThreeDotsLabs/relay/pipeline"
)

var (
	stepLabelKeys = []string{
		labelKeyProcessName,
		labelKeyStepName,
		labelSuccess,
	}

	// stepExecutionTimeBuckets are one order of magnitude smaller than default buckets (5ms~10s),
	// because the step execution times are typically shorter (µs~ms range).
	stepExecutionTimeBuckets = []float64{
		0.0005,
		0.001,
		0.0025,
		0.005,
		0.01,
		0.025,
		0.05,
		0.1,
		0.25,
		0.5,
		1,
	}
)

// StepPrometheusMetricsMiddleware is a step middleware that captures Prometheus metrics.
type StepPrometheusMetricsMiddleware struct {
	stepExecutionTimeSeconds *prometheus.HistogramVec
}

// Middleware returns the middleware ready to be used with pipeline steps.
func (m StepPrometheusMetricsMiddleware) Middleware(h pipeline.StepFunc) pipeline.StepFunc {
	return func(sc *pipeline.ServiceContext) (err error) {
		now := time.Now()
		labels := labelsFromServiceContext(sc)

		defer func() {
			labels[labelSuccess] = successLabel(err)
			m.stepExecutionTimeSeconds.With(labels).Observe(time.Since(now).Seconds())
		}()

		return h(sc)
	}
}

// NewStepMiddleware returns new middleware.
func (b PrometheusMetricsBuilder) NewStepMiddleware() (StepPrometheusMetricsMiddleware, error) {
	var err error
	m := StepPrometheusMetricsMiddleware{}

	buckets := b.StepBuckets
	if buckets == nil {
		buckets = stepExecutionTimeBuckets
	}

	m.stepExecutionTimeSeconds, err = b.registerHistogramVec(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "step_execution_time_seconds",
			Help:      "The total time elapsed while executing the step function in seconds",
			Buckets:   buckets,
		},
		stepLabelKeys,
	))
	if err != nil {
		return StepPrometheusMetricsMiddleware{}, errors.Wrap(err, "could not register step execution time metric")
	}

	return m, nil
}
