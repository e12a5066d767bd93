package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

var (
	sinkLabelKeys = []string{
		labelKeySinkName,
		labelSuccess,
	}
)

type SinkPrometheusMetricsDecorator struct {
	sink            sink.Sink
	sinkName        string
	sendTimeSeconds *prometheus.HistogramVec
}

// Send updates the send time metric and calls the wrapped sink's Send.
func (m SinkPrometheusMetricsDecorator) Send(ctx context.Context, s *snapshot.Snapshot) (err error) {
	if sendAlreadyObserved(ctx) {
		return m.sink.Send(ctx, s)
	}
	ctx = setSendObservedToCtx(ctx)

	start := time.Now()

	defer func() {
		m.sendTimeSeconds.With(prometheus.Labels{
			labelKeySinkName: m.sinkName,
			labelSuccess:     successLabel(err),
		}).Observe(time.Since(start).Seconds())
	}()

	return m.sink.Send(ctx, s)
}

func (m SinkPrometheusMetricsDecorator) Close() error {
	return m.sink.Close()
}
