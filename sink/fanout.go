package sink

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/ThreeDotsLabs/relay/snapshot"
)

// FanOut sends every snapshot to all wrapped sinks.
// A failing sink does not stop the others; errors are aggregated.
type FanOut struct {
	sinks []Sink
}

func NewFanOut(sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks}
}

func (f *FanOut) Send(ctx context.Context, s *snapshot.Snapshot) error {
	var result *multierror.Error

	for _, sink := range f.sinks {
		if err := sink.Send(ctx, s); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func (f *FanOut) Close() error {
	var result *multierror.Error

	for _, sink := range f.sinks {
		if err := sink.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
