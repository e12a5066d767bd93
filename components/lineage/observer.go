package lineage

import (
	"time"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

// Outcome classifies the result of tagging a hop.
type Outcome string

const (
	OutcomeTagged             Outcome = "tagged"
	OutcomeTaggedWithFallback Outcome = "tagged_with_fallback"
	OutcomeNoMessage          Outcome = "no_message"
	OutcomeConversionFailed   Outcome = "conversion_failed"
	OutcomeSinkFailed         Outcome = "sink_failed"
	OutcomePanic              Outcome = "panic"
	OutcomeFailed             Outcome = "failed"
)

// Observer is notified about the outcome of tagging and propagation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveTagging(outcome Outcome, duration time.Duration)
	ObservePropagation(stamped int)
}

type NopObserver struct{}

func (NopObserver) ObserveTagging(Outcome, time.Duration) {}
func (NopObserver) ObservePropagation(int)                {}

// OutcomeOf classifies the result of Interceptor.Tag.
func OutcomeOf(result TagResult, err error) Outcome {
	if err == nil {
		if result.Fallback != nil {
			return OutcomeTaggedWithFallback
		}
		return OutcomeTagged
	}

	var panicErr RecoveredPanicError
	var convErr *snapshot.ConversionError
	var sendErr *sink.SendError

	switch {
	case errors.As(err, &panicErr):
		return OutcomePanic
	case errors.Is(err, ErrNoMessage), errors.Is(err, ErrNoServiceContext):
		return OutcomeNoMessage
	case errors.As(err, &convErr):
		return OutcomeConversionFailed
	case errors.As(err, &sendErr):
		return OutcomeSinkFailed
	default:
		return OutcomeFailed
	}
}
