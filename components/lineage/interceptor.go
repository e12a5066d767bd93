package lineage

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/message"
	"github.com/ThreeDotsLabs/relay/pipeline"
	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

// TagResult is the result of tagging a single hop.
type TagResult struct {
	Lineage Lineage

	// Snapshot is the snapshot handed off to the sink.
	// It is owned by the sink and must be treated as read-only.
	Snapshot *snapshot.Snapshot

	// Fallback is set when the lineage headers of the incoming message were malformed
	// and the hop started a new chain.
	Fallback error
}

// Interceptor tags every hop of a message with its lineage and sends a snapshot of the message to a sink.
//
// Tagging is a side channel: failures are logged and never change the outcome of the step.
// Interceptor holds no state between invocations, lineage lives in the message headers
// and in the in-flight properties of the process.
type Interceptor struct {
	sink      sink.Sink
	resolver  *Resolver
	converter snapshot.Converter
	observer  Observer

	config Config
	logger relay.LoggerAdapter
}

func NewInterceptor(s sink.Sink, config Config, logger relay.LoggerAdapter) (*Interceptor, error) {
	if s == nil {
		return nil, errors.New("missing sink")
	}

	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	if logger == nil {
		logger = relay.NopLogger{}
	}

	return &Interceptor{
		sink:      s,
		resolver:  NewResolver(config.Resolver),
		converter: config.Converter,
		observer:  config.Observer,
		config:    config,
		logger:    logger,
	}, nil
}

// Middleware decorates the step with the interceptor.
func (i *Interceptor) Middleware(h pipeline.StepFunc) pipeline.StepFunc {
	return pipeline.InterceptorMiddleware(i)(h)
}

// OnBeforeStep tags the first incoming message of the hop.
func (i *Interceptor) OnBeforeStep(sc *pipeline.ServiceContext) {
	start := time.Now()

	result, err := i.Tag(sc)

	i.observer.ObserveTagging(OutcomeOf(result, err), time.Since(start))

	logFields := relay.LogFields{
		"correlation_id": result.Lineage.CorrelationID,
		"order":          result.Lineage.Order,
		"parent_id":      result.Lineage.ParentID,
	}
	if sc != nil {
		logFields["service_name"] = sc.Parameters().Parameter(pipeline.ParamServiceName)
	}

	if result.Fallback != nil {
		i.logger.Error("Malformed lineage headers, starting a new chain", result.Fallback, logFields)
	}
	if err != nil {
		i.logger.Error("Cannot tag message", err, logFields)
		return
	}

	i.logger.Trace("Message tagged", logFields.Add(relay.LogFields{"snapshot_id": result.Snapshot.ID}))
}

// OnAfterStep propagates the correlation id to messages leaving the pipeline.
// The step error is not inspected, propagation runs for failed steps too.
func (i *Interceptor) OnAfterStep(sc *pipeline.ServiceContext, stepErr error) {
	stamped, err := i.Propagate(sc)

	i.observer.ObservePropagation(stamped)

	if err != nil {
		i.logger.Error("Cannot propagate correlation id", err, nil)
		return
	}

	if stamped > 0 {
		i.logger.Trace("Correlation id propagated", relay.LogFields{"stamped": stamped})
	}
}

// Tag resolves the lineage of the hop, converts the first incoming message into a snapshot
// and hands the snapshot off to the sink.
//
// Lineage headers for the next hop are written to the message before the sink is called.
// Tag never panics, a recovered panic is returned as RecoveredPanicError.
func (i *Interceptor) Tag(sc *pipeline.ServiceContext) (result TagResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WithStack(RecoveredPanicError{V: r, Stacktrace: string(debug.Stack())})
		}
	}()

	if sc == nil {
		return result, ErrNoServiceContext
	}

	// the incoming cursor of the step is left untouched
	incoming := sc.Incoming()
	if len(incoming) == 0 || incoming[0] == nil || incoming[0].Message == nil {
		return result, ErrNoMessage
	}
	msg := incoming[0].Message

	l, resolveErr := i.resolver.Resolve(sc, msg)
	result.Lineage = l
	result.Fallback = resolveErr

	snap, convErr := i.converter.Convert(msg)

	snapshotID := ""
	if convErr == nil {
		snapshotID = snap.ID
	}

	if err := i.resolver.Propagate(sc, msg, l, snapshotID); err != nil {
		return result, errors.Wrap(err, "cannot propagate lineage")
	}

	if convErr != nil {
		return result, convErr
	}

	snap.CorrelationID = l.CorrelationID
	snap.Order = l.Order
	snap.ParentID = l.ParentID
	snap.Location = FormatLocation(sc.Parameters(), i.config.LocationSeparator)
	snap.Headers[ESBTypeHeader] = i.config.PipelineType

	// pipeline cancellation is not propagated into tagging
	ctx, cancel := context.WithTimeout(context.Background(), i.config.SendTimeout)
	defer cancel()

	if err := i.send(ctx, snap); err != nil {
		var sendErr *sink.SendError
		if !errors.As(err, &sendErr) {
			err = sink.NewSendError("lineage", snap, err)
		}
		return result, err
	}

	result.Snapshot = snap

	return result, nil
}

// send runs the hand-off in its own goroutine, so a sink which does not watch ctx
// cannot hold the step for longer than the send timeout.
// The snapshot is owned by the sink, a late send completes in the background.
func (i *Interceptor) send(ctx context.Context, snap *snapshot.Snapshot) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.WithStack(RecoveredPanicError{V: r, Stacktrace: string(debug.Stack())})
			}
		}()

		done <- i.sink.Send(ctx, snap)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sink did not return in time")
	}
}

// Propagate stamps the correlation id of the process onto every outgoing envelope
// when the step routes its output to an external endpoint or a reply destination.
// Envelopes with explicit external addresses are stamped even if process addresses are internal.
//
// It returns the number of stamped envelopes.
func (i *Interceptor) Propagate(sc *pipeline.ServiceContext) (stamped int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WithStack(RecoveredPanicError{V: r, Stacktrace: string(debug.Stack())})
		}
	}()

	if sc == nil {
		return 0, ErrNoServiceContext
	}

	correlationID, ok := i.resolver.CorrelationID(sc)
	if !ok {
		return 0, nil
	}

	externalRoute := false
	for _, address := range sc.ProcessContext().NextAddresses() {
		if address.External() {
			externalRoute = true
			break
		}
	}

	for _, env := range sc.Outgoing() {
		if env == nil || env.Message == nil {
			continue
		}
		if !externalRoute && !hasExternalAddress(env) {
			continue
		}

		if env.Message.Headers == nil {
			env.Message.Headers = message.Headers{}
		}
		env.Message.Headers.SetString(CorrelationIDHeader, correlationID)
		stamped++
	}

	return stamped, nil
}

func hasExternalAddress(env *pipeline.Envelope) bool {
	for _, address := range env.Addresses {
		if address.External() {
			return true
		}
	}

	return false
}
