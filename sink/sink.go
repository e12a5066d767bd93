// Package sink contains transports which take ownership of finished snapshots.
//
// A Sink is called from the tagging side channel of a pipeline step.
// Delivery guarantees, retries and serialization are the concern of each Sink,
// failures must never be propagated back into the pipeline.
package sink

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/relay/snapshot"
)

// Sink accepts one finished snapshot per call.
type Sink interface {
	// Send hands off the snapshot. After Send is called the snapshot is owned by the sink
	// and must not be modified by the caller.
	Send(ctx context.Context, s *snapshot.Snapshot) error
	Close() error
}

// SendError is returned when a snapshot could not be delivered.
type SendError struct {
	SnapshotID string
	Sink       string
	Err        error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sink %s cannot send snapshot %s: %s", e.Sink, e.SnapshotID, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func (e *SendError) Cause() error {
	return e.Err
}

// NewSendError wraps err as a SendError of the named sink.
func NewSendError(sinkName string, s *snapshot.Snapshot, err error) *SendError {
	id := ""
	if s != nil {
		id = s.ID
	}

	return &SendError{SnapshotID: id, Sink: sinkName, Err: err}
}

// SendFunc adapts a function to the Sink interface.
type SendFunc func(ctx context.Context, s *snapshot.Snapshot) error

func (f SendFunc) Send(ctx context.Context, s *snapshot.Snapshot) error {
	return f(ctx, s)
}

func (f SendFunc) Close() error {
	return nil
}
