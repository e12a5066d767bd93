package sink

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

// ErrClosed is returned when a snapshot is sent to a closed sink.
var ErrClosed = errors.New("sink closed")

// Memory is the simplest Sink: it keeps all snapshots in memory (a simple slice).
//
// Be aware that with large amount of snapshots you can go out of the memory,
// Memory is mostly useful for tests and replays.
type Memory struct {
	logger relay.LoggerAdapter

	snapshots     []*snapshot.Snapshot
	snapshotsLock sync.RWMutex

	closed bool
}

func NewMemory(logger relay.LoggerAdapter) *Memory {
	if logger == nil {
		logger = relay.NopLogger{}
	}

	return &Memory{
		logger: logger.With(relay.LogFields{"sink_uuid": relay.NewShortUUID()}),
	}
}

func (m *Memory) Send(_ context.Context, s *snapshot.Snapshot) error {
	if s == nil {
		return NewSendError("memory", s, errors.New("nil snapshot"))
	}

	m.snapshotsLock.Lock()
	defer m.snapshotsLock.Unlock()

	if m.closed {
		return NewSendError("memory", s, ErrClosed)
	}

	m.snapshots = append(m.snapshots, s)
	m.logger.Trace("Snapshot stored", relay.LogFields{
		"snapshot_id":    s.ID,
		"correlation_id": s.CorrelationID,
	})

	return nil
}

// Snapshots returns all stored snapshots in the order of arrival.
func (m *Memory) Snapshots() []*snapshot.Snapshot {
	m.snapshotsLock.RLock()
	defer m.snapshotsLock.RUnlock()

	return append([]*snapshot.Snapshot(nil), m.snapshots...)
}

// Len returns the number of stored snapshots.
func (m *Memory) Len() int {
	m.snapshotsLock.RLock()
	defer m.snapshotsLock.RUnlock()

	return len(m.snapshots)
}

// ByCorrelationID returns stored snapshots of one transaction in the order of arrival.
func (m *Memory) ByCorrelationID(correlationID string) []*snapshot.Snapshot {
	m.snapshotsLock.RLock()
	defer m.snapshotsLock.RUnlock()

	var found []*snapshot.Snapshot
	for _, s := range m.snapshots {
		if s.CorrelationID == correlationID {
			found = append(found, s)
		}
	}

	return found
}

// Chain returns stored snapshots of one transaction ordered by their parent links.
func (m *Memory) Chain(correlationID string) ([]*snapshot.Snapshot, error) {
	return snapshot.Chain(m.ByCorrelationID(correlationID))
}

func (m *Memory) Close() error {
	m.snapshotsLock.Lock()
	defer m.snapshotsLock.Unlock()

	m.closed = true

	return nil
}
