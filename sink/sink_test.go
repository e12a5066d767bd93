package sink_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

func newSnapshot(id, parentID string) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		ID:            id,
		ParentID:      parentID,
		CorrelationID: "tx-1",
		Headers:       map[string]string{},
		CapturedAt:    time.Now(),
	}
}

// flakySink fails the first failures sends.
type flakySink struct {
	lock     sync.Mutex
	failures int
	calls    int
	closed   bool
}

func (f *flakySink) Send(ctx context.Context, s *snapshot.Snapshot) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return errors.New("transport unavailable")
	}

	return nil
}

func (f *flakySink) Close() error {
	f.closed = true
	return nil
}

func (f *flakySink) Calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.calls
}

func TestMemory(t *testing.T) {
	m := sink.NewMemory(nil)

	require.NoError(t, m.Send(context.Background(), newSnapshot("b", "a")))
	require.NoError(t, m.Send(context.Background(), newSnapshot("a", "")))
	require.NoError(t, m.Send(context.Background(), &snapshot.Snapshot{ID: "x", CorrelationID: "tx-2"}))

	assert.Equal(t, 3, m.Len())
	assert.Len(t, m.ByCorrelationID("tx-1"), 2)

	chain, err := m.Chain("tx-1")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "a", chain[0].ID)
	assert.Equal(t, "b", chain[1].ID)

	_, err = m.Chain("unknown")
	assert.Equal(t, snapshot.ErrEmptyChain, err)

	require.NoError(t, m.Close())

	err = m.Send(context.Background(), newSnapshot("c", "b"))
	var sendErr *sink.SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "c", sendErr.SnapshotID)
	assert.True(t, errors.Is(err, sink.ErrClosed))
}

func TestSendFunc(t *testing.T) {
	var received *snapshot.Snapshot
	s := sink.SendFunc(func(ctx context.Context, snap *snapshot.Snapshot) error {
		received = snap
		return nil
	})

	snap := newSnapshot("a", "")
	require.NoError(t, s.Send(context.Background(), snap))
	assert.Equal(t, snap, received)
	assert.NoError(t, s.Close())
}

func TestLogger(t *testing.T) {
	logger := relay.NewCaptureLogger()
	s := sink.NewLogger(logger)

	require.NoError(t, s.Send(context.Background(), newSnapshot("a", "")))

	infos := logger.Captured()[relay.InfoLogLevel]
	require.Len(t, infos, 1)
	assert.Equal(t, "Snapshot captured", infos[0].Msg)
	assert.Equal(t, "a", infos[0].Fields["snapshot_id"])
	assert.Equal(t, "tx-1", infos[0].Fields["correlation_id"])
}

func TestFanOut(t *testing.T) {
	memory := sink.NewMemory(nil)
	failing := sink.SendFunc(func(ctx context.Context, s *snapshot.Snapshot) error {
		return errors.New("down")
	})

	f := sink.NewFanOut(failing, memory)

	err := f.Send(context.Background(), newSnapshot("a", ""))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Equal(t, 1, memory.Len(), "a failing sink must not stop the others")

	assert.NoError(t, f.Close())
	assert.NoError(t, sink.NewFanOut(memory).Close())
}

func TestRetry(t *testing.T) {
	flaky := &flakySink{failures: 2}

	r, err := sink.NewRetry(flaky, sink.RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond * 5,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, r.Send(context.Background(), newSnapshot("a", "")))
	assert.Equal(t, 3, flaky.Calls())

	require.NoError(t, r.Close())
	assert.True(t, flaky.closed)
}

func TestRetry_exhausted(t *testing.T) {
	flaky := &flakySink{failures: 100}

	r, err := sink.NewRetry(flaky, sink.RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
	}, relay.NewCaptureLogger())
	require.NoError(t, err)

	err = r.Send(context.Background(), newSnapshot("a", ""))

	var sendErr *sink.SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, "a", sendErr.SnapshotID)
	assert.Equal(t, 3, flaky.Calls())
}

func TestRetry_invalid_config(t *testing.T) {
	_, err := sink.NewRetry(sink.NewMemory(nil), sink.RetryConfig{MaxRetries: -1}, nil)
	assert.Error(t, err)

	_, err = sink.NewRetry(nil, sink.RetryConfig{}, nil)
	assert.Error(t, err)
}
