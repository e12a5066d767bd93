package sink_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/sink"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

func TestAsync(t *testing.T) {
	memory := sink.NewMemory(nil)

	a, err := sink.NewAsync(memory, sink.AsyncConfig{Workers: 4}, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Send(context.Background(), newSnapshot(relay.NewULID(), "")))
	}

	require.NoError(t, a.Close())
	assert.Equal(t, 10, memory.Len(), "Close must wait for in-flight sends")

	err = a.Send(context.Background(), newSnapshot("late", ""))
	assert.True(t, errors.Is(err, sink.ErrClosed))
	assert.NoError(t, a.Close())
}

func TestAsync_does_not_block_on_slow_sink(t *testing.T) {
	release := make(chan struct{})
	slow := sink.SendFunc(func(ctx context.Context, s *snapshot.Snapshot) error {
		<-release
		return nil
	})

	a, err := sink.NewAsync(slow, sink.AsyncConfig{Workers: 1}, nil)
	require.NoError(t, err)

	require.NoError(t, a.Send(context.Background(), newSnapshot("a", "")))

	require.Eventually(t, func() bool { return a.Running() == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	err = a.Send(context.Background(), newSnapshot("b", ""))
	assert.Less(t, int64(time.Since(start)), int64(time.Millisecond*100), "Send must not wait for a free worker")

	var sendErr *sink.SendError
	assert.True(t, errors.As(err, &sendErr), "saturated pool drops the snapshot")

	close(release)
	require.NoError(t, a.Close())
}

func TestAsync_wrapped_failure_is_logged(t *testing.T) {
	logger := relay.NewCaptureLogger()
	failing := sink.SendFunc(func(ctx context.Context, s *snapshot.Snapshot) error {
		return errors.New("broker down")
	})

	a, err := sink.NewAsync(failing, sink.AsyncConfig{}, logger)
	require.NoError(t, err)

	assert.NoError(t, a.Send(context.Background(), newSnapshot("a", "")))
	require.NoError(t, a.Close())

	assert.True(t, logger.HasError("Cannot send snapshot"))
}

func TestAsync_send_is_detached_from_caller_context(t *testing.T) {
	memory := sink.NewMemory(nil)
	var workerCtxErr error

	wrapped := sink.SendFunc(func(ctx context.Context, s *snapshot.Snapshot) error {
		time.Sleep(time.Millisecond * 20)
		workerCtxErr = ctx.Err()
		return memory.Send(ctx, s)
	})

	a, err := sink.NewAsync(wrapped, sink.AsyncConfig{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Send(ctx, newSnapshot("a", "")))
	cancel()

	require.NoError(t, a.Close())
	assert.NoError(t, workerCtxErr)
	assert.Equal(t, 1, memory.Len())
}

func TestNewAsync_invalid(t *testing.T) {
	_, err := sink.NewAsync(nil, sink.AsyncConfig{}, nil)
	assert.Error(t, err)

	_, err = sink.NewAsync(sink.NewMemory(nil), sink.AsyncConfig{Workers: -1}, nil)
	assert.Error(t, err)
}
