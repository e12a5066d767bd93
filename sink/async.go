package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	internalSync "github.com/ThreeDotsLabs/relay/internal/sync"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

type AsyncConfig struct {
	// Workers is the maximum number of snapshots sent concurrently.
	// When all workers are busy, new snapshots are dropped.
	// Defaults to 16.
	Workers int

	// SendTimeout bounds a single send of the wrapped sink.
	// Defaults to 10 seconds.
	SendTimeout time.Duration

	// CloseTimeout determines how long Close waits for in-flight sends.
	// Defaults to 30 seconds.
	CloseTimeout time.Duration
}

func (c *AsyncConfig) setDefaults() {
	if c.Workers == 0 {
		c.Workers = 16
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = time.Second * 10
	}
	if c.CloseTimeout == 0 {
		c.CloseTimeout = time.Second * 30
	}
}

func (c AsyncConfig) Validate() error {
	if c.Workers < 0 {
		return errors.New("Workers must be positive")
	}
	if c.SendTimeout < 0 {
		return errors.New("SendTimeout must be positive")
	}

	return nil
}

// Async hands snapshots off to a bounded pool of workers and returns immediately.
//
// A slow or unavailable wrapped sink never blocks the caller: when the pool is saturated,
// Send returns a SendError and the snapshot is dropped.
// Failures of the wrapped sink are logged by the worker.
type Async struct {
	wrapped Sink
	pool    *ants.Pool

	config AsyncConfig
	logger relay.LoggerAdapter

	sendsWg    sync.WaitGroup
	closed     bool
	closedLock sync.RWMutex
}

func NewAsync(wrapped Sink, config AsyncConfig, logger relay.LoggerAdapter) (*Async, error) {
	if wrapped == nil {
		return nil, errors.New("missing wrapped sink")
	}

	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	if logger == nil {
		logger = relay.NopLogger{}
	}
	logger = logger.With(relay.LogFields{"sink_uuid": relay.NewShortUUID()})

	pool, err := ants.NewPool(
		config.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("Panic recovered in async sink worker", fmt.Errorf("%v", p), nil)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create worker pool")
	}

	return &Async{
		wrapped: wrapped,
		pool:    pool,
		config:  config,
		logger:  logger,
	}, nil
}

// Send schedules the snapshot to be sent by the wrapped sink.
// The context is not propagated to the worker: the send outlives the caller
// and is bounded only by SendTimeout.
func (a *Async) Send(_ context.Context, s *snapshot.Snapshot) error {
	a.closedLock.RLock()
	defer a.closedLock.RUnlock()

	if a.closed {
		return NewSendError("async", s, ErrClosed)
	}

	a.sendsWg.Add(1)
	err := a.pool.Submit(func() {
		defer a.sendsWg.Done()
		a.send(s)
	})
	if err != nil {
		a.sendsWg.Done()

		if errors.Is(err, ants.ErrPoolOverload) {
			a.logger.Info("Async sink is saturated, dropping snapshot", relay.LogFields{"snapshot_id": s.ID})
		}
		return NewSendError("async", s, err)
	}

	return nil
}

func (a *Async) send(s *snapshot.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.SendTimeout)
	defer cancel()

	if err := a.wrapped.Send(ctx, s); err != nil {
		a.logger.Error("Cannot send snapshot", err, relay.LogFields{
			"snapshot_id":    s.ID,
			"correlation_id": s.CorrelationID,
		})
	}
}

// Running returns the number of sends in progress.
func (a *Async) Running() int {
	return a.pool.Running()
}

// Close stops accepting snapshots, waits for in-flight sends and closes the wrapped sink.
func (a *Async) Close() error {
	a.closedLock.Lock()
	if a.closed {
		a.closedLock.Unlock()
		return nil
	}
	a.closed = true
	a.closedLock.Unlock()

	var result *multierror.Error

	if timedOut := internalSync.WaitGroupTimeout(&a.sendsWg, a.config.CloseTimeout); timedOut {
		result = multierror.Append(result, errors.New("async sink close timed out"))
	}

	a.pool.Release()

	if err := a.wrapped.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "cannot close wrapped sink"))
	}

	return result.ErrorOrNil()
}
