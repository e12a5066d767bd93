package sink

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

type RetryConfig struct {
	// MaxRetries is maximum number of times a retry will be attempted.
	// Defaults to 3.
	MaxRetries int

	// InitialInterval is the first interval between retries. Subsequent intervals will be scaled by Multiplier.
	// Defaults to 100ms.
	InitialInterval time.Duration
	// MaxInterval sets the limit for the exponential backoff of retries.
	// Defaults to 5s.
	MaxInterval time.Duration
	// Multiplier is the factor by which the waiting interval will be multiplied between retries.
	// Defaults to 2.
	Multiplier float64
	// MaxElapsedTime sets the time limit of how long retries will be attempted. Disabled if 0.
	MaxElapsedTime time.Duration
}

func (c *RetryConfig) setDefaults() {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialInterval == 0 {
		c.InitialInterval = time.Millisecond * 100
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = time.Second * 5
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2
	}
}

func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("MaxRetries must be positive")
	}
	if c.InitialInterval < 0 || c.MaxInterval < 0 {
		return errors.New("retry intervals must be positive")
	}

	return nil
}

// Retry retries sends of the wrapped sink with an exponential backoff.
//
// Retry blocks until the snapshot is sent or retries are exhausted,
// so it should be used behind Async to keep the pipeline unaffected.
type Retry struct {
	wrapped Sink
	config  RetryConfig
	logger  relay.LoggerAdapter
}

func NewRetry(wrapped Sink, config RetryConfig, logger relay.LoggerAdapter) (*Retry, error) {
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

	return &Retry{
		wrapped: wrapped,
		config:  config,
		logger:  logger,
	}, nil
}

func (r *Retry) Send(ctx context.Context, s *snapshot.Snapshot) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = r.config.InitialInterval
	expBackoff.MaxInterval = r.config.MaxInterval
	expBackoff.Multiplier = r.config.Multiplier
	expBackoff.MaxElapsedTime = r.config.MaxElapsedTime
	expBackoff.Reset()

	retryNum := 0
	err := backoff.RetryNotify(
		func() error {
			return r.wrapped.Send(ctx, s)
		},
		backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(r.config.MaxRetries)), ctx),
		func(err error, wait time.Duration) {
			retryNum++
			r.logger.Info("Cannot send snapshot, retrying", relay.LogFields{
				"snapshot_id":   s.ID,
				"retry_no":      retryNum,
				"max_retries":   r.config.MaxRetries,
				"wait_time":     wait,
				"error_message": err.Error(),
			})
		},
	)
	if err != nil {
		var sendErr *SendError
		if errors.As(err, &sendErr) {
			return err
		}
		return NewSendError("retry", s, err)
	}

	return nil
}

func (r *Retry) Close() error {
	return r.wrapped.Close()
}
