package sink

import (
	"context"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/snapshot"
)

// Logger writes every snapshot as a log entry.
// It's useful as a transport for development, or as a part of FanOut.
type Logger struct {
	logger relay.LoggerAdapter
}

func NewLogger(logger relay.LoggerAdapter) *Logger {
	if logger == nil {
		logger = relay.NopLogger{}
	}

	return &Logger{logger: logger}
}

func (l *Logger) Send(_ context.Context, s *snapshot.Snapshot) error {
	if s == nil {
		return nil
	}

	l.logger.Info("Snapshot captured", relay.LogFields{
		"snapshot_id":    s.ID,
		"correlation_id": s.CorrelationID,
		"parent_id":      s.ParentID,
		"order":          s.Order,
		"location":       s.Location,
		"parts":          len(s.Parts),
		"headers":        len(s.Headers),
		"captured_at":    s.CapturedAt,
	})

	return nil
}

func (l *Logger) Close() error {
	return nil
}
