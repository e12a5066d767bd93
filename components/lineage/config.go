package lineage

import (
	"time"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay/snapshot"
)

type Config struct {
	// PipelineType is stored in the ESBTypeHeader of every snapshot.
	// Defaults to "esb".
	PipelineType string

	// LocationSeparator separates segments of the snapshot location.
	// Defaults to DefaultLocationSeparator.
	LocationSeparator string

	// SendTimeout bounds the time the step waits for a single hand-off to the sink.
	// Sinks ignoring the context are abandoned after it elapses.
	// Defaults to 5 seconds.
	SendTimeout time.Duration

	// Resolver configures the lineage resolution.
	Resolver ResolverConfig

	// Converter converts incoming messages into snapshots.
	// Defaults to snapshot.NewConverter with the default config.
	Converter snapshot.Converter

	// Observer is notified about the outcome of every tagging and propagation.
	Observer Observer
}

func (c *Config) setDefaults() {
	if c.PipelineType == "" {
		c.PipelineType = "esb"
	}
	if c.LocationSeparator == "" {
		c.LocationSeparator = DefaultLocationSeparator
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = time.Second * 5
	}
	if c.Converter == nil {
		c.Converter = snapshot.NewConverter(snapshot.ConverterConfig{})
	}
	if c.Observer == nil {
		c.Observer = NopObserver{}
	}
}

func (c Config) Validate() error {
	if c.SendTimeout < 0 {
		return errors.New("SendTimeout must be positive")
	}

	return nil
}
