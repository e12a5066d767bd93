package snapshot

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/message"
)

const defaultPartLabelPrefix = "PART_"

// ConversionError is returned when a message cannot be read into a snapshot.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert message to snapshot: %s", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func (e *ConversionError) Cause() error {
	return e.Err
}

// Converter turns an in-flight message into a snapshot.
type Converter interface {
	Convert(msg message.Reader) (*Snapshot, error)
}

type ConverterConfig struct {
	// GenerateID generates ids of snapshots.
	// Defaults to relay.NewULID.
	GenerateID func() string

	// Now is the clock used for CapturedAt.
	// Defaults to time.Now.
	Now func() time.Time
}

func (c *ConverterConfig) setDefaults() {
	if c.GenerateID == nil {
		c.GenerateID = relay.NewULID
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// MessageConverter is the default Converter.
// Lineage fields of the returned snapshot are left empty, they are filled by the caller.
type MessageConverter struct {
	config ConverterConfig
}

func NewConverter(config ConverterConfig) *MessageConverter {
	config.setDefaults()

	return &MessageConverter{config: config}
}

// Convert captures parts and headers of the message.
// Parts without a content id are labeled "PART_<index>".
// Destination headers are stored in their string form.
func (c *MessageConverter) Convert(msg message.Reader) (*Snapshot, error) {
	if msg == nil {
		return nil, &ConversionError{Err: errors.New("nil message")}
	}

	s := &Snapshot{
		ID:      c.config.GenerateID(),
		Parts:   make([]Part, 0, msg.PartCount()),
		Headers: map[string]string{},
	}

	for i := 0; i < msg.PartCount(); i++ {
		p, err := msg.Part(i)
		if err != nil {
			return nil, &ConversionError{Err: errors.Wrapf(err, "cannot read part %d", i)}
		}

		label := p.ContentID
		if label == "" {
			label = defaultPartLabelPrefix + strconv.Itoa(i)
		}

		s.Parts = append(s.Parts, Part{Label: label, Content: p.ContentString()})
	}

	names, err := msg.HeaderNames()
	if err != nil {
		return nil, &ConversionError{Err: errors.Wrap(err, "cannot enumerate headers")}
	}

	for _, name := range names {
		if name == "" {
			continue
		}

		value, err := headerString(msg, name)
		if err != nil {
			return nil, &ConversionError{Err: errors.Wrapf(err, "cannot read header %s", name)}
		}

		s.Headers[name] = value
	}

	s.CapturedAt = c.config.Now()

	return s, nil
}

func headerString(msg message.Reader, name string) (string, error) {
	raw, err := msg.HeaderValue(name)
	if err != nil {
		return "", err
	}

	if d, ok := raw.(message.Destination); ok {
		return d.String(), nil
	}

	return msg.StringHeader(name)
}
