package message

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedPart is returned when a part cannot be read.
var ErrMalformedPart = errors.New("malformed message part")

// Part is a single payload part of a message.
//
// Content is opaque, it is only ever rendered to its string form.
type Part struct {
	ContentID string
	Content   interface{}
}

// ContentString returns the string form of the part's content.
func (p Part) ContentString() string {
	switch c := p.Content.(type) {
	case string:
		return c
	case []byte:
		return string(c)
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprintf("%v", c)
	}
}

// Reader is the read-only view of an in-flight message.
type Reader interface {
	PartCount() int
	Part(i int) (Part, error)

	HeaderNames() ([]string, error)
	HeaderValue(name string) (interface{}, error)
	StringHeader(name string) (string, error)
}

// Message is an in-flight message processed by a pipeline step.
//
// It is owned by the host pipeline for the duration of a hop.
type Message struct {
	// UUID is an unique identifier of the message within the host pipeline.
	UUID string

	// Parts are ordered payload parts of the message.
	Parts []Part

	// Headers are sent with the message to every hop.
	// Lineage of the message is stored here.
	Headers Headers

	ctx context.Context
}

// NewMessage creates a new Message with given uuid and parts.
func NewMessage(uuid string, parts ...Part) *Message {
	return &Message{
		UUID:    uuid,
		Parts:   parts,
		Headers: make(Headers),
	}
}

// AddPart appends a part to the message.
func (m *Message) AddPart(contentID string, content interface{}) {
	m.Parts = append(m.Parts, Part{ContentID: contentID, Content: content})
}

func (m *Message) PartCount() int {
	return len(m.Parts)
}

// Part returns the part at index i.
// A part without content is malformed.
func (m *Message) Part(i int) (Part, error) {
	if i < 0 || i >= len(m.Parts) {
		return Part{}, errors.Errorf("part index %d out of range [0, %d)", i, len(m.Parts))
	}

	p := m.Parts[i]
	if p.Content == nil {
		return Part{}, errors.Wrapf(ErrMalformedPart, "part %d has no content", i)
	}

	return p, nil
}

// HeaderNames returns names of all headers in lexical order.
func (m *Message) HeaderNames() ([]string, error) {
	return m.Headers.Names(), nil
}

func (m *Message) HeaderValue(name string) (interface{}, error) {
	v, ok := m.Headers[name]
	if !ok {
		return nil, errors.Wrap(ErrHeaderNotFound, name)
	}

	return v, nil
}

func (m *Message) StringHeader(name string) (string, error) {
	return m.Headers.GetString(name)
}

func (m *Message) ContainsHeader(name string) bool {
	return m.Headers.Contains(name)
}

// Context returns the message's context. To change the context, use
// SetContext.
//
// The returned context is always non-nil; it defaults to the
// background context.
func (m *Message) Context() context.Context {
	if m.ctx != nil {
		return m.ctx
	}
	return context.Background()
}

// SetContext sets provided context to the message.
func (m *Message) SetContext(ctx context.Context) {
	m.ctx = ctx
}

// Copy copies the message with its parts and headers.
// Byte slice contents are cloned, other contents are copied by value.
// The context is not propagated to the copy.
func (m *Message) Copy() *Message {
	msg := &Message{
		UUID:    m.UUID,
		Parts:   make([]Part, len(m.Parts)),
		Headers: m.Headers.Copy(),
	}

	for i, p := range m.Parts {
		if b, ok := p.Content.([]byte); ok && b != nil {
			c := make([]byte, len(b))
			copy(c, b)
			p.Content = c
		}
		msg.Parts[i] = p
	}

	return msg
}

// Equals compare, that two messages are equal. Contexts are not compared.
func (m *Message) Equals(toCompare *Message) bool {
	if m.UUID != toCompare.UUID {
		return false
	}
	if len(m.Parts) != len(toCompare.Parts) || len(m.Headers) != len(toCompare.Headers) {
		return false
	}
	for i := range m.Parts {
		if m.Parts[i].ContentID != toCompare.Parts[i].ContentID ||
			m.Parts[i].ContentString() != toCompare.Parts[i].ContentString() {
			return false
		}
	}
	for key := range m.Headers {
		a, errA := m.Headers.GetString(key)
		b, errB := toCompare.Headers.GetString(key)
		if errA != nil || errB != nil || a != b {
			return false
		}
	}

	return true
}
