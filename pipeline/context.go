package pipeline

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNoIncoming is returned when a service context carries no incoming envelope.
var ErrNoIncoming = errors.New("no incoming envelope")

// Properties are string properties shared by all steps of one process run.
type Properties map[string]string

func (p Properties) Property(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

func (p Properties) SetProperty(key, value string) {
	p[key] = value
}

func (p Properties) Contains(key string) bool {
	_, ok := p[key]
	return ok
}

// ProcessContext is the state of one process run.
// It outlives a single step, in-flight properties are visible to all following steps.
type ProcessContext struct {
	name string

	inflight      Properties
	nextAddresses []Address
}

func NewProcessContext(name string) *ProcessContext {
	return &ProcessContext{
		name:     name,
		inflight: make(Properties),
	}
}

func (p *ProcessContext) Name() string {
	return p.name
}

// InflightProperties returns properties of the running process.
func (p *ProcessContext) InflightProperties() Properties {
	return p.inflight
}

// NextAddresses returns addresses to which the outgoing envelopes of the current step are routed.
func (p *ProcessContext) NextAddresses() []Address {
	return append([]Address(nil), p.nextAddresses...)
}

// AddNextAddress adds routing addresses for the outgoing envelopes of the current step.
func (p *ProcessContext) AddNextAddress(addresses ...Address) {
	p.nextAddresses = append(p.nextAddresses, addresses...)
}

func (p *ProcessContext) resetNextAddresses() {
	p.nextAddresses = nil
}

// ServiceContext is passed to a step on every invocation.
// It is valid only for the duration of the hop.
type ServiceContext struct {
	ctx context.Context

	params  Parameters
	process *ProcessContext

	incoming       []*Envelope
	incomingCursor int

	outgoing []*Envelope
}

func NewServiceContext(ctx context.Context, params Parameters, process *ProcessContext, incoming ...*Envelope) *ServiceContext {
	if params == nil {
		params = Parameters{}
	}
	if process == nil {
		process = NewProcessContext("")
	}

	return &ServiceContext{
		ctx:      ctx,
		params:   params,
		process:  process,
		incoming: incoming,
	}
}

// Context returns the context of the hop.
// The returned context is always non-nil; it defaults to the background context.
func (s *ServiceContext) Context() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}

// SetContext replaces the context of the hop.
func (s *ServiceContext) SetContext(ctx context.Context) {
	s.ctx = ctx
}

func (s *ServiceContext) Parameters() Parameters {
	return s.params
}

func (s *ServiceContext) ProcessContext() *ProcessContext {
	return s.process
}

// FirstIncoming returns the first incoming envelope and rewinds the incoming cursor just after it.
func (s *ServiceContext) FirstIncoming() (*Envelope, error) {
	if len(s.incoming) == 0 {
		return nil, ErrNoIncoming
	}

	s.incomingCursor = 1
	return s.incoming[0], nil
}

func (s *ServiceContext) HasNextIncoming() bool {
	return s.incomingCursor < len(s.incoming)
}

// NextIncoming returns the next incoming envelope.
func (s *ServiceContext) NextIncoming() (*Envelope, error) {
	if !s.HasNextIncoming() {
		return nil, ErrNoIncoming
	}

	env := s.incoming[s.incomingCursor]
	s.incomingCursor++

	return env, nil
}

// Incoming returns all incoming envelopes without moving the cursor.
func (s *ServiceContext) Incoming() []*Envelope {
	return append([]*Envelope(nil), s.incoming...)
}

// AddOutgoing queues an envelope to be sent after the step returns.
func (s *ServiceContext) AddOutgoing(envelopes ...*Envelope) {
	s.outgoing = append(s.outgoing, envelopes...)
}

// Outgoing returns envelopes queued by the step.
func (s *ServiceContext) Outgoing() []*Envelope {
	return append([]*Envelope(nil), s.outgoing...)
}
