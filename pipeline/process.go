package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/message"
)

type ProcessConfig struct {
	// Name is the name of the process, exposed to steps as ParamProcessName.
	Name string

	DomainName       string
	ContainerName    string
	ESBContainerName string

	// Exit are the addresses to which the outgoing envelopes of the last step are routed.
	// Defaults to a single reply-to address.
	Exit []Address
}

func (c *ProcessConfig) setDefaults() {
	if len(c.Exit) == 0 {
		c.Exit = []Address{{Name: c.Name + ".reply", Type: AddressReplyTo}}
	}
}

func (c ProcessConfig) Validate() error {
	if c.Name == "" {
		return errors.New("empty process Name")
	}

	return nil
}

type step struct {
	name    string
	handler StepFunc
}

// Process runs a message through an ordered list of steps, one hop per step.
//
// Every hop receives a fresh copy of the messages produced by the previous hop,
// so headers are the only state which survives between hops.
type Process struct {
	config ProcessConfig
	logger relay.LoggerAdapter

	steps        []step
	stepNames    map[string]struct{}
	interceptors []Interceptor
}

func NewProcess(config ProcessConfig, logger relay.LoggerAdapter) (*Process, error) {
	config.setDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	if logger == nil {
		logger = relay.NopLogger{}
	}

	return &Process{
		config:    config,
		logger:    logger.With(relay.LogFields{"process_name": config.Name}),
		stepNames: map[string]struct{}{},
	}, nil
}

// AddInterceptor adds interceptors to all steps of the process.
//
// The order of interceptors matters. Interceptor added at the beginning is notified first.
func (p *Process) AddInterceptor(interceptors ...Interceptor) {
	p.logger.Debug("Adding interceptors", relay.LogFields{"count": len(interceptors)})

	p.interceptors = append(p.interceptors, interceptors...)
}

// AddStep appends a step to the process.
func (p *Process) AddStep(name string, handler StepFunc) error {
	if _, ok := p.stepNames[name]; ok {
		return errors.Errorf("step %s already exists", name)
	}
	if handler == nil {
		return errors.Errorf("step %s has nil handler", name)
	}

	p.logger.Debug("Adding step", relay.LogFields{"step_name": name})

	p.stepNames[name] = struct{}{}
	p.steps = append(p.steps, step{name: name, handler: handler})

	return nil
}

func (p *Process) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.name)
	}

	return names
}

// Run sends the message through all steps and returns envelopes produced by the last step.
// The first failing step stops the run, its error is returned wrapped with the step name.
func (p *Process) Run(ctx context.Context, msg *message.Message) ([]*Envelope, error) {
	if len(p.steps) == 0 {
		return nil, errors.New("process has no steps")
	}

	processCtx := NewProcessContext(p.config.Name)
	envelopes := []*Envelope{NewEnvelope(msg)}

	for i, s := range p.steps {
		processCtx.resetNextAddresses()
		if i < len(p.steps)-1 {
			processCtx.AddNextAddress(Address{Name: p.steps[i+1].name, Type: AddressService})
		} else {
			processCtx.AddNextAddress(p.config.Exit...)
		}

		logFields := relay.LogFields{
			"step_name":      s.name,
			"incoming_count": len(envelopes),
		}
		p.logger.Trace("Running step", logFields)

		sc := NewServiceContext(ctx, p.parameters(s.name), processCtx, copyEnvelopes(envelopes)...)

		if err := Intercept(s.handler, p.interceptors...)(sc); err != nil {
			return nil, errors.Wrapf(err, "step %s failed", s.name)
		}

		envelopes = sc.Outgoing()
		p.logger.Trace("Step done", logFields.Add(relay.LogFields{"outgoing_count": len(envelopes)}))

		if len(envelopes) == 0 {
			p.logger.Debug("Step produced no envelopes, stopping the run", logFields)
			return nil, nil
		}
	}

	return envelopes, nil
}

func (p *Process) parameters(stepName string) Parameters {
	return Parameters{
		ParamDomainName:       p.config.DomainName,
		ParamContainerName:    p.config.ContainerName,
		ParamESBContainerName: p.config.ESBContainerName,
		ParamProcessName:      p.config.Name,
		ParamServiceName:      stepName,
	}
}

func copyEnvelopes(envelopes []*Envelope) []*Envelope {
	copied := make([]*Envelope, 0, len(envelopes))
	for _, env := range envelopes {
		copied = append(copied, NewEnvelope(env.Message.Copy(), env.Addresses...))
	}

	return copied
}
