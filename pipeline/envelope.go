package pipeline

import "github.com/ThreeDotsLabs/relay/message"

// Envelope carries a message between steps of a pipeline.
type Envelope struct {
	Message *message.Message

	// Addresses are explicit routing targets of the envelope.
	// Empty Addresses means the envelope follows the process' next addresses.
	Addresses []Address
}

func NewEnvelope(msg *message.Message, addresses ...Address) *Envelope {
	return &Envelope{
		Message:   msg,
		Addresses: addresses,
	}
}
