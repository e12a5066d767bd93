package pipeline

import "fmt"

// AddressType classifies where an outbound message is routed.
type AddressType int

const (
	AddressUnknown AddressType = iota
	// AddressEndpoint is an external endpoint, leaving the pipeline.
	AddressEndpoint
	// AddressReplyTo is the reply destination of the original request.
	AddressReplyTo
	// AddressService is another service step within the pipeline.
	AddressService
	// AddressProcess is another process within the container.
	AddressProcess
)

func (t AddressType) String() string {
	switch t {
	case AddressEndpoint:
		return "endpoint"
	case AddressReplyTo:
		return "reply_to"
	case AddressService:
		return "service"
	case AddressProcess:
		return "process"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Address is an outbound routing address produced by a step.
type Address struct {
	Name string
	Type AddressType
}

// External returns true if messages sent to the address leave the pipeline
// and can be correlated by a receiver only through their headers.
func (a Address) External() bool {
	return a.Type == AddressEndpoint || a.Type == AddressReplyTo
}

func (a Address) String() string {
	return a.Type.String() + ":" + a.Name
}
