package pipeline

// Names of the routing parameters exposed to a service step.
const (
	ParamDomainName       = "domain_name"
	ParamContainerName    = "container_name"
	ParamESBContainerName = "esb_container_name"
	ParamProcessName      = "process_name"
	ParamServiceName      = "service_name"
)

// Parameters are the routing parameters of the current hop.
type Parameters map[string]string

// Parameter returns the value of the parameter, or an empty string when it is not set.
func (p Parameters) Parameter(name string) string {
	if v, ok := p[name]; ok {
		return v
	}

	return ""
}

func (p Parameters) Copy() Parameters {
	cpy := make(Parameters, len(p))
	for k, v := range p {
		cpy[k] = v
	}

	return cpy
}
