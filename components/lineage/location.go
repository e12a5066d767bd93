package lineage

import (
	"strings"

	"github.com/ThreeDotsLabs/relay/pipeline"
)

// ParameterSource provides routing parameters of a hop.
type ParameterSource interface {
	Parameter(name string) string
}

var locationParams = []string{
	pipeline.ParamDomainName,
	pipeline.ParamContainerName,
	pipeline.ParamESBContainerName,
	pipeline.ParamProcessName,
	pipeline.ParamServiceName,
}

// FormatLocation returns the topology path of a hop:
// domain, container, ESB container, process and service names joined with separator.
//
// The format is positional. A missing parameter renders as an empty segment,
// so consumers can always split the location into five segments.
func FormatLocation(params ParameterSource, separator string) string {
	segments := make([]string, len(locationParams))

	if params != nil {
		for i, name := range locationParams {
			segments[i] = params.Parameter(name)
		}
	}

	return strings.Join(segments, separator)
}
