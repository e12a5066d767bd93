package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ThreeDotsLabs/relay/pipeline"
)

const (
	labelKeySinkName    = "sink_name"
	labelKeyStepName    = "step_name"
	labelKeyProcessName = "process_name"
	labelKeyOutcome     = "outcome"
	labelSuccess        = "success"

	labelValueNoStep = "<no step>"
)

func labelsFromServiceContext(sc *pipeline.ServiceContext) prometheus.Labels {
	labels := prometheus.Labels{
		labelKeyProcessName: "",
		labelKeyStepName:    labelValueNoStep,
	}
	if sc == nil {
		return labels
	}

	labels[labelKeyProcessName] = sc.Parameters().Parameter(pipeline.ParamProcessName)
	if step := sc.Parameters().Parameter(pipeline.ParamServiceName); step != "" {
		labels[labelKeyStepName] = step
	}

	return labels
}

func successLabel(err error) string {
	if err != nil {
		return "false"
	}
	return "true"
}
