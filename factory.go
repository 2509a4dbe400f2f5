package otterreceiver

import (
	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/receiver"
)

var (
	typeStr = component.MustNewType("otterreceiver")
)

const (
	stability = component.StabilityLevelStable
)

func createDefaultConfig() component.Config {
	return &Config{
		TraceOutputPath:     "",
		TraceOutputName:     "",
		TaskGraphOutput:     "",
		TaskGraphFormat:     "",
		TaskGraphNodeAttr:   "",
		AppendHostname:      false,
		ReplayNamedPipePath: "",
		ReplaySocketPath:    "",
	}
}

// NewFactory creates a factory for the otterreceiver.
func NewFactory() receiver.Factory {
	return receiver.NewFactory(
		typeStr,
		createDefaultConfig,
		receiver.WithTraces(createTraces, stability),
	)
}
