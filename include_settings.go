package otterreceiver

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// IncludeSettings controls which process-identifying resource attributes
// get attached to the OTel spans this receiver emits, via an optional
// sidecar YAML file — decoded the same two-step way (yaml.v2 into a
// generic map, then mapstructure into the typed struct).
type IncludeSettings struct {
	Include struct {
		Hostname bool `mapstructure:"hostname"`
		Pid      bool `mapstructure:"pid"`
	} `mapstructure:"include"`
}

func parseIncludeSettingsFile(path string) (*IncludeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read YML '%s': '%s'", path, err.Error())
	}
	return parseIncludeSettingsBuffer(data, path)
}

func parseIncludeSettingsBuffer(data []byte, path string) (*IncludeSettings, error) {
	m := make(map[interface{}]interface{})
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("could not parse YAML '%s': '%s'", path, err.Error())
	}

	is := new(IncludeSettings)
	if err := mapstructure.Decode(m, is); err != nil {
		return nil, fmt.Errorf("could not decode '%s': '%s'", path, err.Error())
	}
	return is, nil
}
