package otterreceiver

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Config represents the complete configuration for one otterreceiver
// declaration in the collector's config.yaml (§6 EXTERNAL INTERFACES).
// Fields mirror the OMPT-tool environment variables one-to-one, decoded
// from YAML via the collector's standard config-unmarshal path.
//
// These fields must be public (start with a capital letter) so the
// generic collector config-loading code can find them.
type Config struct {
	// TraceOutputPath/TraceOutputName mirror OTTER_TRACE_OUTPUT_PATH /
	// OTTER_TRACE_OUTPUT_NAME: the directory and base name of the OTF2
	// trace archive.
	TraceOutputPath string `mapstructure:"trace_output_path"`
	TraceOutputName string `mapstructure:"trace_output_name"`

	// TaskGraphOutput/TaskGraphFormat/TaskGraphNodeAttr mirror the three
	// OTTER_TASK_GRAPH_* variables: the graph file path, its format, and
	// the node-attribute CSV path.
	TaskGraphOutput   string `mapstructure:"task_graph_output"`
	TaskGraphFormat   string `mapstructure:"task_graph_format"`
	TaskGraphNodeAttr string `mapstructure:"task_graph_nodeattr"`

	// AppendHostname mirrors OTTER_APPEND_HOSTNAME: any truthy value
	// enables suffixing the archive name with the hostname.
	AppendHostname bool `mapstructure:"append_hostname"`

	// ReplayNamedPipePath/ReplaySocketPath select the [ADDED] replay
	// harness transport used by tests and local debugging to feed
	// synthetic OMPT callback events to the Dispatcher; real production
	// runs drive the Dispatcher directly from in-process OMPT callbacks
	// and leave both empty.
	ReplayNamedPipePath string `mapstructure:"pipe"`
	ReplaySocketPath    string `mapstructure:"socket"`

	// IncludeSettingsPath names an optional sidecar YAML file selecting
	// which process-identifying resource attributes (hostname, pid) get
	// attached to emitted spans; see include_settings.go.
	IncludeSettingsPath string `mapstructure:"include_settings"`
	includeSettings     *IncludeSettings
}

// Validate checks if the receiver configuration is valid. It is called
// once per `otterreceiver[/<qualifier>]:` declaration in the collector's
// `receivers:` section.
func (cfg *Config) Validate() error {
	if len(cfg.TraceOutputPath) == 0 {
		return fmt.Errorf("receivers.otterreceiver.trace_output_path not defined")
	}
	if len(cfg.TraceOutputName) == 0 {
		return fmt.Errorf("receivers.otterreceiver.trace_output_name not defined")
	}

	switch strings.ToLower(cfg.TaskGraphFormat) {
	case "", "dot", "edgelist":
		// supported; the empty string defers to Engine.WriteTaskGraph's
		// default of "dot"
	default:
		return fmt.Errorf("receivers.otterreceiver.task_graph_format unsupported: '%s'", cfg.TaskGraphFormat)
	}

	if runtime.GOOS == "windows" {
		if len(cfg.ReplayNamedPipePath) > 0 {
			path, err := normalize_named_pipe_path(cfg.ReplayNamedPipePath)
			if err != nil {
				return fmt.Errorf("receivers.otterreceiver.pipe invalid: '%s'", err.Error())
			}
			cfg.ReplayNamedPipePath = path
		}
	} else if len(cfg.ReplaySocketPath) > 0 {
		path, err := normalize_uds_path(cfg.ReplaySocketPath)
		if err != nil {
			return fmt.Errorf("receivers.otterreceiver.socket invalid: '%s'", err.Error())
		}
		cfg.ReplaySocketPath = path
	}

	if len(cfg.IncludeSettingsPath) > 0 {
		is, err := parseIncludeSettingsFile(cfg.IncludeSettingsPath)
		if err != nil {
			return fmt.Errorf("receivers.otterreceiver.include_settings invalid: '%s'", err.Error())
		}
		cfg.includeSettings = is
	}

	return nil
}

// ArchiveName computes the archive base name per §6's naming rule:
// <base>[.<hostname>].<pid> inside <path>.
func (cfg *Config) ArchiveName(hostname string, pid int) string {
	name := cfg.TraceOutputName
	if cfg.AppendHostname && len(hostname) > 0 {
		name = name + "." + hostname
	}
	return fmt.Sprintf("%s.%d", name, pid)
}

// Require (the backslash spelling of) `//./pipe/<pipename>` but allow
// `<pipename>` as an alias for the full spelling. Complain if given a
// regular UNC or drive letter pathname.
func normalize_named_pipe_path(in string) (string, error) {
	in_lower := strings.ToLower(in)      // normalize to lowercase
	in_slash := filepath.Clean(in_lower) // normalize to backslashes
	if strings.HasPrefix(in_slash, `\\.\pipe\`) {
		// We were given a NPFS path.  Use the original as is.
		return in, nil
	}

	if strings.HasPrefix(in_slash, `\\`) {
		// We were given a general UNC path.  Reject it.
		return "", fmt.Errorf(`expect '[\\.\pipe\]<pipename>'`)
	}

	if len(in) > 2 && in[1] == ':' {
		// We have a drive letter. Reject it.
		return "", fmt.Errorf(`expect '[\\.\pipe\]<pipename>'`)
	}

	// We cannot use `filepath.VolumeName()` or `filepath.Abs()`
	// because they will be interpreted relative to the CWD
	// which is not on the NPFS.
	//
	// So assume that this relative path is a shortcut and join it
	// with our required prefix.

	out := filepath.Join(`\\.\pipe`, in)
	return out, nil
}

// Pathnames for Unix domain sockets are just normal Unix pathnames.
// However, we allow an optional `af_unix:` or `af_unix:stream:` prefix.
func normalize_uds_path(in string) (string, error) {
	p, found := strings.CutPrefix(in, "af_unix:stream:")
	if found {
		return p, nil
	}

	_, found = strings.CutPrefix(in, "af_unix:dgram:")
	if found {
		return "", fmt.Errorf("SOCK_DGRAM sockets are not supported")
	}

	p, found = strings.CutPrefix(in, "af_unix:")
	if found {
		return p, nil
	}

	return in, nil
}
