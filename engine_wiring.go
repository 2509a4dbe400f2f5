package otterreceiver

import (
	"os"
	"strconv"
)

// newEngineForConfig wires up the Engine a process's Dispatcher feeds,
// opening the OTF2 archive under cfg.TraceOutputPath using the hostname
// and this process's own pid as called for by §6's archive-naming rule.
// Shared by both platform_unix.go's and platform_windows.go's
// createTraces, since neither the archive-open sequence nor the OTel
// span sink construction differs by transport.
func newEngineForConfig(cfg *Config) (*Engine, *OtelSpanSink, error) {
	hostname, _ := os.Hostname()
	pid := os.Getpid()
	archiveName := cfg.ArchiveName(hostname, pid)

	spanSink := NewOtelSpanSink(NewNoopOTF2Writer(), cfg.TraceOutputName)
	if cfg.includeSettings != nil {
		if cfg.includeSettings.Include.Hostname {
			spanSink.SetResourceAttribute("host.name", hostname)
		}
		if cfg.includeSettings.Include.Pid {
			spanSink.SetResourceAttribute("process.pid", strconv.Itoa(pid))
		}
	}

	engine := NewEngine(spanSink)

	if err := engine.Init(cfg.TraceOutputPath, archiveName); err != nil {
		return nil, nil, err
	}

	return engine, spanSink, nil
}
