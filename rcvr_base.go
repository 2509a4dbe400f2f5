package otterreceiver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/consumer"
	"go.uber.org/zap"
)

// Rcvr_Base holds the receiver state shared by the Unix-socket and
// named-pipe replay transports ([ADDED]: a test/debug surface, not part
// of the in-process OMPT callback contract in §6). Each accepted
// connection replays one process's worth of OMPT callback events as
// JSON lines, which this base class turns into calls on a *Dispatcher*
// wired to one process-wide *Engine*.
type Rcvr_Base struct {
	// These fields should be set in createTraces() (platform_unix.go /
	// platform_windows.go)
	Logger         *zap.Logger
	TracesConsumer consumer.Traces
	RcvrConfig     *Config

	Engine     *Engine
	Dispatcher *Dispatcher
	SpanSink   *OtelSpanSink

	// Component properties set in Start()
	ctx    context.Context
	host   component.Host
	cancel context.CancelFunc

	// Did we see at least one replay event from the client?
	sawData bool
}

// `Start()` handles base-class portions of receiver initialization.
func (rcvr_base *Rcvr_Base) Start(unused_ctx context.Context, host component.Host) error {
	rcvr_base.host = host
	rcvr_base.ctx, rcvr_base.cancel = context.WithCancel(context.Background())
	return nil
}

// dispatchLine parses one line of the replay wire format and routes it
// to the matching Dispatcher callback. Blank lines and "#"-style comment
// lines are ignored, so a replay log can carry human-readable breaks.
//
// Returns nil for a blank/comment line or a successfully routed event,
// and a non-nil error for malformed JSON, a missing required field, an
// event verb this receiver doesn't support, or a Dispatcher error.
func (rcvr_base *Rcvr_Base) dispatchLine(rawLine []byte) error {
	trimmed := bytes.TrimSpace(rawLine)
	if len(trimmed) == 0 || trimmed[0] == '#' {
		return nil
	}

	var m cbmap
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return fmt.Errorf("otterreceiver: malformed replay event: %w", err)
	}

	event, err := m.getRequiredString("event")
	if err != nil {
		return err
	}
	if err := IsUnsupportedEvent(event); err != nil {
		return err
	}

	rcvr_base.sawData = true
	return rcvr_base.apply(event, &m)
}

func (rcvr_base *Rcvr_Base) apply(event string, m *cbmap) error {
	d := rcvr_base.Dispatcher

	thread, err := m.getRequiredInt64("thread")
	if err != nil {
		return err
	}
	threadID := uint64(thread)

	switch event {
	case "thread_begin":
		kind, err := m.getRequiredString("kind")
		if err != nil {
			return err
		}
		return d.OnThreadBegin(threadID, ParseLocationKind(kind))

	case "thread_end":
		return d.OnThreadEnd(threadID)

	case "parallel_begin":
		handle, err := m.getRequiredInt64("parallel")
		if err != nil {
			return err
		}
		requested, err := m.getRequiredInt64("requested_parallelism")
		if err != nil {
			return err
		}
		isLeague, err := m.getOptionalBool("is_league")
		if err != nil {
			return err
		}
		return d.OnParallelBegin(threadID, uint64(handle), uint32(requested), isLeague != nil && *isLeague)

	case "parallel_end":
		handle, err := m.getRequiredInt64("parallel")
		if err != nil {
			return err
		}
		return d.OnParallelEnd(threadID, uint64(handle))

	case "implicit_task_begin":
		handleVal, err := optionalHandle(m, "parallel")
		if err != nil {
			return err
		}
		flags, err := m.getOptionalInt64("flags")
		if err != nil {
			return err
		}
		index, err := m.getOptionalInt64("index")
		if err != nil {
			return err
		}
		return d.OnImplicitTaskBegin(threadID, handleVal, TaskFlags(optInt64(flags)), uint32(optInt64(index)))

	case "implicit_task_end":
		handleVal, err := optionalHandle(m, "parallel")
		if err != nil {
			return err
		}
		return d.OnImplicitTaskEnd(threadID, handleVal)

	case "task_create":
		kind, err := m.getRequiredString("kind")
		if err != nil {
			return err
		}
		flags, err := m.getOptionalInt64("flags")
		if err != nil {
			return err
		}
		hasDeps, err := m.getOptionalBool("has_dependences")
		if err != nil {
			return err
		}
		return d.OnTaskCreate(threadID, ParseTaskKind(kind), TaskFlags(optInt64(flags)), hasDeps != nil && *hasDeps)

	case "work_begin":
		kind, err := m.getRequiredString("kind")
		if err != nil {
			return err
		}
		count, err := m.getOptionalInt64("count")
		if err != nil {
			return err
		}
		return d.OnWorkBegin(threadID, ParseWorkshareKind(kind), uint64(optInt64(count)))

	case "work_end":
		return d.OnWorkEnd(threadID)

	case "sync_region_begin":
		kind, err := m.getRequiredString("kind")
		if err != nil {
			return err
		}
		return d.OnSyncRegionBegin(threadID, ParseSyncKind(kind))

	case "sync_region_end":
		return d.OnSyncRegionEnd(threadID)

	default:
		return fmt.Errorf("otterreceiver: unrecognized replay event '%s'", event)
	}
}

func optionalHandle(m *cbmap, key string) (uint64, error) {
	v, err := m.getOptionalInt64(key)
	if err != nil || v == nil {
		return 0, err
	}
	return uint64(*v), nil
}

func optInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// exportRun writes the run's task-graph artefact (§6) and hands the
// accumulated OTel spans to the configured consumer once a connection
// finishes cleanly, never on a connection that errored out mid-stream.
func (rcvr_base *Rcvr_Base) exportRun() error {
	if !rcvr_base.sawData {
		return nil
	}

	if rcvr_base.Engine != nil {
		if err := rcvr_base.Engine.WriteTaskGraph(rcvr_base.RcvrConfig); err != nil {
			return err
		}
	}

	if rcvr_base.SpanSink == nil || rcvr_base.TracesConsumer == nil {
		return nil
	}
	return rcvr_base.SpanSink.Export(rcvr_base.ctx, rcvr_base.TracesConsumer)
}
