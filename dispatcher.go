package otterreceiver

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher presents the fixed set of runtime callbacks (§6) and routes
// each to the per-thread Recorder (E) and the shared task graph (G),
// maintaining the registries the reduced callback surface needs to
// reconnect a later callback to the Location/ParallelRegion/task an
// earlier one created — the Go equivalent of the runtime's opaque
// ompt_data_t pointer slots.
//
// Wire format (replay harness only, [ADDED]): the JSON-line transport in
// rcvr_unixsocket.go/rcvr_namedpipe.go feeds this struct one decoded
// event per line, of shape
// {"event":"thread_begin","thread":1,"kind":"worker", ...}. This is a
// test/debug surface, not part of the OMPT contract in §6.
type Dispatcher struct {
	engine *Engine
	Logger *zap.Logger

	recMu     sync.Mutex
	recorders map[uint64]*Recorder

	parMu     sync.Mutex
	parallels map[uint64]*ParallelRegion

	OnThreadBegin       func(threadID uint64, kind LocationKind) error
	OnThreadEnd         func(threadID uint64) error
	OnParallelBegin     func(threadID, parallelHandle uint64, requestedParallelism uint32, isLeague bool) error
	OnParallelEnd       func(threadID, parallelHandle uint64) error
	OnImplicitTaskBegin func(threadID, parallelHandle uint64, flags TaskFlags, index uint32) error
	OnImplicitTaskEnd   func(threadID, parallelHandle uint64) error
	OnTaskCreate        func(threadID uint64, kind TaskKind, flags TaskFlags, hasDependences bool) error
	OnWorkBegin         func(threadID uint64, kind WorkshareKind, count uint64) error
	OnWorkEnd           func(threadID uint64) error
	OnSyncRegionBegin   func(threadID uint64, kind SyncKind) error
	OnSyncRegionEnd     func(threadID uint64) error
}

// NewDispatcher wires every callback field to this dispatcher's own
// routing logic. Fields are plain func values (not methods) so a caller
// can still override one for an isolated test.
func NewDispatcher(engine *Engine, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		engine:    engine,
		Logger:    logger,
		recorders: make(map[uint64]*Recorder),
		parallels: make(map[uint64]*ParallelRegion),
	}
	d.OnThreadBegin = d.onThreadBegin
	d.OnThreadEnd = d.onThreadEnd
	d.OnParallelBegin = d.onParallelBegin
	d.OnParallelEnd = d.onParallelEnd
	d.OnImplicitTaskBegin = d.onImplicitTaskBegin
	d.OnImplicitTaskEnd = d.onImplicitTaskEnd
	d.OnTaskCreate = d.onTaskCreate
	d.OnWorkBegin = d.onWorkBegin
	d.OnWorkEnd = d.onWorkEnd
	d.OnSyncRegionBegin = d.onSyncRegionBegin
	d.OnSyncRegionEnd = d.onSyncRegionEnd
	return d
}

// FunctionLookup mirrors ompt_function_lookup_t: given a runtime-defined
// registration function name, it returns that function, or nil if the
// runtime doesn't support the corresponding callback.
type FunctionLookup func(name string) func(handler any) bool

// Register asks the runtime, via lookup, for the registration function
// backing every callback this Dispatcher knows how to handle, and wires
// it to the corresponding field. A callback the runtime doesn't support
// (lookup returns nil) is simply never registered — the dispatcher's
// field stays set to its routing implementation but nothing ever calls
// it, the same net effect as §4.H's "unsupported callbacks remain empty
// no-ops."
func (d *Dispatcher) Register(lookup FunctionLookup) {
	table := []struct {
		name    string
		handler any
	}{
		{"ompt_callback_thread_begin", d.OnThreadBegin},
		{"ompt_callback_thread_end", d.OnThreadEnd},
		{"ompt_callback_parallel_begin", d.OnParallelBegin},
		{"ompt_callback_parallel_end", d.OnParallelEnd},
		{"ompt_callback_implicit_task", d.OnImplicitTaskBegin},
		{"ompt_callback_task_create", d.OnTaskCreate},
		{"ompt_callback_work", d.OnWorkBegin},
		{"ompt_callback_sync_region", d.OnSyncRegionBegin},
	}
	for _, e := range table {
		registrar := lookup(e.name)
		if registrar == nil {
			continue
		}
		registrar(e.handler)
	}
}

func (d *Dispatcher) recorder(threadID uint64) (*Recorder, bool) {
	d.recMu.Lock()
	defer d.recMu.Unlock()
	r, ok := d.recorders[threadID]
	return r, ok
}

func (d *Dispatcher) parallel(handle uint64) (*ParallelRegion, bool) {
	d.parMu.Lock()
	defer d.parMu.Unlock()
	p, ok := d.parallels[handle]
	return p, ok
}

func (d *Dispatcher) onThreadBegin(threadID uint64, kind LocationKind) error {
	rec, err := NewRecorder(d.engine, d.Logger, threadID, kind, nil)
	if err != nil {
		return err
	}
	d.recMu.Lock()
	d.recorders[threadID] = rec
	d.recMu.Unlock()
	return nil
}

func (d *Dispatcher) onThreadEnd(threadID uint64) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: thread_end for unknown thread %d", threadID)
	}
	err := rec.OnThreadEnd()
	d.recMu.Lock()
	delete(d.recorders, threadID)
	d.recMu.Unlock()
	return err
}

func (d *Dispatcher) onParallelBegin(threadID, parallelHandle uint64, requestedParallelism uint32, isLeague bool) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: parallel_begin for unknown thread %d", threadID)
	}
	p, err := rec.OnParallelBegin(requestedParallelism, isLeague)
	if p != nil {
		d.parMu.Lock()
		d.parallels[parallelHandle] = p
		d.parMu.Unlock()
	}
	return err
}

func (d *Dispatcher) onParallelEnd(threadID, parallelHandle uint64) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: parallel_end for unknown thread %d", threadID)
	}
	return rec.OnParallelEnd()
}

func (d *Dispatcher) onImplicitTaskBegin(threadID, parallelHandle uint64, flags TaskFlags, index uint32) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: implicit_task_begin for unknown thread %d", threadID)
	}
	var parallel *ParallelRegion
	if parallelHandle != 0 {
		parallel, _ = d.parallel(parallelHandle)
	}
	_, err := rec.OnImplicitTaskBegin(parallel, flags, index)
	return err
}

func (d *Dispatcher) onImplicitTaskEnd(threadID, parallelHandle uint64) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: implicit_task_end for unknown thread %d", threadID)
	}
	var parallel *ParallelRegion
	if parallelHandle != 0 {
		parallel, _ = d.parallel(parallelHandle)
	}
	return rec.OnImplicitTaskEnd(parallel)
}

func (d *Dispatcher) onTaskCreate(threadID uint64, kind TaskKind, flags TaskFlags, hasDependences bool) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: task_create for unknown thread %d", threadID)
	}
	_, err := rec.OnTaskCreate(rec.CurrentTask(), kind, flags, hasDependences)
	return err
}

func (d *Dispatcher) onWorkBegin(threadID uint64, kind WorkshareKind, count uint64) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: work_begin for unknown thread %d", threadID)
	}
	_, err := rec.OnWorkBegin(kind, count)
	return err
}

func (d *Dispatcher) onWorkEnd(threadID uint64) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: work_end for unknown thread %d", threadID)
	}
	_, err := rec.OnWorkEnd()
	return err
}

func (d *Dispatcher) onSyncRegionBegin(threadID uint64, kind SyncKind) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: sync_region_begin for unknown thread %d", threadID)
	}
	_, err := rec.OnSyncRegionBegin(kind)
	return err
}

func (d *Dispatcher) onSyncRegionEnd(threadID uint64) error {
	rec, ok := d.recorder(threadID)
	if !ok {
		return fmt.Errorf("otterreceiver: sync_region_end for unknown thread %d", threadID)
	}
	_, err := rec.OnSyncRegionEnd()
	return err
}

// ParseLocationKind maps the replay wire format's kind string onto a
// LocationKind, defaulting to LocationUnknown for anything unrecognised.
func ParseLocationKind(s string) LocationKind {
	switch s {
	case "initial":
		return LocationInitial
	case "worker":
		return LocationWorker
	default:
		return LocationUnknown
	}
}

// ParseWorkshareKind maps the replay wire format's kind string onto a
// WorkshareKind.
func ParseWorkshareKind(s string) WorkshareKind {
	switch s {
	case "loop":
		return WorkshareLoop
	case "sections":
		return WorkshareSections
	case "single_executor":
		return WorkshareSingleExecutor
	case "single_other":
		return WorkshareSingleOther
	case "distribute":
		return WorkshareDistribute
	case "taskloop":
		return WorkshareTaskloop
	default:
		return WorkshareLoop
	}
}

// ParseSyncKind maps the replay wire format's kind string onto a
// SyncKind.
func ParseSyncKind(s string) SyncKind {
	switch s {
	case "barrier":
		return SyncBarrier
	case "barrier_implicit":
		return SyncBarrierImplicit
	case "barrier_explicit":
		return SyncBarrierExplicit
	case "barrier_implementation":
		return SyncBarrierImplementation
	case "taskwait":
		return SyncTaskwait
	case "taskgroup":
		return SyncTaskgroup
	case "reduction":
		return SyncReduction
	default:
		return SyncBarrier
	}
}

// ParseTaskKind maps the replay wire format's kind string onto a
// TaskKind.
func ParseTaskKind(s string) TaskKind {
	switch s {
	case "initial":
		return TaskInitial
	case "implicit":
		return TaskImplicit
	case "explicit":
		return TaskExplicit
	case "target":
		return TaskTarget
	default:
		return TaskExplicit
	}
}
