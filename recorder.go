package otterreceiver

import (
	"go.uber.org/zap"

	"github.com/otter-trace/otterreceiver/internal/containers"
	"github.com/otter-trace/otterreceiver/internal/taskgraph"
)

// Recorder consumes callbacks on one thread (§4.E). It owns that
// thread's Location and is never shared across goroutines, the same
// way a connection handler owns its own per-connection state — so
// its own fields need no lock; only the shared state it reaches through
// (ParallelRegion, Engine.Graph, Engine.Sink) is guarded.
type Recorder struct {
	engine   *Engine
	location *Location
	Logger   *zap.Logger

	parallelStack *containers.Stack[*ParallelRegion]
	currentTask   *Region // current implicit task running on this thread, nil until the first implicit-task-begin

	// abort is invoked, after logging, on a category-1 contract
	// violation (§7). Production code sets it to terminate the process;
	// tests override it to observe the violation without killing the
	// test binary.
	abort func(error)
}

// NewRecorder allocates a Location for a freshly observed thread, emits
// its thread-begin event, and writes its location definition (§4.E "on
// thread begin").
func NewRecorder(engine *Engine, logger *zap.Logger, id uint64, kind LocationKind, abort func(error)) (*Recorder, error) {
	if abort == nil {
		abort = func(err error) { logger.Fatal("fatal nesting violation", zap.Error(err)) }
	}
	r := &Recorder{
		engine:        engine,
		location:      NewLocation(id, kind),
		Logger:        logger,
		parallelStack: containers.NewStack[*ParallelRegion](),
		abort:         abort,
	}

	ts := engine.Clock.Now()
	if err := engine.Sink.ThreadBegin(id, ts); err != nil {
		return nil, &ResourceError{Op: "thread_begin", Err: err}
	}
	if err := engine.Sink.WriteLocationDefinition(r.location, kind.String()); err != nil {
		r.Logger.Warn("failed to write location definition", zap.Error(err))
	}
	return r, nil
}

// Location returns the thread-local state this recorder owns.
func (r *Recorder) Location() *Location { return r.location }

// CurrentTask returns the implicit task currently running on this
// thread, or nil before the first implicit-task-begin.
func (r *Recorder) CurrentTask() *Region { return r.currentTask }

// OnThreadEnd emits the thread-end event. Reaching it with a non-empty
// region stack is the terminal contract violation named in §4's state
// machine ("fatal violation to reach Thread-End with non-empty region
// stack").
func (r *Recorder) OnThreadEnd() error {
	if !r.location.RegionStack.Empty() {
		err := &NestingViolationError{LocationID: r.location.ID, Reason: "thread-end reached with non-empty region stack"}
		r.Logger.Error(err.Error())
		r.abort(err)
		return err
	}
	r.flushLocationDefs()
	ts := r.engine.Clock.Now()
	if err := r.engine.Sink.ThreadEnd(r.location.ID, ts); err != nil {
		r.Logger.Warn("failed to emit thread-end", zap.Error(err))
		return &ResourceError{Op: "thread_end", Err: err}
	}
	return nil
}

// flushLocationDefs writes out any region definitions this thread
// accumulated outside of a parallel region (e.g. the initial task on a
// program that never opens one, §4.E); they have no ParallelRegion to
// merge into, so the thread that owns them flushes them directly at
// thread-end instead.
func (r *Recorder) flushLocationDefs() {
	for {
		def, ok := r.location.RgnDefs.Pop()
		if !ok {
			break
		}
		if err := r.engine.Sink.WriteRegionDefinition(def, def.Kind.String()); err != nil {
			r.Logger.Warn("failed to flush region definition", zap.Error(err))
		}
	}
}

// buildAttributes fills the location's scratch attribute buffer for one
// event on region and returns the filled slice (valid until the next
// call). Common attributes come first, then kind-specific ones, then the
// event-type/endpoint labels (§4.E "Enter/Leave algorithm").
func (r *Recorder) buildAttributes(region *Region, endpoint string) []Attribute {
	al := region.Attributes
	al.Reset()
	al.Add(OtterRegionRef, region.Ref)
	al.Add(OtterRegionKind, region.Kind.String())
	al.Add(OtterLocationID, r.location.ID)
	al.Add(OtterLocationKind, r.location.Kind.String())
	al.Add(OtterTaskParentID, region.EncounteringTaskID)

	switch region.Kind {
	case RegionParallel:
		p := region.Parallel
		al.Add(OtterParallelID, p.ID)
		al.Add(OtterParallelRequestedParallelism, p.RequestedParallelism)
		al.Add(OtterParallelActualParallelism, p.ActualParallelism)
		al.Add(OtterParallelIsLeague, p.IsLeague)
	case RegionWorkshare:
		al.Add(OtterWorkshareKind, region.Workshare.Kind.String())
		al.Add(OtterWorkshareCount, region.Workshare.Count)
	case RegionSynchronise:
		al.Add(OtterSyncKind, region.Sync.Kind.String())
	case RegionMaster:
		al.Add(OtterMasterThread, region.Master.Thread)
	case RegionTask:
		t := region.Task
		al.Add(OtterTaskID, t.ID)
		al.Add(OtterTaskKind, t.Kind.String())
		al.Add(OtterTaskFlags, uint32(t.Flags))
		al.Add(OtterTaskHasDependences, t.HasDependences)
		al.Add(OtterTaskStatus, t.Status.String())
	}

	al.Add(OtterEventType, region.Kind.String())
	al.Add(OtterEventEndpoint, endpoint)
	return al.Items()
}

// enterSimple runs the enter algorithm for any non-parallel region kind:
// build attributes, emit Enter, push onto the region stack.
func (r *Recorder) enterSimple(region *Region) error {
	ts := r.engine.Clock.Now()
	attrs := r.buildAttributes(region, "enter")
	if err := r.engine.Sink.Enter(r.location.ID, ts, region, attrs); err != nil {
		r.Logger.Warn("trace sink enter failed", zap.Error(err))
		return &ResourceError{Op: "enter", Err: err}
	}
	r.location.PushRegion(region)
	return nil
}

// leaveSimple runs the leave algorithm for any non-parallel region kind,
// verifying the popped region matches want (I1).
func (r *Recorder) leaveSimple(want RegionKind) (*Region, error) {
	region, matched := r.location.PopRegion(want)
	if region == nil {
		err := &NestingViolationError{LocationID: r.location.ID, Want: want, Reason: "leave with empty region stack"}
		r.Logger.Error(err.Error())
		r.abort(err)
		return nil, err
	}
	if !matched {
		err := &NestingViolationError{LocationID: r.location.ID, Want: want, Got: region.Kind}
		r.Logger.Error(err.Error())
		r.abort(err)
		return region, err
	}
	ts := r.engine.Clock.Now()
	attrs := r.buildAttributes(region, "leave")
	if err := r.engine.Sink.Leave(r.location.ID, ts, region, attrs); err != nil {
		r.Logger.Warn("trace sink leave failed", zap.Error(err))
		return region, &ResourceError{Op: "leave", Err: err}
	}
	return region, nil
}

// enterParallel runs the enter algorithm's parallel-specific path
// (§4.E): suspend the thread's current rgn_defs, emit under the
// region's own mutex while incrementing ref_count/enter_count, then push
// the region onto the stack and remember it on this recorder's own
// parallel-nesting stack.
func (r *Recorder) enterParallel(region *Region) error {
	p := region.Parallel
	r.location.EnterParallelScope()

	ts := r.engine.Clock.Now()
	attrs := r.buildAttributes(region, "enter")
	var sinkErr error
	err := p.EnterAndEmit(func() error {
		sinkErr = r.engine.Sink.Enter(r.location.ID, ts, region, attrs)
		return sinkErr
	})
	if err != nil {
		r.Logger.Warn("trace sink enter failed", zap.Error(err))
	}

	r.location.RegionStack.Push(region)
	r.location.Events++
	r.parallelStack.Push(p)
	if err != nil {
		return &ResourceError{Op: "enter", Err: err}
	}
	return nil
}

// leaveParallel runs the leave algorithm's parallel-specific path
// (§4.E/§4.F). The caller (the thread observing ref_count reach zero)
// drains and flushes the region's merged definitions and retires it.
func (r *Recorder) leaveParallel() error {
	region, matched := r.location.PopRegion(RegionParallel)
	if region == nil {
		err := &NestingViolationError{LocationID: r.location.ID, Want: RegionParallel, Reason: "leave with empty region stack"}
		r.Logger.Error(err.Error())
		r.abort(err)
		return err
	}
	if !matched {
		err := &NestingViolationError{LocationID: r.location.ID, Want: RegionParallel, Got: region.Kind}
		r.Logger.Error(err.Error())
		r.abort(err)
		return err
	}

	ts := r.engine.Clock.Now()
	attrs := r.buildAttributes(region, "leave")
	if err := r.engine.Sink.Leave(r.location.ID, ts, region, attrs); err != nil {
		r.Logger.Warn("trace sink leave failed", zap.Error(err))
	}

	p := region.Parallel
	r.parallelStack.Pop()
	local := r.location.LeaveParallelScope()
	remaining := p.LeaveAndMerge(local)

	if remaining == 0 {
		r.retireParallelRegion(p)
	}
	return nil
}

// retireParallelRegion flushes a parallel region's merged definitions to
// the global def writer and closes out its task-graph scope (P3: freed
// exactly once, by the observer of ref_count == 0).
func (r *Recorder) retireParallelRegion(p *ParallelRegion) {
	defs := p.Drain()
	for _, def := range defs {
		if err := r.engine.Sink.WriteRegionDefinition(def, def.Kind.String()); err != nil {
			r.Logger.Warn("failed to flush region definition", zap.Error(err))
		}
	}

	endNode := r.engine.Graph.AddNode(taskgraph.KindScopeParallel.End(), p)
	r.engine.Graph.CloseScope(p.ScopeBegin, endNode, p.Generated())
}

// OnParallelBegin is called on the master thread only (§4.E): workers
// join the same region later, in their own OnImplicitTaskBegin.
func (r *Recorder) OnParallelBegin(requestedParallelism uint32, isLeague bool) (*ParallelRegion, error) {
	ref := r.engine.IDs.NextRegionRef()
	id := r.engine.IDs.NextParallelID()
	scopeBegin := r.engine.Graph.AddNode(taskgraph.KindScopeParallel, nil)

	region := NewParallelRegionObject(ref, r.currentTaskID(), id, requestedParallelism, isLeague, scopeBegin)
	if err := r.enterParallel(region); err != nil {
		return region.Parallel, err
	}
	return region.Parallel, nil
}

// OnParallelEnd is called on the master thread only, recording its own
// leave; workers record theirs in OnImplicitTaskEnd.
func (r *Recorder) OnParallelEnd() error {
	return r.leaveParallel()
}

// currentTaskID reports the id of the task currently running on this
// thread, or 0 (the task-graph root's id) before any implicit task has
// begun.
func (r *Recorder) currentTaskID() uint64 {
	if r.currentTask == nil {
		return 0
	}
	return r.currentTask.Task.ID
}

// OnImplicitTaskBegin handles both the initial thread's implicit task
// (which idempotently creates/reuses the single task_initial node, §9
// open question 2; it emits no enter event and is not pushed onto the
// region stack, only queued as a definition) and a team member's
// implicit task inside a real
// parallel region (which, for a worker, also records this thread's
// parallel-region enter — the master already recorded its own enter in
// OnParallelBegin).
func (r *Recorder) OnImplicitTaskBegin(parallel *ParallelRegion, flags TaskFlags, index uint32) (*Region, error) {
	if parallel == nil {
		// The initial thread's implicit task.
		if r.currentTask != nil {
			r.Logger.Warn("task was previously allocated task data")
			return r.currentTask, nil
		}
		ref := r.engine.IDs.NextRegionRef()
		task := NewTaskRegion(ref, 0, 0, TaskInitial, flags, false, 0, TaskInitial, false)
		task.Task.Node = r.engine.InitialTaskNode()
		task.Task.HasNode = true
		r.currentTask = task
		r.location.RgnDefs.Push(task)
		return task, nil
	}

	if top, ok := r.parallelStack.Peek(); !ok || top != parallel {
		if err := r.enterParallel(parallel.Region); err != nil {
			return nil, err
		}
	}

	ref := r.engine.IDs.NextRegionRef()
	taskID := r.engine.IDs.NextTaskID()
	parentID, parentKind, hasParent := uint64(0), TaskInitial, false
	if r.currentTask != nil {
		parentID, parentKind, hasParent = r.currentTask.Task.ID, r.currentTask.Task.Kind, true
	}
	task := NewTaskRegion(ref, r.currentTaskID(), taskID, TaskImplicit, flags, false, parentID, parentKind, hasParent)
	r.currentTask = task
	if err := r.enterSimple(task); err != nil {
		return task, err
	}
	return task, nil
}

// OnImplicitTaskEnd pops the implicit task region; for a team member
// (parallel != nil) it also records this thread's matching
// parallel-region leave. Ending the initial task emits nothing, since it
// was never pushed.
func (r *Recorder) OnImplicitTaskEnd(parallel *ParallelRegion) error {
	if parallel == nil && r.currentTask != nil && r.currentTask.Task.Kind == TaskInitial {
		r.currentTask = nil
		return nil
	}
	_, err := r.leaveSimple(RegionTask)
	r.currentTask = nil
	if err != nil {
		return err
	}
	if parallel != nil {
		return r.leaveParallel()
	}
	return nil
}

// OnTaskCreate implements the task-create operation and the §4.G
// edge-derivation policy. parent is the task that encountered the
// create (normally r.currentTask, passed explicitly so callers — and
// tests — can exercise the policy directly).
func (r *Recorder) OnTaskCreate(parent *Region, kind TaskKind, flags TaskFlags, hasDependences bool) (*Region, error) {
	ref := r.engine.IDs.NextRegionRef()
	taskID := r.engine.IDs.NextTaskID()

	parentID, parentKind, hasParent := uint64(0), TaskInitial, false
	if parent != nil {
		parentID, parentKind, hasParent = parent.Task.ID, parent.Task.Kind, true
	}

	task := NewTaskRegion(ref, r.currentTaskID(), taskID, kind, flags, hasDependences, parentID, parentKind, hasParent)

	graphKind := taskgraph.KindTaskExplicit
	if kind == TaskTarget {
		graphKind = taskgraph.KindTaskTarget
	}
	node := r.engine.Graph.AddNode(graphKind, task)
	task.Task.Node = node
	task.Task.HasNode = true

	ts := r.engine.Clock.Now()
	if err := r.engine.Sink.TaskCreate(r.location.ID, ts, task); err != nil {
		r.Logger.Warn("trace sink task_create failed", zap.Error(err))
	}

	switch {
	case !hasParent || parentKind == TaskInitial:
		r.engine.Graph.AddEdge(r.engine.InitialTaskNode(), node)
	case parentKind == TaskImplicit:
		if active, ok := r.parallelStack.Peek(); ok {
			r.engine.Graph.AddEdge(active.ScopeBegin, node)
			active.AddGenerated(node)
		} else {
			r.engine.Graph.AddEdge(r.engine.InitialTaskNode(), node)
		}
	default: // explicit or target
		if parent.Task.HasNode {
			r.engine.Graph.AddEdge(parent.Task.Node, node)
		}
	}

	return task, nil
}

// OnWorkBegin pushes a workshare region (§4.E).
func (r *Recorder) OnWorkBegin(kind WorkshareKind, count uint64) (*Region, error) {
	ref := r.engine.IDs.NextRegionRef()
	region := NewWorkshareRegion(ref, r.currentTaskID(), kind, count)
	if err := r.enterSimple(region); err != nil {
		return region, err
	}
	return region, nil
}

// OnWorkEnd pops the innermost workshare region.
func (r *Recorder) OnWorkEnd() (*Region, error) {
	return r.leaveSimple(RegionWorkshare)
}

// OnSyncRegionBegin pushes a synchronise region (§4.E).
func (r *Recorder) OnSyncRegionBegin(kind SyncKind) (*Region, error) {
	ref := r.engine.IDs.NextRegionRef()
	region := NewSyncRegion(ref, r.currentTaskID(), kind)
	if err := r.enterSimple(region); err != nil {
		return region, err
	}
	return region, nil
}

// OnSyncRegionEnd pops the innermost synchronise region.
func (r *Recorder) OnSyncRegionEnd() (*Region, error) {
	return r.leaveSimple(RegionSynchronise)
}

// OnMasterBegin pushes a master region, recording which thread executed it.
func (r *Recorder) OnMasterBegin() (*Region, error) {
	ref := r.engine.IDs.NextRegionRef()
	region := NewMasterRegion(ref, r.currentTaskID(), r.location.ID)
	if err := r.enterSimple(region); err != nil {
		return region, err
	}
	return region, nil
}

// OnMasterEnd pops the innermost master region.
func (r *Recorder) OnMasterEnd() (*Region, error) {
	return r.leaveSimple(RegionMaster)
}
