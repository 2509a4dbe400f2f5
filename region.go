package otterreceiver

import "github.com/otter-trace/otterreceiver/internal/taskgraph"

// RegionKind discriminates the tagged variants a Region can carry (§3).
// It doubles as the OMPT-facing "role": parallel, workshare, synchronise,
// task, or master.
type RegionKind int

const (
	RegionUnknown RegionKind = iota
	RegionParallel
	RegionWorkshare
	RegionSynchronise
	RegionTask
	RegionMaster
)

func (k RegionKind) String() string {
	switch k {
	case RegionParallel:
		return "parallel"
	case RegionWorkshare:
		return "workshare"
	case RegionSynchronise:
		return "synchronise"
	case RegionTask:
		return "task"
	case RegionMaster:
		return "master"
	default:
		return "unknown"
	}
}

// WorkshareKind enumerates the worksharing constructs distinguished in the
// attribute model (§3).
type WorkshareKind int

const (
	WorkshareLoop WorkshareKind = iota
	WorkshareSections
	WorkshareSingleExecutor
	WorkshareSingleOther
	WorkshareDistribute
	WorkshareTaskloop
)

func (k WorkshareKind) String() string {
	switch k {
	case WorkshareLoop:
		return "loop"
	case WorkshareSections:
		return "sections"
	case WorkshareSingleExecutor:
		return "single_executor"
	case WorkshareSingleOther:
		return "single_other"
	case WorkshareDistribute:
		return "distribute"
	case WorkshareTaskloop:
		return "taskloop"
	default:
		return "unknown"
	}
}

// SyncKind enumerates the synchronisation constructs (§3).
type SyncKind int

const (
	SyncBarrier SyncKind = iota
	SyncBarrierImplicit
	SyncBarrierExplicit
	SyncBarrierImplementation
	SyncTaskwait
	SyncTaskgroup
	SyncReduction
)

func (k SyncKind) String() string {
	switch k {
	case SyncBarrier:
		return "barrier"
	case SyncBarrierImplicit:
		return "barrier_implicit"
	case SyncBarrierExplicit:
		return "barrier_explicit"
	case SyncBarrierImplementation:
		return "barrier_implementation"
	case SyncTaskwait:
		return "taskwait"
	case SyncTaskgroup:
		return "taskgroup"
	case SyncReduction:
		return "reduction"
	default:
		return "unknown"
	}
}

// TaskKind enumerates the task variants (§3 and the OMPT ompt_task_flag_t).
type TaskKind int

const (
	TaskInitial TaskKind = iota
	TaskImplicit
	TaskExplicit
	TaskTarget
)

func (k TaskKind) String() string {
	switch k {
	case TaskInitial:
		return "initial"
	case TaskImplicit:
		return "implicit"
	case TaskExplicit:
		return "explicit"
	case TaskTarget:
		return "target"
	default:
		return "unknown"
	}
}

// TaskStatus mirrors the subset of ompt_task_status_t the attribute model
// records (the status most recently observed by a task-schedule callback).
type TaskStatus int

const (
	TaskStatusUndefined TaskStatus = iota
	TaskStatusComplete
	TaskStatusYield
	TaskStatusCancel
	TaskStatusDetach
	TaskStatusSwitch
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusComplete:
		return "complete"
	case TaskStatusYield:
		return "yield"
	case TaskStatusCancel:
		return "cancel"
	case TaskStatusDetach:
		return "detach"
	case TaskStatusSwitch:
		return "switch"
	default:
		return "undefined"
	}
}

// TaskFlags mirrors the bit flags carried alongside ompt_task_flag_t
// beyond the TaskKind itself (undeferred/untied/final/mergeable/merged).
type TaskFlags uint32

const (
	TaskFlagUndeferred TaskFlags = 1 << iota
	TaskFlagUntied
	TaskFlagFinal
	TaskFlagMergeable
	TaskFlagMerged
)

func (f TaskFlags) Has(flag TaskFlags) bool { return f&flag != 0 }

// WorksharePayload carries the kind-specific fields of a workshare region.
type WorksharePayload struct {
	Kind  WorkshareKind
	Count uint64
}

// SyncPayload carries the kind-specific fields of a synchronise region.
type SyncPayload struct {
	Kind SyncKind
}

// MasterPayload carries the kind-specific fields of a master region.
type MasterPayload struct {
	Thread uint64
}

// TaskPayload carries the kind-specific fields of a task region.
type TaskPayload struct {
	ID             uint64
	Kind           TaskKind
	Flags          TaskFlags
	ParentID       uint64
	ParentKind     TaskKind
	HasParent      bool
	HasDependences bool
	Status         TaskStatus

	// Node and HasNode identify this task's node in the task graph
	// (§4.G). Only the initial task (reusing the process-wide root node)
	// and explicit/target tasks (created with their own node at
	// task-create) have one; implicit tasks belonging to a worker/master
	// team member exist as Region/task bookkeeping (so their id/type can
	// be reported as a parent) without a graph node of their own, since
	// edges from a parallel scope-begin target the explicit/target tasks
	// created by the team, not the team's implicit tasks themselves.
	Node    taskgraph.NodeRef
	HasNode bool
}

// Region is a tagged variant over kind (§3): common fields plus exactly
// one populated kind-specific payload, selected by Kind. Go has no sum
// types, so exactly one of the payload pointers below is non-nil, chosen
// by Kind.
type Region struct {
	Ref                 uint64
	Kind                RegionKind
	EncounteringTaskID  uint64
	Attributes          *AttributeList

	Workshare *WorksharePayload
	Sync      *SyncPayload
	Master    *MasterPayload
	Task      *TaskPayload
	Parallel  *ParallelRegion
}

func newRegion(ref uint64, kind RegionKind, encounteringTaskID uint64) *Region {
	return &Region{
		Ref:                ref,
		Kind:                kind,
		EncounteringTaskID: encounteringTaskID,
		Attributes:         NewAttributeList(),
	}
}

// NewWorkshareRegion constructs a workshare region (4.D); the caller is
// responsible for assigning a ref from an IDSource.
func NewWorkshareRegion(ref, encounteringTaskID uint64, kind WorkshareKind, count uint64) *Region {
	r := newRegion(ref, RegionWorkshare, encounteringTaskID)
	r.Workshare = &WorksharePayload{Kind: kind, Count: count}
	return r
}

// NewSyncRegion constructs a synchronise region.
func NewSyncRegion(ref, encounteringTaskID uint64, kind SyncKind) *Region {
	r := newRegion(ref, RegionSynchronise, encounteringTaskID)
	r.Sync = &SyncPayload{Kind: kind}
	return r
}

// NewMasterRegion constructs a master region.
func NewMasterRegion(ref, encounteringTaskID, thread uint64) *Region {
	r := newRegion(ref, RegionMaster, encounteringTaskID)
	r.Master = &MasterPayload{Thread: thread}
	return r
}

// NewTaskRegion constructs a task region. parentKind/parentID/hasParent
// describe the encountering task, if any (absent for the initial task).
func NewTaskRegion(ref, encounteringTaskID, taskID uint64, kind TaskKind, flags TaskFlags, hasDependences bool, parentID uint64, parentKind TaskKind, hasParent bool) *Region {
	r := newRegion(ref, RegionTask, encounteringTaskID)
	r.Task = &TaskPayload{
		ID:             taskID,
		Kind:           kind,
		Flags:          flags,
		ParentID:       parentID,
		ParentKind:     parentKind,
		HasParent:      hasParent,
		HasDependences: hasDependences,
	}
	return r
}

// NewParallelRegionObject constructs a parallel region and its shared
// coordinator state (4.D, 4.F); its own mutex and rgn_defs queue are
// initialised here. scopeBegin is the task-graph node already created
// for this region's scope-begin (§4.G).
func NewParallelRegionObject(ref, encounteringTaskID, id uint64, requestedParallelism uint32, isLeague bool, scopeBegin taskgraph.NodeRef) *Region {
	r := newRegion(ref, RegionParallel, encounteringTaskID)
	r.Parallel = &ParallelRegion{
		Region:               r,
		ID:                   id,
		RequestedParallelism: requestedParallelism,
		IsLeague:             isLeague,
		ScopeBegin:           scopeBegin,
		RgnDefs:              NewRegionDefinitionQueue(),
	}
	return r
}
