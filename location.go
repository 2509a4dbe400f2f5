package otterreceiver

import (
	"github.com/otter-trace/otterreceiver/internal/containers"
)

// LocationKind distinguishes the thread roles the OMPT spec names
// (ompt_thread_initial / ompt_thread_worker / ompt_thread_unknown).
type LocationKind int

const (
	LocationUnknown LocationKind = iota
	LocationInitial
	LocationWorker
)

func (k LocationKind) String() string {
	switch k {
	case LocationInitial:
		return "initial"
	case LocationWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// Location is the thread-local state a Recorder keeps for one OS thread
// for the lifetime of that thread (§4.D). Everything it owns is touched
// only by the thread it belongs to — the region stack discipline relies
// on this single-writer property, so Location itself carries no mutex.
type Location struct {
	ID     uint64
	Kind   LocationKind
	Events uint64

	// RegionStack is the LIFO of regions this thread currently has open.
	// Push on every *-begin callback, pop on the matching *-end callback;
	// a pop that doesn't match the callback kind being handled indicates
	// a nesting violation (I1).
	RegionStack *containers.Stack[*Region]

	// RgnDefs accumulates region definitions created by this thread
	// outside of any parallel region (e.g. the initial task, or a master
	// thread before its first parallel construct). It is flushed to the
	// sink at thread-end (Recorder.flushLocationDefs); while a parallel
	// region is open, a fresh queue takes its place and is merged into
	// that ParallelRegion on leave.
	RgnDefs *containers.Queue[*Region]

	// RgnDefsStack saves an outer scope's RgnDefs queue when a nested
	// parallel region begins, so definitions created inside the nested
	// region don't bleed into the enclosing scope's queue; it is
	// restored on the matching parallel-end.
	RgnDefsStack *containers.Stack[*containers.Queue[*Region]]

	// Attributes is a scratch buffer reused across Enter/Leave calls on
	// this thread, avoiding a fresh allocation per event.
	Attributes *AttributeList
}

// NewLocation constructs a Location for a freshly observed thread.
func NewLocation(id uint64, kind LocationKind) *Location {
	return &Location{
		ID:           id,
		Kind:         kind,
		RegionStack:  containers.NewStack[*Region](),
		RgnDefs:      containers.NewQueue[*Region](),
		RgnDefsStack: containers.NewStack[*containers.Queue[*Region]](),
		Attributes:   NewAttributeList(),
	}
}

// PushRegion opens a new region on this thread's stack and queues its
// definition for later flush, unless the region is a parallel region
// (whose definition belongs to the shared ParallelRegion, not this
// Location) — see NewParallelRegionObject.
func (l *Location) PushRegion(r *Region) {
	l.RegionStack.Push(r)
	if r.Kind != RegionParallel {
		l.RgnDefs.Push(r)
	}
	l.Events++
}

// PopRegion closes the innermost open region, matching it against want
// to catch a nesting violation (I1). It returns the closed region and
// whether the stack discipline held.
func (l *Location) PopRegion(want RegionKind) (*Region, bool) {
	r, ok := l.RegionStack.Pop()
	if !ok {
		return nil, false
	}
	l.Events++
	return r, r.Kind == want
}

// CurrentRegion returns the innermost open region, if any.
func (l *Location) CurrentRegion() (*Region, bool) {
	return l.RegionStack.Peek()
}

// EnterParallelScope saves this thread's current RgnDefs queue and
// starts a fresh one for the nested parallel region's own local
// definitions, restored by LeaveParallelScope.
func (l *Location) EnterParallelScope() {
	l.RgnDefsStack.Push(l.RgnDefs)
	l.RgnDefs = containers.NewQueue[*Region]()
}

// LeaveParallelScope restores the RgnDefs queue saved by the matching
// EnterParallelScope. It returns the queue accumulated during the scope
// just left, which the caller merges into the ParallelRegion's shared
// queue before restoring the outer one.
func (l *Location) LeaveParallelScope() *containers.Queue[*Region] {
	inner := l.RgnDefs
	outer, ok := l.RgnDefsStack.Pop()
	if !ok {
		outer = containers.NewQueue[*Region]()
	}
	l.RgnDefs = outer
	return inner
}
