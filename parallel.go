package otterreceiver

import (
	"sync"

	"github.com/otter-trace/otterreceiver/internal/containers"
	"github.com/otter-trace/otterreceiver/internal/taskgraph"
)

// ParallelRegion is the coordinator object shared by every thread that
// enters the same parallel region (§4.F). Exactly one ParallelRegion
// instance exists per ompt_parallel_begin, reached by every member
// thread through the parallel handle the Dispatcher registers for it.
// RefCount/EnterCount/RgnDefs all live behind one mutex per region.
type ParallelRegion struct {
	// Region is the tagged Region wrapping this coordinator, so a
	// ParallelRegion can be pushed onto a thread's region stack like any
	// other kind.
	Region *Region

	ID                   uint64
	RequestedParallelism uint32
	ActualParallelism    uint32
	IsLeague             bool

	// ScopeBegin is this region's task-graph scope-begin node (§4.G); the
	// matching end node is added when the region is retired.
	ScopeBegin taskgraph.NodeRef

	mu         sync.Mutex
	RefCount   uint32 // number of threads that have entered but not yet left
	EnterCount uint32 // total number of threads that have ever entered
	RgnDefs    *containers.Queue[*Region]
	generated  []taskgraph.NodeRef // task nodes edged directly from ScopeBegin
}

// NewRegionDefinitionQueue returns an empty queue of region definitions
// awaiting flush. A parallel region's own queue accumulates the
// definitions contributed by every member thread (4.F); a per-thread
// Location's queue accumulates definitions created outside any parallel
// region (4.E).
func NewRegionDefinitionQueue() *containers.Queue[*Region] {
	return containers.NewQueue[*Region]()
}

// EnterAndEmit performs the mutex-guarded portion of the enter algorithm
// for a parallel region (§4.E): emit is called with the region's mutex
// held, then ref_count/enter_count are incremented before the mutex is
// released, so the sink never observes a partially-updated count.
func (p *ParallelRegion) EnterAndEmit(emit func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := emit(); err != nil {
		return err
	}
	p.RefCount++
	p.EnterCount++
	if p.EnterCount > p.ActualParallelism {
		p.ActualParallelism = p.EnterCount
	}
	return nil
}

// LeaveAndMerge splices a thread's locally accumulated region
// definitions onto this region's shared queue in O(1) (P6) and
// decrements ref_count, both under the region's mutex so a concurrent
// leaver can't observe a merge without its matching decrement or
// vice versa. It returns the ref count remaining after the decrement;
// when it reaches zero, the caller is the thread responsible for
// draining and flushing RgnDefs and retiring the region (P3).
func (p *ParallelRegion) LeaveAndMerge(local *containers.Queue[*Region]) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	containers.Append(p.RgnDefs, local)
	p.RefCount--
	return p.RefCount
}

// Drain removes and returns every definition queued for this region,
// leaving the queue empty. Called once, by the thread that observes
// RefCount drop to zero.
func (p *ParallelRegion) Drain() []*Region {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Region
	for {
		r, ok := p.RgnDefs.Pop()
		if !ok {
			break
		}
		out = append(out, r)
	}
	return out
}

// AddGenerated records that node was given a direct edge from this
// region's ScopeBegin node, so CloseScope can later find it if it never
// acquired an outgoing edge of its own.
func (p *ParallelRegion) AddGenerated(node taskgraph.NodeRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generated = append(p.generated, node)
}

// Generated returns a snapshot of every node directly edged from
// ScopeBegin so far.
func (p *ParallelRegion) Generated() []taskgraph.NodeRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]taskgraph.NodeRef, len(p.generated))
	copy(out, p.generated)
	return out
}
