package otterreceiver

import "sync/atomic"

// IDSource hands out monotonically increasing, process-unique IDs for each
// of the kinds the engine tracks (I5). Each counter advances independently
// via atomic fetch-and-add; no lock is needed (single-producer-per-counter
// is not assumed — multiple threads may call IncrementX concurrently).
//
// Parallel regions and tasks start counting from 1 so that a reserved
// sentinel value is always available: the implicit
// enclosing parallel region is always parallel region 0, and the
// task-graph root (not a real task) is always task 0.
type IDSource struct {
	threadID   atomic.Uint64
	parallelID atomic.Uint64
	taskID     atomic.Uint64
	stringRef  atomic.Uint64
	locationRef atomic.Uint64
	regionRef  atomic.Uint64
}

// NewIDSource returns an IDSource with counters initialised per spec.md
// §3: threads start at 0, parallel regions at 1 (0 reserved for the
// implicit enclosing region), tasks at 1 (0 reserved for the task-graph
// root), and string/location/region refs each start at 0.
func NewIDSource() *IDSource {
	ids := &IDSource{}
	ids.parallelID.Store(1)
	ids.taskID.Store(1)
	return ids
}

func (ids *IDSource) NextThreadID() uint64 {
	return ids.threadID.Add(1) - 1
}

func (ids *IDSource) NextParallelID() uint64 {
	return ids.parallelID.Add(1) - 1
}

func (ids *IDSource) NextTaskID() uint64 {
	return ids.taskID.Add(1) - 1
}

func (ids *IDSource) NextStringRef() uint64 {
	return ids.stringRef.Add(1) - 1
}

func (ids *IDSource) NextLocationRef() uint64 {
	return ids.locationRef.Add(1) - 1
}

func (ids *IDSource) NextRegionRef() uint64 {
	return ids.regionRef.Add(1) - 1
}
