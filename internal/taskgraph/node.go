// Package taskgraph builds the process-wide task-graph artefact: nodes
// for tasks, scope boundaries, and standalone synchronisation points, and
// the directed edges between them. It is grounded directly on
// include/otter-task-graph/task-graph.h and the edge-derivation policy in
// on_ompt_callback_task_create/on_ompt_callback_parallel_end.
package taskgraph

// Kind tags a Node. Every "begin" kind has a matching "end" kind formed
// by setting the high bit (endFlag) so a begin/end pair is distinguished
// while sharing the same base value — the scheme invariant I4 relies on
// to decide which of the pair owns (frees) the shared metadata pointer.
type Kind uint8

const endFlag Kind = 1 << 7

const (
	KindTaskInitial Kind = iota + 1
	KindTaskImplicit
	KindTaskExplicit
	KindTaskTarget
	KindScopeParallel
	KindScopeWorkshare
	KindSyncBarrier
	KindSyncTaskwait
	KindSyncTaskgroup
)

// End returns the end-node kind corresponding to a begin/standalone kind.
func (k Kind) End() Kind { return k | endFlag }

// IsEnd reports whether k has the high bit set, i.e. it is the "end" half
// of a begin/end pair and therefore owns its shared metadata.
func (k Kind) IsEnd() bool { return k&endFlag != 0 }

// Base strips the high bit, recovering the matching begin kind from an
// end kind (a no-op on a kind that is already a begin kind).
func (k Kind) Base() Kind { return k &^ endFlag }

func (k Kind) String() string {
	suffix := ""
	if k.IsEnd() {
		suffix = ":end"
	}
	switch k.Base() {
	case KindTaskInitial:
		return "task.initial" + suffix
	case KindTaskImplicit:
		return "task.implicit" + suffix
	case KindTaskExplicit:
		return "task.explicit" + suffix
	case KindTaskTarget:
		return "task.target" + suffix
	case KindScopeParallel:
		return "scope.parallel" + suffix
	case KindScopeWorkshare:
		return "scope.workshare" + suffix
	case KindSyncBarrier:
		return "sync.barrier" + suffix
	case KindSyncTaskwait:
		return "sync.taskwait" + suffix
	case KindSyncTaskgroup:
		return "sync.taskgroup" + suffix
	default:
		return "unknown"
	}
}

// NodeRef is a stable reference to a Node returned by Graph.AddNode;
// callers use it to build edges without holding a pointer into the
// graph's internal storage.
type NodeRef uint64

// Node is one vertex of the task graph: a tagged kind plus an opaque data
// pointer to the owning Region/task object (left untyped here, since the
// graph package doesn't know about Region).
type Node struct {
	Ref  NodeRef
	Kind Kind
	Data any

	// outEdges counts outgoing edges from this node, used by scope-end
	// processing to find begin-generated nodes with no outgoing edge yet
	// (§4.G "Scope begin/end").
	outEdges int
}

// HasOutgoingEdge reports whether any edge has been added with this node
// as its source.
func (n *Node) HasOutgoingEdge() bool { return n.outEdges > 0 }
