package taskgraph

import "sync"

// Graph is a directed acyclic multigraph of Nodes and ordered Edges.
// Structural mutations (AddNode, AddEdge, AttachSubgraph) are guarded by
// a single mutex (§4.G). A Graph value used as an ephemeral subgraph
// (built inside a scope, then spliced into the main graph) needs no
// separate type — AttachSubgraph drains one Graph into another.
type Graph struct {
	mu    sync.Mutex
	nodes []Node
	edges []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddNode appends a node and returns a stable reference to it.
func (g *Graph) AddNode(kind Kind, data any) NodeRef {
	g.mu.Lock()
	defer g.mu.Unlock()
	ref := NodeRef(len(g.nodes))
	g.nodes = append(g.nodes, Node{Ref: ref, Kind: kind, Data: data})
	return ref
}

// AddEdge declares a directed edge from src to dst. Multi-edges are
// allowed; no cycle check is performed.
func (g *Graph) AddEdge(src, dst NodeRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges = append(g.edges, Edge{Src: src, Dst: dst})
	if int(src) < len(g.nodes) {
		g.nodes[src].outEdges++
	}
}

// CloseScope implements the §4.G scope-end rule: every node in
// generated that has no outgoing edge is linked to end; if generated is
// empty, a single edge begin→end is added instead.
func (g *Graph) CloseScope(begin, end NodeRef, generated []NodeRef) {
	g.mu.Lock()
	dangling := make([]NodeRef, 0, len(generated))
	for _, ref := range generated {
		if int(ref) < len(g.nodes) && g.nodes[ref].outEdges == 0 {
			dangling = append(dangling, ref)
		}
	}
	g.mu.Unlock()

	if len(generated) == 0 {
		g.AddEdge(begin, end)
		return
	}
	for _, ref := range dangling {
		g.AddEdge(ref, end)
	}
}

// AttachSubgraph moves every node and edge of sub into g, renumbering
// sub's node refs to their new position in g, and leaves sub empty.
// No edges are synthesised across the seam — callers add them
// explicitly. AttachSubgraph returns the mapping from sub's old refs to
// g's new refs, so the caller can translate any refs it held onto.
func (g *Graph) AttachSubgraph(sub *Graph) map[NodeRef]NodeRef {
	sub.mu.Lock()
	subNodes := sub.nodes
	subEdges := sub.edges
	sub.nodes = nil
	sub.edges = nil
	sub.mu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	remap := make(map[NodeRef]NodeRef, len(subNodes))
	base := NodeRef(len(g.nodes))
	for i, n := range subNodes {
		newRef := base + NodeRef(i)
		remap[n.Ref] = newRef
		n.Ref = newRef
		g.nodes = append(g.nodes, n)
	}
	for _, e := range subEdges {
		g.edges = append(g.edges, Edge{Src: remap[e.Src], Dst: remap[e.Dst]})
	}
	return remap
}

// Nodes returns a snapshot of the graph's nodes.
func (g *Graph) Nodes() []Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a snapshot of the graph's edges.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Destroy invokes freeFn(data, kind) for every node, then empties the
// graph. Per I4, a begin/end pair shares one metadata pointer and only
// the end node owns freeing it — Destroy delegates that decision to
// freeFn by passing it the node's kind, whose IsEnd() callers can branch
// on; the graph does not decide ownership itself.
func (g *Graph) Destroy(freeFn func(data any, kind Kind)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range g.nodes {
		freeFn(n.Data, n.Kind)
	}
	g.nodes = nil
	g.edges = nil
}

// Len reports the number of nodes currently in the graph.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}
