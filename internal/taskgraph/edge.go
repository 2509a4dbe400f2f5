package taskgraph

// Edge is a directed, ordered connection between two nodes. Multi-edges
// are allowed and no cycle check is performed (§4.G).
type Edge struct {
	Src NodeRef
	Dst NodeRef
}
