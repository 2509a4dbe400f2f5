package taskgraph

import (
	"fmt"
	"io"
	"sort"
)

// Format selects the graph file rendering written alongside the node
// attribute CSV.
type Format int

const (
	FormatDot Format = iota
	FormatEdgeList
)

// NodeAttr resolves a node's data into attribute name/value pairs for
// the CSV output; it is supplied by the caller since the graph package
// itself doesn't know about Region/task shapes.
type NodeAttr func(n Node) map[string]string

// WriteAttributes dumps one CSV row per node: ref, kind, then the
// attributes NodeAttr returns. Map iteration order isn't guaranteed in
// Go, so WriteAttributes takes the key set of the first row, sorts it
// for the header, and reads every row's values in that order; callers
// should pass a NodeAttr that always returns the same key set.
func (g *Graph) WriteAttributes(w io.Writer, attrOf NodeAttr) error {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil
	}

	keys := attrKeys(attrOf(nodes[0]))
	if _, err := fmt.Fprintf(w, "ref,kind,%s\n", joinCSV(keys)); err != nil {
		return err
	}
	for _, n := range nodes {
		attrs := attrOf(n)
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = attrs[k]
		}
		if _, err := fmt.Fprintf(w, "%d,%s,%s\n", n.Ref, n.Kind, joinCSV(vals)); err != nil {
			return err
		}
	}
	return nil
}

// Write renders the graph structure (nodes and edges) in the requested
// format.
func (g *Graph) Write(w io.Writer, format Format) error {
	switch format {
	case FormatDot:
		return g.writeDot(w)
	case FormatEdgeList:
		return g.writeEdgeList(w)
	default:
		return fmt.Errorf("taskgraph: unknown format %d", format)
	}
}

func (g *Graph) writeDot(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph tasks {"); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		if _, err := fmt.Fprintf(w, "  n%d [label=%q];\n", n.Ref, n.Kind.String()); err != nil {
			return err
		}
	}
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintf(w, "  n%d -> n%d;\n", e.Src, e.Dst); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

func (g *Graph) writeEdgeList(w io.Writer) error {
	for _, e := range g.Edges() {
		if _, err := fmt.Fprintf(w, "%d %d\n", e.Src, e.Dst); err != nil {
			return err
		}
	}
	return nil
}

func attrKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinCSV(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}
