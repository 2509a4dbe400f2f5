package taskgraph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind_EndRoundTrip(t *testing.T) {
	end := KindTaskExplicit.End()
	require.True(t, end.IsEnd())
	require.False(t, KindTaskExplicit.IsEnd())
	require.Equal(t, KindTaskExplicit, end.Base())
}

func TestGraph_AddNodeAddEdge(t *testing.T) {
	g := New()
	a := g.AddNode(KindTaskInitial, "initial")
	b := g.AddNode(KindTaskExplicit, "child")
	g.AddEdge(a, b)

	require.Len(t, g.Nodes(), 2)
	require.Len(t, g.Edges(), 1)
	nodes := g.Nodes()
	require.True(t, nodes[a].HasOutgoingEdge())
	require.False(t, nodes[b].HasOutgoingEdge())
}

func TestGraph_CloseScope_LinksDanglingNodes(t *testing.T) {
	g := New()
	begin := g.AddNode(KindScopeParallel, nil)
	t1 := g.AddNode(KindTaskImplicit, "t1")
	t2 := g.AddNode(KindTaskImplicit, "t2")
	g.AddEdge(begin, t1)
	g.AddEdge(begin, t2)
	end := g.AddNode(KindScopeParallel.End(), nil)

	g.CloseScope(begin, end, []NodeRef{t1, t2})

	edges := g.Edges()
	require.Len(t, edges, 4)
	require.Contains(t, edges, Edge{Src: t1, Dst: end})
	require.Contains(t, edges, Edge{Src: t2, Dst: end})
}

func TestGraph_CloseScope_NoTasksLinksBeginToEnd(t *testing.T) {
	g := New()
	begin := g.AddNode(KindScopeParallel, nil)
	end := g.AddNode(KindScopeParallel.End(), nil)

	g.CloseScope(begin, end, nil)

	edges := g.Edges()
	require.Len(t, edges, 1)
	require.Equal(t, Edge{Src: begin, Dst: end}, edges[0])
}

func TestGraph_AttachSubgraph_MovesAndEmpties(t *testing.T) {
	main := New()
	root := main.AddNode(KindTaskInitial, "root")

	sub := New()
	a := sub.AddNode(KindTaskExplicit, "a")
	b := sub.AddNode(KindTaskExplicit, "b")
	sub.AddEdge(a, b)

	remap := main.AttachSubgraph(sub)
	main.AddEdge(root, remap[a])

	require.Equal(t, 0, sub.Len())
	require.Len(t, sub.Edges(), 0)
	require.Len(t, main.Nodes(), 3)
	require.Len(t, main.Edges(), 2)
}

func TestGraph_Destroy_InvokesFreeFnPerNodeAndEmpties(t *testing.T) {
	g := New()
	g.AddNode(KindTaskImplicit, "begin-data")
	g.AddNode(KindTaskImplicit.End(), "begin-data") // shared pointer, per I4

	var freed []bool
	g.Destroy(func(data any, kind Kind) {
		freed = append(freed, kind.IsEnd())
	})

	require.Equal(t, []bool{false, true}, freed)
	require.Equal(t, 0, g.Len())
}

func TestGraph_WriteDot(t *testing.T) {
	g := New()
	a := g.AddNode(KindTaskInitial, nil)
	b := g.AddNode(KindTaskExplicit, nil)
	g.AddEdge(a, b)

	var buf bytes.Buffer
	require.NoError(t, g.Write(&buf, FormatDot))
	require.Contains(t, buf.String(), "digraph tasks {")
	require.Contains(t, buf.String(), "n0 -> n1;")
}

func TestGraph_WriteEdgeList(t *testing.T) {
	g := New()
	a := g.AddNode(KindTaskInitial, nil)
	b := g.AddNode(KindTaskExplicit, nil)
	c := g.AddNode(KindTaskExplicit, nil)
	g.AddEdge(a, b)
	g.AddEdge(a, c)

	var buf bytes.Buffer
	require.NoError(t, g.Write(&buf, FormatEdgeList))
	require.Equal(t, "0 1\n0 2\n", buf.String())
}

func TestGraph_Write_UnknownFormat(t *testing.T) {
	g := New()
	g.AddNode(KindTaskInitial, nil)

	var buf bytes.Buffer
	err := g.Write(&buf, Format(99))
	require.Error(t, err)
}

func TestGraph_WriteAttributes(t *testing.T) {
	g := New()
	g.AddNode(KindTaskInitial, "root")
	g.AddNode(KindTaskExplicit, "child")

	var buf bytes.Buffer
	attrOf := func(n Node) map[string]string {
		return map[string]string{"label": n.Data.(string)}
	}
	require.NoError(t, g.WriteAttributes(&buf, attrOf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"ref,kind,label",
		"0,task.initial,root",
		"1,task.explicit,child",
	}, lines)
}

func TestGraph_WriteAttributes_EmptyGraphWritesNothing(t *testing.T) {
	g := New()
	var buf bytes.Buffer
	require.NoError(t, g.WriteAttributes(&buf, func(n Node) map[string]string { return nil }))
	require.Empty(t, buf.String())
}
