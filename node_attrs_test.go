package otterreceiver

import (
	"testing"

	"github.com/otter-trace/otterreceiver/internal/taskgraph"
	"github.com/stretchr/testify/require"
)

func Test_TaskGraphNodeAttrs_TaskRegion(t *testing.T) {
	task := NewTaskRegion(1, 0, 7, TaskExplicit, TaskFlagFinal, true, 3, TaskImplicit, true)
	n := taskgraph.Node{Kind: taskgraph.KindTaskExplicit, Data: task}

	attrs := taskGraphNodeAttrs(n)
	require.Equal(t, "7", attrs["task_id"])
	require.Equal(t, "3", attrs["parent_id"])
	require.Equal(t, "true", attrs["has_parent"])
	require.Equal(t, "true", attrs["has_dependences"])
	require.Equal(t, "", attrs["parallel_id"])
}

func Test_TaskGraphNodeAttrs_ParallelRegion(t *testing.T) {
	region := NewParallelRegionObject(1, 0, 5, 4, false, 0)
	region.Parallel.ActualParallelism = 3

	n := taskgraph.Node{Kind: taskgraph.KindScopeParallel.End(), Data: region.Parallel}

	attrs := taskGraphNodeAttrs(n)
	require.Equal(t, "5", attrs["parallel_id"])
	require.Equal(t, "4", attrs["requested_parallelism"])
	require.Equal(t, "3", attrs["actual_parallelism"])
	require.Equal(t, "false", attrs["is_league"])
	require.Equal(t, "", attrs["task_id"])
}

func Test_TaskGraphNodeAttrs_NilData(t *testing.T) {
	n := taskgraph.Node{Kind: taskgraph.KindTaskInitial, Data: nil}
	attrs := taskGraphNodeAttrs(n)
	require.Equal(t, "", attrs["task_id"])
	require.Equal(t, "", attrs["parallel_id"])
}
