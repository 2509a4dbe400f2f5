package otterreceiver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/otter-trace/otterreceiver/internal/containers"
	"github.com/otter-trace/otterreceiver/internal/taskgraph"
)

func Test_ParallelRegion_EnterAndEmit_CountsRefAndEnter(t *testing.T) {
	r := NewParallelRegionObject(1, 0, 1, 2, false, 0)
	p := r.Parallel

	require.NoError(t, p.EnterAndEmit(func() error { return nil }))
	require.NoError(t, p.EnterAndEmit(func() error { return nil }))

	require.Equal(t, uint32(2), p.RefCount)
	require.Equal(t, uint32(2), p.EnterCount)
	require.Equal(t, uint32(2), p.ActualParallelism)
}

func Test_ParallelRegion_EnterAndEmit_PropagatesEmitError(t *testing.T) {
	r := NewParallelRegionObject(1, 0, 1, 2, false, 0)
	p := r.Parallel

	wantErr := &ResourceError{Op: "enter"}
	err := p.EnterAndEmit(func() error { return wantErr })
	require.Same(t, wantErr, err)
	require.Equal(t, uint32(0), p.RefCount)
}

func Test_ParallelRegion_LeaveAndMerge_SplicesAndDecrements(t *testing.T) {
	r := NewParallelRegionObject(1, 0, 1, 2, false, 0)
	p := r.Parallel
	require.NoError(t, p.EnterAndEmit(func() error { return nil }))
	require.NoError(t, p.EnterAndEmit(func() error { return nil }))

	local := containers.NewQueue[*Region]()
	local.Push(NewSyncRegion(10, 0, SyncBarrier))

	remaining := p.LeaveAndMerge(local)
	require.Equal(t, uint32(1), remaining)
	require.Equal(t, 1, p.RgnDefs.Len())
	require.True(t, local.Empty())
}

func Test_ParallelRegion_Drain_EmptiesQueue(t *testing.T) {
	r := NewParallelRegionObject(1, 0, 1, 2, false, 0)
	p := r.Parallel
	local := containers.NewQueue[*Region]()
	local.Push(NewSyncRegion(10, 0, SyncBarrier))
	local.Push(NewSyncRegion(11, 0, SyncTaskwait))
	p.LeaveAndMerge(local)

	defs := p.Drain()
	require.Len(t, defs, 2)
	require.Equal(t, 0, p.RgnDefs.Len())
}

func Test_ParallelRegion_AddGenerated_Generated(t *testing.T) {
	r := NewParallelRegionObject(1, 0, 1, 2, false, 0)
	p := r.Parallel
	p.AddGenerated(taskgraph.NodeRef(5))
	p.AddGenerated(taskgraph.NodeRef(6))

	got := p.Generated()
	require.Equal(t, []taskgraph.NodeRef{5, 6}, got)
}
