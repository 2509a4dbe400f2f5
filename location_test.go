package otterreceiver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Location_PushPopRegion_MatchingKind(t *testing.T) {
	loc := NewLocation(1, LocationWorker)
	r := NewSyncRegion(1, 0, SyncBarrier)
	loc.PushRegion(r)

	cur, ok := loc.CurrentRegion()
	require.True(t, ok)
	require.Same(t, r, cur)

	popped, matched := loc.PopRegion(RegionSynchronise)
	require.True(t, matched)
	require.Same(t, r, popped)
}

func Test_Location_PopRegion_KindMismatch(t *testing.T) {
	loc := NewLocation(1, LocationWorker)
	loc.PushRegion(NewSyncRegion(1, 0, SyncBarrier))

	popped, matched := loc.PopRegion(RegionWorkshare)
	require.False(t, matched)
	require.NotNil(t, popped)
}

func Test_Location_PopRegion_EmptyStack(t *testing.T) {
	loc := NewLocation(1, LocationWorker)
	popped, matched := loc.PopRegion(RegionWorkshare)
	require.Nil(t, popped)
	require.False(t, matched)
}

func Test_Location_PushRegion_NonParallelQueuesDefinition(t *testing.T) {
	loc := NewLocation(1, LocationInitial)
	r := NewSyncRegion(1, 0, SyncBarrier)
	loc.PushRegion(r)
	require.Equal(t, 1, loc.RgnDefs.Len())
}

func Test_Location_PushRegion_ParallelDoesNotQueueDefinition(t *testing.T) {
	loc := NewLocation(1, LocationInitial)
	p := NewParallelRegionObject(1, 0, 1, 2, false, 0)
	loc.PushRegion(p)
	require.Equal(t, 0, loc.RgnDefs.Len())
}

func Test_Location_EnterLeaveParallelScope_RestoresOuterQueue(t *testing.T) {
	loc := NewLocation(1, LocationInitial)
	outer := NewSyncRegion(1, 0, SyncBarrier)
	loc.PushRegion(outer)
	require.Equal(t, 1, loc.RgnDefs.Len())

	loc.EnterParallelScope()
	require.Equal(t, 0, loc.RgnDefs.Len())

	inner := NewSyncRegion(2, 0, SyncTaskwait)
	loc.PushRegion(inner)
	require.Equal(t, 1, loc.RgnDefs.Len())

	innerQueue := loc.LeaveParallelScope()
	require.Equal(t, 1, innerQueue.Len())
	require.Equal(t, 1, loc.RgnDefs.Len()) // outer queue restored, still holding `outer`
}

func Test_LocationKind_String(t *testing.T) {
	require.Equal(t, "initial", LocationInitial.String())
	require.Equal(t, "worker", LocationWorker.String())
	require.Equal(t, "unknown", LocationKind(99).String())
}
