package otterreceiver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher() (*Dispatcher, *recordingOTF2Writer) {
	w := NewRecordingOTF2Writer()
	engine := NewEngine(w)
	return NewDispatcher(engine, zap.NewNop()), w
}

func Test_Dispatcher_ThreadBeginEnd(t *testing.T) {
	d, w := newTestDispatcher()

	require.NoError(t, d.OnThreadBegin(1, LocationInitial))
	require.NoError(t, d.OnThreadEnd(1))

	require.Equal(t, []string{"thread_begin", "thread_end"}, eventKinds(w.Events()))
}

func Test_Dispatcher_ThreadEnd_UnknownThread(t *testing.T) {
	d, _ := newTestDispatcher()
	err := d.OnThreadEnd(99)
	require.Error(t, err)
}

func Test_Dispatcher_ParallelBeginEnd_RegistersHandle(t *testing.T) {
	d, _ := newTestDispatcher()
	require.NoError(t, d.OnThreadBegin(1, LocationInitial))

	require.NoError(t, d.OnParallelBegin(1, 7, 4, false))
	p, ok := d.parallel(7)
	require.True(t, ok)
	require.Equal(t, uint32(4), p.RequestedParallelism)

	require.NoError(t, d.OnParallelEnd(1, 7))
}

func Test_Dispatcher_ImplicitTaskBeginEnd_WorkerJoinsByHandle(t *testing.T) {
	d, _ := newTestDispatcher()
	require.NoError(t, d.OnThreadBegin(1, LocationInitial))
	require.NoError(t, d.OnThreadBegin(2, LocationWorker))

	require.NoError(t, d.OnParallelBegin(1, 7, 2, false))
	require.NoError(t, d.OnImplicitTaskBegin(2, 7, 0, 1))
	require.NoError(t, d.OnImplicitTaskEnd(2, 7))
	require.NoError(t, d.OnParallelEnd(1, 7))
}

func Test_Dispatcher_TaskCreate_UsesCurrentTaskAsParent(t *testing.T) {
	d, _ := newTestDispatcher()
	require.NoError(t, d.OnThreadBegin(1, LocationInitial))
	require.NoError(t, d.OnImplicitTaskBegin(1, 0, 0, 0))

	require.NoError(t, d.OnTaskCreate(1, TaskExplicit, 0, false))

	rec, ok := d.recorder(1)
	require.True(t, ok)
	nodes := d.engine.Graph.Nodes()
	created := nodes[len(nodes)-1].Data.(*Region)
	require.True(t, created.Task.HasParent)
	require.Equal(t, rec.CurrentTask().Task.ID, created.Task.ParentID)
	require.Equal(t, rec.CurrentTask().Task.Kind, created.Task.ParentKind)
}

func Test_Dispatcher_WorkBeginEnd(t *testing.T) {
	d, _ := newTestDispatcher()
	require.NoError(t, d.OnThreadBegin(1, LocationInitial))

	require.NoError(t, d.OnWorkBegin(1, WorkshareSections, 3))
	require.NoError(t, d.OnWorkEnd(1))
}

func Test_Dispatcher_SyncRegionBeginEnd(t *testing.T) {
	d, _ := newTestDispatcher()
	require.NoError(t, d.OnThreadBegin(1, LocationInitial))

	require.NoError(t, d.OnSyncRegionBegin(1, SyncTaskgroup))
	require.NoError(t, d.OnSyncRegionEnd(1))
}

func Test_Dispatcher_Register_SkipsUnsupportedCallback(t *testing.T) {
	d, _ := newTestDispatcher()
	registered := map[string]bool{}
	lookup := func(name string) func(handler any) bool {
		if name == "ompt_callback_thread_begin" {
			return func(handler any) bool {
				registered[name] = true
				return true
			}
		}
		return nil
	}
	d.Register(lookup)
	require.True(t, registered["ompt_callback_thread_begin"])
	require.False(t, registered["ompt_callback_parallel_begin"])
}

func Test_ParseLocationKind(t *testing.T) {
	require.Equal(t, LocationInitial, ParseLocationKind("initial"))
	require.Equal(t, LocationWorker, ParseLocationKind("worker"))
	require.Equal(t, LocationUnknown, ParseLocationKind("bogus"))
}

func Test_ParseWorkshareKind(t *testing.T) {
	require.Equal(t, WorkshareSections, ParseWorkshareKind("sections"))
	require.Equal(t, WorkshareLoop, ParseWorkshareKind("bogus"))
}

func Test_ParseSyncKind(t *testing.T) {
	require.Equal(t, SyncTaskgroup, ParseSyncKind("taskgroup"))
	require.Equal(t, SyncBarrier, ParseSyncKind("bogus"))
}

func Test_ParseTaskKind(t *testing.T) {
	require.Equal(t, TaskTarget, ParseTaskKind("target"))
	require.Equal(t, TaskExplicit, ParseTaskKind("bogus"))
}
