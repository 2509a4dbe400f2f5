package otterreceiver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/consumer/consumertest"
	"go.uber.org/zap"
)

func newTestRcvrBase() *Rcvr_Base {
	engine, _ := newTestEngine()
	return &Rcvr_Base{
		Logger:     zap.NewNop(),
		Engine:     engine,
		Dispatcher: NewDispatcher(engine, zap.NewNop()),
		RcvrConfig: &Config{},
		ctx:        context.Background(),
	}
}

func Test_DispatchLine_BlankAndCommentLinesAreNoop(t *testing.T) {
	rb := newTestRcvrBase()
	require.NoError(t, rb.dispatchLine([]byte("")))
	require.NoError(t, rb.dispatchLine([]byte("   ")))
	require.NoError(t, rb.dispatchLine([]byte("# a comment")))
	require.False(t, rb.sawData)
}

func Test_DispatchLine_MalformedJSON(t *testing.T) {
	rb := newTestRcvrBase()
	err := rb.dispatchLine([]byte(`{"event":`))
	require.Error(t, err)
}

func Test_DispatchLine_MissingEventField(t *testing.T) {
	rb := newTestRcvrBase()
	err := rb.dispatchLine([]byte(`{"thread":1}`))
	require.Error(t, err)
}

func Test_DispatchLine_UnsupportedEvent(t *testing.T) {
	rb := newTestRcvrBase()
	err := rb.dispatchLine([]byte(`{"event":"target_begin","thread":1}`))
	require.Error(t, err)
	require.False(t, rb.sawData)
}

func Test_DispatchLine_ThreadBeginEnd(t *testing.T) {
	rb := newTestRcvrBase()
	require.NoError(t, rb.dispatchLine([]byte(`{"event":"thread_begin","thread":1,"kind":"initial"}`)))
	require.True(t, rb.sawData)
	require.NoError(t, rb.dispatchLine([]byte(`{"event":"thread_end","thread":1}`)))
}

func Test_DispatchLine_FullParallelScenario(t *testing.T) {
	rb := newTestRcvrBase()
	lines := []string{
		`{"event":"thread_begin","thread":1,"kind":"initial"}`,
		`{"event":"implicit_task_begin","thread":1}`,
		`{"event":"parallel_begin","thread":1,"parallel":9,"requested_parallelism":1,"is_league":false}`,
		`{"event":"implicit_task_begin","thread":1,"parallel":9,"index":0}`,
		`{"event":"work_begin","thread":1,"kind":"loop","count":4}`,
		`{"event":"work_end","thread":1}`,
		`{"event":"implicit_task_end","thread":1}`,
		`{"event":"parallel_end","thread":1,"parallel":9}`,
		`{"event":"thread_end","thread":1}`,
	}
	for _, line := range lines {
		require.NoError(t, rb.dispatchLine([]byte(line)))
	}
}

func Test_ExportRun_SkipsWhenNoDataSeen(t *testing.T) {
	rb := newTestRcvrBase()
	rb.SpanSink = NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	consumer := new(consumertest.TracesSink)
	rb.TracesConsumer = consumer
	require.NoError(t, rb.exportRun())
	require.Empty(t, consumer.AllTraces())
}

func Test_ExportRun_ExportsAfterDataSeen(t *testing.T) {
	rb := newTestRcvrBase()
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	rb.SpanSink = sink
	consumer := new(consumertest.TracesSink)
	rb.TracesConsumer = consumer

	require.NoError(t, rb.dispatchLine([]byte(`{"event":"thread_begin","thread":1,"kind":"initial"}`)))
	require.NoError(t, rb.exportRun())
	require.Len(t, consumer.AllTraces(), 1)
}

func Test_ExportRun_WritesTaskGraphArtefacts(t *testing.T) {
	dir := t.TempDir()
	rb := newTestRcvrBase()
	rb.RcvrConfig = &Config{
		TaskGraphOutput:   filepath.Join(dir, "graph.dot"),
		TaskGraphNodeAttr: filepath.Join(dir, "nodes.csv"),
	}

	require.NoError(t, rb.dispatchLine([]byte(`{"event":"thread_begin","thread":1,"kind":"initial"}`)))
	require.NoError(t, rb.dispatchLine([]byte(`{"event":"implicit_task_begin","thread":1}`)))
	require.NoError(t, rb.dispatchLine([]byte(`{"event":"task_create","thread":1,"kind":"explicit"}`)))
	require.NoError(t, rb.exportRun())

	dot, err := os.ReadFile(filepath.Join(dir, "graph.dot"))
	require.NoError(t, err)
	require.Contains(t, string(dot), "digraph tasks {")

	csv, err := os.ReadFile(filepath.Join(dir, "nodes.csv"))
	require.NoError(t, err)
	require.Contains(t, string(csv), "ref,kind,")
	require.Contains(t, string(csv), "task.explicit")
}

func Test_ExportRun_SkipsTaskGraphWhenPathsEmpty(t *testing.T) {
	rb := newTestRcvrBase()
	require.NoError(t, rb.dispatchLine([]byte(`{"event":"thread_begin","thread":1,"kind":"initial"}`)))
	require.NoError(t, rb.exportRun())
}
