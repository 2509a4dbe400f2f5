package otterreceiver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/consumer/consumertest"
)

func Test_OtelSpanSink_EnterLeave_ProducesOneSpan(t *testing.T) {
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	region := NewSyncRegion(1, 0, SyncBarrier)

	require.NoError(t, sink.Enter(1, 100, region, []Attribute{{Key: OtterSyncKind, Value: "barrier"}}))
	require.NoError(t, sink.Leave(1, 200, region, nil))

	traces := sink.Traces()
	require.Equal(t, 1, traces.SpanCount())

	rs := traces.ResourceSpans().At(0)
	span := rs.ScopeSpans().At(0).Spans().At(0)
	require.Equal(t, uint64(100), uint64(span.StartTimestamp()))
	require.Equal(t, uint64(200), uint64(span.EndTimestamp()))
	v, ok := span.Attributes().Get(string(OtterSyncKind))
	require.True(t, ok)
	require.Equal(t, "barrier", v.Str())
}

func Test_OtelSpanSink_Enter_NilRegion_NoSpan(t *testing.T) {
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	require.NoError(t, sink.Enter(1, 100, nil, nil))
	require.Equal(t, 0, sink.Traces().SpanCount())
}

func Test_OtelSpanSink_Leave_WithoutMatchingEnter_NoPanic(t *testing.T) {
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	region := NewSyncRegion(1, 0, SyncBarrier)
	require.NoError(t, sink.Leave(1, 100, region, nil))
	require.Equal(t, 0, sink.Traces().SpanCount())
}

func Test_OtelSpanSink_SameLocationSameTraceID(t *testing.T) {
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	r1 := NewSyncRegion(1, 0, SyncBarrier)
	r2 := NewSyncRegion(2, 0, SyncTaskwait)

	require.NoError(t, sink.Enter(5, 1, r1, nil))
	require.NoError(t, sink.Enter(5, 2, r2, nil))

	traces := sink.Traces()
	spans := traces.ResourceSpans().At(0).ScopeSpans().At(0).Spans()
	require.Equal(t, spans.At(0).TraceID(), spans.At(1).TraceID())
	require.NotEqual(t, spans.At(0).SpanID(), spans.At(1).SpanID())
}

func Test_OtelSpanSink_SetResourceAttribute(t *testing.T) {
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	sink.SetResourceAttribute("host.name", "node-1")

	rs := sink.Traces().ResourceSpans().At(0)
	v, ok := rs.Resource().Attributes().Get("host.name")
	require.True(t, ok)
	require.Equal(t, "node-1", v.Str())
}

func Test_OtelSpanSink_Export_ForwardsToConsumer(t *testing.T) {
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	region := NewSyncRegion(1, 0, SyncBarrier)
	require.NoError(t, sink.Enter(1, 100, region, nil))
	require.NoError(t, sink.Leave(1, 200, region, nil))

	consumer := new(consumertest.TracesSink)
	require.NoError(t, sink.Export(context.Background(), consumer))
	require.Len(t, consumer.AllTraces(), 1)
	require.Equal(t, 1, consumer.AllTraces()[0].SpanCount())
}

func Test_OtelSpanSink_Export_NilConsumerIsNoop(t *testing.T) {
	sink := NewOtelSpanSink(NewNoopOTF2Writer(), "otter-test")
	require.NoError(t, sink.Export(context.Background(), nil))
}
