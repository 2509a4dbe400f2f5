package otterreceiver

import (
	"context"
	"sync"

	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"
)

// OtelSpanSink wraps an OTF2Writer and mirrors every Enter/Leave pair into
// an OTel ptrace.Traces span, so the same Recorder/Dispatcher callbacks
// that build the OTF2 archive (§4.C) can also feed a collector pipeline
// ([ADDED], since spec.md's archive-only sink has no OTel consumer of its
// own). TraceID/SpanID are derived from (locationID, regionRef) by hashing,
// the same way ids.go derives a stable identifier without a random source.
type OtelSpanSink struct {
	inner OTF2Writer

	mu       sync.Mutex
	traces   ptrace.Traces
	resource pcommon.Map
	scope    ptrace.ScopeSpans
	pending  map[spanKey]ptrace.Span
}

type spanKey struct {
	locationID uint64
	regionRef  uint64
}

// NewOtelSpanSink builds a span sink that also forwards every call to
// inner, so the OTF2 archive and the OTel pipeline stay in lockstep.
func NewOtelSpanSink(inner OTF2Writer, serviceName string) *OtelSpanSink {
	traces := ptrace.NewTraces()
	rs := traces.ResourceSpans().AppendEmpty()
	rs.Resource().Attributes().PutStr("service.name", serviceName)
	rs.Resource().Attributes().PutStr("service.namespace", OtterServiceNamespace)
	ss := rs.ScopeSpans().AppendEmpty()
	ss.Scope().SetName(OtterInstrumentationName)
	return &OtelSpanSink{
		inner:    inner,
		traces:   traces,
		resource: rs.Resource().Attributes(),
		scope:    ss,
		pending:  make(map[spanKey]ptrace.Span),
	}
}

// SetResourceAttribute attaches a process-identifying attribute (e.g.
// hostname, pid) to every span's resource, gated by IncludeSettings so
// operators opt in rather than having it on unconditionally.
func (s *OtelSpanSink) SetResourceAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resource.PutStr(key, value)
}

func (s *OtelSpanSink) OpenArchive(path, name string) error { return s.inner.OpenArchive(path, name) }
func (s *OtelSpanSink) CloseArchive() error                 { return s.inner.CloseArchive() }

func (s *OtelSpanSink) WriteClockProperties(props ClockProperties) error {
	return s.inner.WriteClockProperties(props)
}

func (s *OtelSpanSink) WriteString(ref uint64, value string) error {
	return s.inner.WriteString(ref, value)
}

func (s *OtelSpanSink) WriteSystemTreeAndLocationGroupDefaults() error {
	return s.inner.WriteSystemTreeAndLocationGroupDefaults()
}

func (s *OtelSpanSink) WriteLocationDefinition(loc *Location, name string) error {
	return s.inner.WriteLocationDefinition(loc, name)
}

func (s *OtelSpanSink) WriteRegionDefinition(region *Region, name string) error {
	return s.inner.WriteRegionDefinition(region, name)
}

func (s *OtelSpanSink) ThreadBegin(locationID, timestamp uint64) error {
	return s.inner.ThreadBegin(locationID, timestamp)
}

func (s *OtelSpanSink) ThreadEnd(locationID, timestamp uint64) error {
	return s.inner.ThreadEnd(locationID, timestamp)
}

func (s *OtelSpanSink) TaskCreate(locationID, timestamp uint64, task *Region) error {
	return s.inner.TaskCreate(locationID, timestamp, task)
}

func (s *OtelSpanSink) Enter(locationID, timestamp uint64, region *Region, attrs []Attribute) error {
	if err := s.inner.Enter(locationID, timestamp, region, attrs); err != nil {
		return err
	}
	if region == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.scope.Spans().AppendEmpty()
	span.SetName(region.Kind.String())
	span.SetTraceID(pcommon.TraceID(deriveTraceID(locationID)))
	span.SetSpanID(pcommon.SpanID(deriveSpanID(locationID, region.Ref)))
	span.SetStartTimestamp(pcommon.Timestamp(timestamp))
	for _, a := range attrs {
		setSpanAttribute(span.Attributes(), a)
	}
	s.pending[spanKey{locationID, region.Ref}] = span
	return nil
}

func (s *OtelSpanSink) Leave(locationID, timestamp uint64, region *Region, attrs []Attribute) error {
	if err := s.inner.Leave(locationID, timestamp, region, attrs); err != nil {
		return err
	}
	if region == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := spanKey{locationID, region.Ref}
	span, ok := s.pending[key]
	if !ok {
		return nil
	}
	for _, a := range attrs {
		setSpanAttribute(span.Attributes(), a)
	}
	span.SetEndTimestamp(pcommon.Timestamp(timestamp))
	delete(s.pending, key)
	return nil
}

func setSpanAttribute(dst pcommon.Map, a Attribute) {
	switch v := a.Value.(type) {
	case string:
		dst.PutStr(string(a.Key), v)
	case bool:
		dst.PutBool(string(a.Key), v)
	case int:
		dst.PutInt(string(a.Key), int64(v))
	case int32:
		dst.PutInt(string(a.Key), int64(v))
	case int64:
		dst.PutInt(string(a.Key), v)
	case uint32:
		dst.PutInt(string(a.Key), int64(v))
	case uint64:
		dst.PutInt(string(a.Key), int64(v))
	}
}

// Traces returns a snapshot of every span recorded so far.
func (s *OtelSpanSink) Traces() ptrace.Traces {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.traces
}

// Export hands the accumulated spans to a collector consumer. Callers
// invoke this once a connection's dataset is complete, never mid-stream.
func (s *OtelSpanSink) Export(ctx context.Context, c consumer.Traces) error {
	if c == nil {
		return nil
	}
	return c.ConsumeTraces(ctx, s.Traces())
}
