package otterreceiver

import (
	"fmt"
	"sync"
)

// OTF2Writer is the opaque external trace sink (§4.C/§6): the core never
// exposes the underlying writer's own types, only this thin interface.
// A production build would implement it against the real OTF2 C library
// via cgo; the tests in this package exercise it through
// recordingOTF2Writer.
type OTF2Writer interface {
	OpenArchive(path, name string) error
	CloseArchive() error

	WriteClockProperties(props ClockProperties) error
	WriteString(ref uint64, value string) error
	WriteSystemTreeAndLocationGroupDefaults() error
	WriteLocationDefinition(loc *Location, name string) error
	WriteRegionDefinition(region *Region, name string) error

	Enter(locationID uint64, timestamp uint64, region *Region, attrs []Attribute) error
	Leave(locationID uint64, timestamp uint64, region *Region, attrs []Attribute) error
	ThreadBegin(locationID uint64, timestamp uint64) error
	ThreadEnd(locationID uint64, timestamp uint64) error
	TaskCreate(locationID uint64, timestamp uint64, task *Region) error
}

// sinkGuard holds the two process-wide handles a trace sink needs:
// the archive handle and the definition-writer handle, each guarded by
// its own mutex. An OTF2Writer implementation is expected to hold its
// own equivalent pair; sinkGuard exists so test doubles in this package
// can reuse the same discipline without duplicating the locking.
type sinkGuard struct {
	archiveMu sync.Mutex
	defMu     sync.Mutex
}

func (g *sinkGuard) withArchive(fn func() error) error {
	g.archiveMu.Lock()
	defer g.archiveMu.Unlock()
	return fn()
}

func (g *sinkGuard) withDefWriter(fn func() error) error {
	g.defMu.Lock()
	defer g.defMu.Unlock()
	return fn()
}

// noopOTF2Writer discards every call; useful when only the engine's
// internal state (region stack, task graph) is under test and the trace
// output itself is irrelevant.
type noopOTF2Writer struct{}

func NewNoopOTF2Writer() OTF2Writer { return noopOTF2Writer{} }

func (noopOTF2Writer) OpenArchive(string, string) error                      { return nil }
func (noopOTF2Writer) CloseArchive() error                                   { return nil }
func (noopOTF2Writer) WriteClockProperties(ClockProperties) error            { return nil }
func (noopOTF2Writer) WriteString(uint64, string) error                      { return nil }
func (noopOTF2Writer) WriteSystemTreeAndLocationGroupDefaults() error        { return nil }
func (noopOTF2Writer) WriteLocationDefinition(*Location, string) error       { return nil }
func (noopOTF2Writer) WriteRegionDefinition(*Region, string) error           { return nil }
func (noopOTF2Writer) Enter(uint64, uint64, *Region, []Attribute) error      { return nil }
func (noopOTF2Writer) Leave(uint64, uint64, *Region, []Attribute) error      { return nil }
func (noopOTF2Writer) ThreadBegin(uint64, uint64) error                      { return nil }
func (noopOTF2Writer) ThreadEnd(uint64, uint64) error                       { return nil }
func (noopOTF2Writer) TaskCreate(uint64, uint64, *Region) error             { return nil }

// RecordedEvent captures one call made to a recordingOTF2Writer, in call
// order, for assertions in tests.
type RecordedEvent struct {
	Kind       string
	LocationID uint64
	Timestamp  uint64
	RegionRef  uint64
	Attrs      []Attribute
}

// recordingOTF2Writer is the test double used by this package's own test
// suite to assert on emitted event order and attribute content (§4.C,
// "a noopOTF2Writer and a recordingOTF2Writer (test double)").
type recordingOTF2Writer struct {
	sinkGuard

	mu       sync.Mutex
	opened   bool
	path     string
	name     string
	clock    ClockProperties
	strings  map[uint64]string
	events   []RecordedEvent
}

func NewRecordingOTF2Writer() *recordingOTF2Writer {
	return &recordingOTF2Writer{strings: make(map[uint64]string)}
}

func (w *recordingOTF2Writer) OpenArchive(path, name string) error {
	return w.withArchive(func() error {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.opened = true
		w.path = path
		w.name = name
		return nil
	})
}

func (w *recordingOTF2Writer) CloseArchive() error {
	return w.withArchive(func() error {
		w.mu.Lock()
		defer w.mu.Unlock()
		if !w.opened {
			return fmt.Errorf("otterreceiver: close of unopened archive")
		}
		w.opened = false
		return nil
	})
}

func (w *recordingOTF2Writer) WriteClockProperties(props ClockProperties) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clock = props
	return nil
}

func (w *recordingOTF2Writer) WriteString(ref uint64, value string) error {
	return w.withDefWriter(func() error {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.strings[ref] = value
		return nil
	})
}

func (w *recordingOTF2Writer) WriteSystemTreeAndLocationGroupDefaults() error {
	return w.withDefWriter(func() error { return nil })
}

func (w *recordingOTF2Writer) WriteLocationDefinition(*Location, string) error {
	return w.withDefWriter(func() error { return nil })
}

func (w *recordingOTF2Writer) WriteRegionDefinition(*Region, string) error {
	return w.withDefWriter(func() error { return nil })
}

func (w *recordingOTF2Writer) record(kind string, locationID, ts uint64, region *Region, attrs []Attribute) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ref uint64
	if region != nil {
		ref = region.Ref
	}
	w.events = append(w.events, RecordedEvent{Kind: kind, LocationID: locationID, Timestamp: ts, RegionRef: ref, Attrs: attrs})
	return nil
}

func (w *recordingOTF2Writer) Enter(locationID, ts uint64, region *Region, attrs []Attribute) error {
	return w.record("enter", locationID, ts, region, attrs)
}

func (w *recordingOTF2Writer) Leave(locationID, ts uint64, region *Region, attrs []Attribute) error {
	return w.record("leave", locationID, ts, region, attrs)
}

func (w *recordingOTF2Writer) ThreadBegin(locationID, ts uint64) error {
	return w.record("thread_begin", locationID, ts, nil, nil)
}

func (w *recordingOTF2Writer) ThreadEnd(locationID, ts uint64) error {
	return w.record("thread_end", locationID, ts, nil, nil)
}

func (w *recordingOTF2Writer) TaskCreate(locationID, ts uint64, task *Region) error {
	return w.record("task_create", locationID, ts, task, nil)
}

// Events returns a snapshot of every call recorded so far, in order.
func (w *recordingOTF2Writer) Events() []RecordedEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]RecordedEvent, len(w.events))
	copy(out, w.events)
	return out
}
