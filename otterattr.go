package otterreceiver

import "go.opentelemetry.io/otel/attribute"

// AttrKey is the attribute-model's key type. It is defined as
// attribute.Key rather than a bare string so the attribute model shares
// the OTel key type; sink_otel.go copies each Attribute onto a pdata
// span's attribute map under string(key).
type AttrKey = attribute.Key

// Namespace and instrumentation identity injected into every resource
// the OTel sink emits.
const (
	OtterServiceNamespace     = "otter"
	OtterInstrumentationName  = "otterreceiver"
)

// Region attributes common to every kind.
const (
	OtterRegionRef      = attribute.Key("otter.region.ref")
	OtterRegionKind     = attribute.Key("otter.region.kind")
	OtterEventType      = attribute.Key("otter.event.type")
	OtterEventEndpoint  = attribute.Key("otter.event.endpoint")
)

// Parallel-region attributes.
const (
	OtterParallelID                   = attribute.Key("otter.parallel.id")
	OtterParallelRequestedParallelism = attribute.Key("otter.parallel.requested_parallelism")
	OtterParallelActualParallelism    = attribute.Key("otter.parallel.actual_parallelism")
	OtterParallelIsLeague             = attribute.Key("otter.parallel.is_league")
)

// Workshare attributes.
const (
	OtterWorkshareKind  = attribute.Key("otter.workshare.kind")
	OtterWorkshareCount = attribute.Key("otter.workshare.count")
)

// Synchronise attributes.
const (
	OtterSyncKind = attribute.Key("otter.sync.kind")
)

// Master attributes.
const (
	OtterMasterThread = attribute.Key("otter.master.thread")
)

// Task attributes.
const (
	OtterTaskID             = attribute.Key("otter.task.id")
	OtterTaskKind           = attribute.Key("otter.task.kind")
	OtterTaskFlags          = attribute.Key("otter.task.flags")
	OtterTaskParentID       = attribute.Key("otter.task.parent_id")
	OtterTaskParentKind     = attribute.Key("otter.task.parent_kind")
	OtterTaskHasDependences = attribute.Key("otter.task.has_dependences")
	OtterTaskStatus         = attribute.Key("otter.task.status")
)

// Location attributes.
const (
	OtterLocationID   = attribute.Key("otter.location.id")
	OtterLocationKind = attribute.Key("otter.location.kind")
)

// Task-graph node attributes.
const (
	OtterGraphNodeID   = attribute.Key("otter.graph.node.id")
	OtterGraphNodeKind = attribute.Key("otter.graph.node.kind")
	OtterGraphEdgeFrom = attribute.Key("otter.graph.edge.from")
	OtterGraphEdgeTo   = attribute.Key("otter.graph.edge.to")
)
