package otterreceiver

import (
	"strconv"

	"github.com/otter-trace/otterreceiver/internal/taskgraph"
)

// taskGraphNodeAttrs resolves a task-graph node's opaque Data pointer
// (set at AddNode time in recorder.go/engine.go) into the CSV columns
// WriteAttributes emits alongside the ref/kind pair it always writes.
// Every row returns the same key set, regardless of which branch below
// actually had data to report, so WriteAttributes can fix the header
// from the first node.
func taskGraphNodeAttrs(n taskgraph.Node) map[string]string {
	attrs := map[string]string{
		"task_id":               "",
		"parent_id":             "",
		"has_parent":            "",
		"flags":                 "",
		"has_dependences":       "",
		"status":                "",
		"parallel_id":           "",
		"requested_parallelism": "",
		"actual_parallelism":    "",
		"is_league":             "",
	}

	switch data := n.Data.(type) {
	case *Region:
		if data != nil && data.Task != nil {
			t := data.Task
			attrs["task_id"] = strconv.FormatUint(t.ID, 10)
			attrs["parent_id"] = strconv.FormatUint(t.ParentID, 10)
			attrs["has_parent"] = strconv.FormatBool(t.HasParent)
			attrs["flags"] = strconv.FormatUint(uint64(t.Flags), 10)
			attrs["has_dependences"] = strconv.FormatBool(t.HasDependences)
			attrs["status"] = t.Status.String()
		}
	case *ParallelRegion:
		if data != nil {
			attrs["parallel_id"] = strconv.FormatUint(data.ID, 10)
			attrs["requested_parallelism"] = strconv.FormatUint(uint64(data.RequestedParallelism), 10)
			attrs["actual_parallelism"] = strconv.FormatUint(uint64(data.ActualParallelism), 10)
			attrs["is_league"] = strconv.FormatBool(data.IsLeague)
		}
	}

	return attrs
}
