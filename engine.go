package otterreceiver

import (
	"fmt"
	"os"
	"strings"

	"github.com/otter-trace/otterreceiver/internal/taskgraph"
)

// Engine holds every piece of state shared across every thread's
// Recorder: the ID and clock sources (§4.A), the trace sink (§4.C), and
// the process-wide task graph (§4.G) — a single process-wide graph
// protected by a mutex on structural mutations, which taskgraph.Graph
// already carries internally.
type Engine struct {
	IDs   *IDSource
	Clock *Clock
	Sink  OTF2Writer
	Graph *taskgraph.Graph

	initialTaskNode taskgraph.NodeRef
}

// NewEngine wires up a fresh engine. The task-graph root node (task id
// 0, reserved by IDSource for exactly this purpose) is created
// immediately so that any task whose parent is absent or initial always
// has a stable edge target, even before the initial thread's first
// implicit-task-begin callback arrives.
func NewEngine(sink OTF2Writer) *Engine {
	e := &Engine{
		IDs:   NewIDSource(),
		Clock: NewClock(),
		Sink:  sink,
		Graph: taskgraph.New(),
	}
	e.initialTaskNode = e.Graph.AddNode(taskgraph.KindTaskInitial, nil)
	return e
}

// InitialTaskNode returns the task-graph node representing the
// process-wide initial task (edge-derivation rule 1, §4.G).
func (e *Engine) InitialTaskNode() taskgraph.NodeRef {
	return e.initialTaskNode
}

// Init opens the trace archive and writes the one-time definitions every
// archive needs before any event: clock properties, the empty string at
// ref 0, and the system-tree/location-group defaults (§4.C).
func (e *Engine) Init(path, name string) error {
	if err := e.Sink.OpenArchive(path, name); err != nil {
		return fmt.Errorf("otterreceiver: open archive: %w", err)
	}
	if err := e.Sink.WriteClockProperties(e.Clock.Properties()); err != nil {
		return fmt.Errorf("otterreceiver: write clock properties: %w", err)
	}
	if err := e.Sink.WriteString(0, ""); err != nil {
		return fmt.Errorf("otterreceiver: write empty string def: %w", err)
	}
	if err := e.Sink.WriteSystemTreeAndLocationGroupDefaults(); err != nil {
		return fmt.Errorf("otterreceiver: write system tree defaults: %w", err)
	}
	return nil
}

// Shutdown closes the trace archive. The task-graph artefact is a
// separate output (§6) written by WriteTaskGraph, not by Shutdown.
func (e *Engine) Shutdown() error {
	return e.Sink.CloseArchive()
}

// WriteTaskGraph renders the process-wide task graph to the files named
// by cfg (§6): the node-attribute CSV at cfg.TaskGraphNodeAttr and the
// graph structure at cfg.TaskGraphOutput in cfg.TaskGraphFormat (dot by
// default). Either path left empty skips that output; both empty is a
// no-op, since not every deployment wants the task-graph artefact.
func (e *Engine) WriteTaskGraph(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if len(cfg.TaskGraphNodeAttr) > 0 {
		f, err := os.Create(cfg.TaskGraphNodeAttr)
		if err != nil {
			return fmt.Errorf("otterreceiver: open task graph node-attribute file: %w", err)
		}
		err = e.Graph.WriteAttributes(f, taskGraphNodeAttrs)
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("otterreceiver: write task graph node attributes: %w", err)
		}
		if closeErr != nil {
			return fmt.Errorf("otterreceiver: close task graph node-attribute file: %w", closeErr)
		}
	}

	if len(cfg.TaskGraphOutput) > 0 {
		format := taskgraph.FormatDot
		if strings.EqualFold(cfg.TaskGraphFormat, "edgelist") {
			format = taskgraph.FormatEdgeList
		}

		f, err := os.Create(cfg.TaskGraphOutput)
		if err != nil {
			return fmt.Errorf("otterreceiver: open task graph output file: %w", err)
		}
		err = e.Graph.Write(f, format)
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("otterreceiver: write task graph: %w", err)
		}
		if closeErr != nil {
			return fmt.Errorf("otterreceiver: close task graph output file: %w", closeErr)
		}
	}

	return nil
}
