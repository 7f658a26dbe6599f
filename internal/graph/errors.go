package graph

import (
	"errors"
	"fmt"
)

// Build failures reported by Compile. Each is distinct so callers and tests can
// assert the precise defect with errors.Is.
var (
	ErrDuplicateNode    = errors.New("duplicate node")
	ErrReservedName     = errors.New("reserved node name")
	ErrUnknownNode      = errors.New("edge references unknown node")
	ErrUnmappedLabel    = errors.New("router label has no destination")
	ErrUndeclaredLabel  = errors.New("destination mapped for undeclared label")
	ErrNoEntry          = errors.New("graph has no entry")
	ErrOrphanNode       = errors.New("node unreachable from entry")
	ErrDeadEnd          = errors.New("node cannot reach end")
	ErrNoTerminalRoute  = errors.New("router has no label leading to end")
	ErrMixedEdges       = errors.New("node mixes direct and conditional edges")
	ErrJoinArity        = errors.New("join needs at least two predecessors")
	ErrNilFunc          = errors.New("node function is nil")
	ErrRunNotResumable  = errors.New("run has no resumable checkpoint")
	ErrNoCheckpointer   = errors.New("graph has no checkpointer")
	ErrStepLimitReached = errors.New("step limit reached")
)

// BuildError describes a graph defect found during Compile.
type BuildError struct {
	Graph string
	Kind  error
	Node  string
	Label string
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("graph %q: %v", e.Graph, e.Kind)
	if e.Node != "" {
		msg += fmt.Sprintf(": node %q", e.Node)
	}
	if e.Label != "" {
		msg += fmt.Sprintf(": label %q", e.Label)
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Kind
}
