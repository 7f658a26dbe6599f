package graph

import (
	"context"
	"fmt"
	"iter"
)

// Run executes the graph to completion and returns the final state. The error
// is non-nil only when ctx is cancelled; node failures are reported through
// Result.Status and the state's error field.
func (g *Graph) Run(ctx context.Context, seed State) (Result, error) {
	return g.newExecution(seed).run(ctx)
}

// Handle tracks a run started in the background.
type Handle struct {
	exec   *execution
	cancel context.CancelFunc
	done   chan struct{}
	result Result
	err    error
}

// Start launches the run in its own goroutine and returns immediately.
func (g *Graph) Start(ctx context.Context, seed State) *Handle {
	return g.launch(ctx, g.newExecution(seed), nil)
}

func (g *Graph) launch(ctx context.Context, e *execution, onDone func()) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{exec: e, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer cancel()
		defer close(h.done)
		if onDone != nil {
			defer onDone()
		}
		h.result, h.err = e.run(ctx)
	}()
	return h
}

// ID returns the run id.
func (h *Handle) ID() string { return h.exec.runID }

// Done is closed once the run has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the run finishes.
func (h *Handle) Wait() (Result, error) {
	<-h.done
	return h.result, h.err
}

// Cancel aborts the run. Nodes observe the cancellation through their context.
func (h *Handle) Cancel() { h.cancel() }

// Status reports the current lifecycle state.
func (h *Handle) Status() Status {
	status, _, _ := h.exec.snapshot()
	return status
}

// CurrentStep returns the label of the most recently completed node.
func (h *Handle) CurrentStep() string {
	_, current, _ := h.exec.snapshot()
	return current
}

// Steps returns the number of completed node executions.
func (h *Handle) Steps() int {
	_, _, steps := h.exec.snapshot()
	return steps
}

// Stream is a run whose node completions are yielded to the consumer. The
// executor waits for each loop body to return before it starts the next
// step, so a consumer that cancels while handling an event stops the run at
// that boundary.
type Stream struct {
	*Handle
	events chan Event
	acks   chan struct{}
}

// Stream starts the run and yields an Event after each node.
func (g *Graph) Stream(ctx context.Context, seed State) *Stream {
	return g.stream(ctx, g.newExecution(seed))
}

func (g *Graph) stream(ctx context.Context, e *execution) *Stream {
	s := &Stream{events: make(chan Event), acks: make(chan struct{})}
	e.emit = func(ctx context.Context, ev Event) {
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
		select {
		case <-s.acks:
		case <-ctx.Done():
		}
	}
	s.Handle = g.launch(ctx, e, func() { close(s.events) })
	return s
}

// Events yields one Event per completed node until the run finishes. Leaving
// the loop early cancels the run. A stream may be ranged over once.
func (s *Stream) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for ev := range s.events {
			if !yield(ev) {
				s.Cancel()
				return
			}
			select {
			case s.acks <- struct{}{}:
			case <-s.done:
			}
		}
	}
}

// Resume continues a run from its latest step boundary checkpoint.
func (g *Graph) Resume(ctx context.Context, runID string) (Result, error) {
	e, err := g.resumeExecution(ctx, runID)
	if err != nil {
		return Result{}, err
	}
	return e.run(ctx)
}

// ResumeStream continues a run like Resume and streams its remaining events.
func (g *Graph) ResumeStream(ctx context.Context, runID string) (*Stream, error) {
	e, err := g.resumeExecution(ctx, runID)
	if err != nil {
		return nil, err
	}
	return g.stream(ctx, e), nil
}

func (g *Graph) resumeExecution(ctx context.Context, runID string) (*execution, error) {
	store := g.opts.checkpointer
	if store == nil {
		return nil, ErrNoCheckpointer
	}
	history, err := store.List(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	cp, ok := lastBoundary(history)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotResumable, runID)
	}
	seed := cp.State.Clone()
	seed[KeyRunID] = runID
	e := g.newExecution(seed)
	e.state = cp.State.Clone()
	e.step = cp.Step
	e.frontier = cp.Next
	e.resumed = true
	for name, arrived := range cloneJoins(cp.Joins) {
		e.joins[name] = arrived
	}
	for _, h := range history {
		if h.Node != "" && h.Step <= cp.Step {
			e.path = append(e.path, h.Node)
			e.current = h.Node
		}
	}
	if label := e.state.String(KeyCurrentStep); label != "" {
		e.current = label
	}
	return e, nil
}
