package graph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// Status is the lifecycle of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Result is the outcome of a run.
type Result struct {
	RunID       string
	Status      Status
	State       State
	Steps       int
	CurrentStep string
	Path        []string
}

// Event is yielded to stream consumers after each node completes.
type Event struct {
	RunID       string
	Node        string
	Partial     Partial
	Step        int
	CurrentStep string
	TotalSteps  int
}

type completion struct {
	node    string
	partial Partial
	state   State
	step    int
	label   string
}

type execution struct {
	g      *Graph
	runID  string
	jobID  string
	logger *slog.Logger
	emit   func(context.Context, Event)

	mu       sync.Mutex
	status   Status
	state    State
	step     int
	current  string
	path     []string
	frontier []string
	joins    map[string][]string
	resumed  bool
}

func (g *Graph) newExecution(seed State) *execution {
	state := seed.Clone()
	runID := state.String(KeyRunID)
	if runID == "" {
		runID = state.String(KeyJobID)
	}
	if runID == "" {
		runID = uuid.NewString()
	}
	jobID := state.String(KeyJobID)
	if jobID == "" {
		jobID = runID
	}
	logger := logging.NewComponentLogger(g.opts.logger, "graph").With(
		logging.String(logging.FieldGraph, g.name),
		logging.String(logging.FieldRunID, runID),
	)
	return &execution{
		g:      g,
		runID:  runID,
		jobID:  jobID,
		logger: logger,
		status: StatusPending,
		state:  state,
		joins:  make(map[string][]string),
	}
}

func (e *execution) run(ctx context.Context) (Result, error) {
	ctx = services.WithRunID(ctx, e.runID)
	ctx = services.WithJobID(ctx, e.jobID)

	e.mu.Lock()
	e.status = StatusRunning
	if !e.resumed {
		e.frontier = e.advance([]string{Start})
	}
	e.mu.Unlock()

	e.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Bool("resumed", e.resumed),
		logging.Int(logging.FieldStep, e.step),
	)

	for {
		e.mu.Lock()
		frontier := slices.Clone(e.frontier)
		snapshot := e.state
		overLimit := e.step >= e.g.opts.maxSteps
		if len(frontier) > 0 && overLimit {
			e.state = Merge(e.state, Partial{
				KeyError:     fmt.Sprintf("step limit %d reached", e.g.opts.maxSteps),
				KeyErrorType: "step_limit",
			})
			e.frontier = nil
			frontier = nil
		}
		e.mu.Unlock()

		if len(frontier) == 0 {
			break
		}
		if ctx.Err() != nil {
			return e.cancel(ctx)
		}
		partials := e.execute(ctx, frontier, snapshot)
		if ctx.Err() != nil {
			return e.cancel(ctx)
		}
		e.commit(ctx, frontier, partials)
	}
	return e.finish()
}

// execute runs one superstep. Every node sees the same snapshot, and no
// successor starts until the whole frontier has returned.
func (e *execution) execute(ctx context.Context, frontier []string, snapshot State) []Partial {
	results := make([]Partial, len(frontier))
	if e.g.opts.sequential || len(frontier) == 1 {
		for i, name := range frontier {
			results[i] = e.invoke(ctx, name, snapshot)
		}
		return results
	}
	var wg sync.WaitGroup
	for i, name := range frontier {
		wg.Go(func() {
			results[i] = e.invoke(ctx, name, snapshot)
		})
	}
	wg.Wait()
	return results
}

func (e *execution) invoke(ctx context.Context, name string, snapshot State) Partial {
	n := e.g.nodes[name]
	nctx := services.WithNode(ctx, name)
	logger := logging.WithContext(nctx, e.logger)
	logger.Debug("node started",
		logging.String(logging.FieldEventType, "node_start"),
		logging.String("node_kind", n.kind.String()),
	)
	started := time.Now()
	partial := n.invoke(nctx, snapshot)
	elapsed := time.Since(started)
	if msg, _ := partial[KeyError].(string); msg != "" {
		logging.WarnWithContext(logger, "node reported error", "node_failed",
			logging.String(logging.FieldErrorHint, msg),
			logging.String(logging.FieldImpact, "run is routed to end at the next junction"),
			logging.Duration("duration", elapsed),
		)
		return partial
	}
	logger.Info("node completed",
		logging.String(logging.FieldEventType, "node_complete"),
		logging.Duration("duration", elapsed),
		logging.Int("fields", len(partial)),
	)
	return partial
}

// commit merges the step's partials in frontier order, routes, then publishes
// progress, checkpoints and events for each node.
func (e *execution) commit(ctx context.Context, frontier []string, partials []Partial) {
	e.mu.Lock()
	done := make([]completion, 0, len(frontier))
	for i, name := range frontier {
		p := partials[i]
		e.state = Merge(e.state, p)
		e.step++
		e.path = append(e.path, name)
		label, _ := p[KeyCurrentStep].(string)
		if label == "" {
			label = name
		}
		e.current = label
		done = append(done, completion{node: name, partial: p, state: e.state, step: e.step, label: label})
	}
	e.frontier = e.advance(frontier)
	done[len(done)-1].state = e.state
	next := slices.Clone(e.frontier)
	joins := cloneJoins(e.joins)
	total := e.totalSteps()
	e.mu.Unlock()

	for i, c := range done {
		e.report(ctx, c, total)
		if e.g.opts.checkpointer != nil {
			cp := Checkpoint{RunID: e.runID, Step: c.step, Node: c.node, State: c.state, Status: CheckpointSaved}
			if i == len(done)-1 {
				cp.Boundary = true
				cp.Next = next
				cp.Joins = joins
			}
			e.save(ctx, cp)
		}
		if e.emit != nil {
			e.emit(ctx, Event{
				RunID:       e.runID,
				Node:        c.node,
				Partial:     c.partial,
				Step:        c.step,
				CurrentStep: c.label,
				TotalSteps:  total,
			})
		}
	}
}

func (e *execution) report(ctx context.Context, c completion, total int) {
	r := e.g.opts.reporter
	if r == nil {
		return
	}
	index := c.step
	if v := State(c.partial).Int(KeyStepNumber); v > 0 {
		index = v
	}
	r.OnStep(ctx, e.jobID, c.label, index, total)
}

func (e *execution) totalSteps() int {
	if n := e.state.Int(KeyTotalSteps); n > 0 {
		return n
	}
	if e.g.opts.totalSteps > 0 {
		return e.g.opts.totalSteps
	}
	return len(e.g.order)
}

func (e *execution) save(ctx context.Context, cp Checkpoint) {
	if err := e.g.opts.checkpointer.Save(ctx, cp); err != nil {
		logging.WarnWithContext(e.logger, "checkpoint save failed", "checkpoint_failed",
			logging.Error(err),
			logging.Int(logging.FieldStep, cp.Step),
			logging.String(logging.FieldErrorHint, "check the checkpoint store"),
			logging.String(logging.FieldImpact, "run cannot be resumed from this step"),
		)
	}
}

// advance routes every node of a finished step and returns the next frontier.
// Callers hold e.mu.
func (e *execution) advance(finished []string) []string {
	var next []string
	for _, from := range finished {
		for _, to := range e.route(from) {
			switch {
			case to == End:
			case e.g.nodes[to].kind == kindJoin:
				if !slices.Contains(e.joins[to], from) {
					e.joins[to] = append(e.joins[to], from)
				}
			case !slices.Contains(next, to):
				next = append(next, to)
			}
		}
	}
	return e.releaseJoins(next)
}

// route returns the destinations leaving from. A state carrying an error is
// forced onto the router's end label.
func (e *execution) route(from string) []string {
	o := e.g.out[from]
	if o.branch == nil {
		return o.direct
	}
	if e.state.HasError() && o.endLabel != "" {
		attrs := append([]logging.Attr{logging.String(logging.FieldNode, from)},
			logging.DecisionAttrs("route", o.endLabel, "state carries error")...)
		e.logger.Debug("junction short-circuited", logging.Args(attrs...)...)
		return o.branch.routes[o.endLabel]
	}
	label, err := o.branch.router.decide(e.state)
	if err != nil {
		e.state = Merge(e.state, Partial{
			KeyError:     fmt.Sprintf("%s: %v", from, err),
			KeyErrorType: "router",
		})
		logging.ErrorWithContext(e.logger, "router failed", "router_failed",
			logging.String(logging.FieldNode, from),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "router must return one of its declared labels"),
		)
		if o.endLabel == "" {
			return nil
		}
		return o.branch.routes[o.endLabel]
	}
	attrs := append([]logging.Attr{logging.String(logging.FieldNode, from)},
		logging.DecisionAttrs("route", label, "router")...)
	e.logger.Debug("junction routed", logging.Args(attrs...)...)
	return o.branch.routes[label]
}

// releaseJoins appends waiting joins whose outstanding predecessors can no
// longer deliver. Joins that only wait on each other are released one at a
// time in declaration order.
func (e *execution) releaseJoins(next []string) []string {
	waiting := e.waitingJoins()
	for _, j := range waiting {
		if e.joinReady(j, next) {
			next = append(next, j)
			delete(e.joins, j)
		}
	}
	if len(next) == 0 {
		if rest := e.waitingJoins(); len(rest) > 0 {
			next = append(next, rest[0])
			delete(e.joins, rest[0])
		}
	}
	return next
}

func (e *execution) waitingJoins() []string {
	var out []string
	for _, name := range e.g.order {
		if len(e.joins[name]) > 0 {
			out = append(out, name)
		}
	}
	return out
}

func (e *execution) joinReady(join string, next []string) bool {
	var pending []string
	for _, p := range e.g.preds[join] {
		if !slices.Contains(e.joins[join], p) {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return true
	}
	starts := slices.Clone(next)
	for _, other := range e.waitingJoins() {
		if other != join {
			starts = append(starts, other)
		}
	}
	reach := e.g.reachableFrom(starts, join)
	for _, p := range pending {
		if reach[p] {
			return false
		}
	}
	return true
}

func (e *execution) cancel(ctx context.Context) (Result, error) {
	e.mu.Lock()
	e.status = StatusCancelled
	cp := Checkpoint{
		RunID:    e.runID,
		Step:     e.step,
		State:    e.state,
		Next:     slices.Clone(e.frontier),
		Joins:    cloneJoins(e.joins),
		Boundary: true,
		Status:   CheckpointCancelled,
	}
	result := e.resultLocked()
	e.mu.Unlock()

	if store := e.g.opts.checkpointer; store != nil {
		bg := context.WithoutCancel(ctx)
		e.save(bg, cp)
		if err := store.MarkCancelled(bg, e.runID); err != nil {
			logging.WarnWithContext(e.logger, "checkpoint cancel mark failed", "checkpoint_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "checkpoints stay marked saved"),
			)
		}
	}
	e.logger.Info("run cancelled",
		logging.String(logging.FieldEventType, "run_cancelled"),
		logging.Int(logging.FieldStep, result.Steps),
		logging.String("pending", fmt.Sprint(cp.Next)),
	)
	return result, ctx.Err()
}

func (e *execution) finish() (Result, error) {
	e.mu.Lock()
	if e.state.HasError() {
		e.status = StatusFailed
	} else {
		e.status = StatusCompleted
	}
	result := e.resultLocked()
	e.mu.Unlock()

	if result.Status == StatusFailed {
		logging.WarnWithContext(e.logger, "run failed", "run_failed",
			logging.String(logging.FieldErrorHint, result.State.ErrorMessage()),
			logging.String(logging.FieldImpact, "partial results remain in state"),
			logging.Int(logging.FieldStep, result.Steps),
		)
	} else {
		e.logger.Info("run completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int(logging.FieldStep, result.Steps),
		)
	}
	return result, nil
}

func (e *execution) resultLocked() Result {
	return Result{
		RunID:       e.runID,
		Status:      e.status,
		State:       e.state.Clone(),
		Steps:       e.step,
		CurrentStep: e.current,
		Path:        slices.Clone(e.path),
	}
}

func (e *execution) snapshot() (Status, string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status, e.current, e.step
}
