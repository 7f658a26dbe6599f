package pipeline

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"time"

	"reelsmith/internal/graph"
	"reelsmith/internal/logging"
	"reelsmith/internal/mechanics"
	"reelsmith/internal/services"
)

// nodes carries the collaborators shared by every node body of one graph.
type nodes struct {
	svc    Services
	logger *slog.Logger
}

func newNodes(svc Services) *nodes {
	if svc.Mechanics == nil {
		svc.Mechanics = mechanics.NewEngine()
	}
	return &nodes{svc: svc, logger: logging.NewComponentLogger(svc.Logger, "pipeline")}
}

func (n *nodes) log(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, n.logger)
}

// fail builds the error partial for step: progress, the caller's safe
// defaults, the message, classified details and a failed status.
func (n *nodes) fail(ctx context.Context, step Step, msg string, err error, defaults graph.Partial) graph.Partial {
	p := progressPartial(step)
	maps.Copy(p, defaults)
	kind := services.KindMissingInput
	cause := ""
	if err != nil {
		kind = services.Classify(err)
		cause = err.Error()
	}
	node, _ := services.NodeFromContext(ctx)
	p[KeyError] = msg
	p[KeyErrorDetails] = map[string]any{
		"kind":  string(kind),
		"node":  node,
		"cause": cause,
	}
	p[KeyStatus] = StatusFailed
	p[KeyCompletedAt] = n.svc.now().UTC().Format(time.RFC3339)
	return p
}

// warn appends msg to the warnings list. Partials that already carry
// warnings keep them.
func (n *nodes) warn(ctx context.Context, s graph.State, p graph.Partial, msg string) {
	list, ok := p[KeyWarnings].([]string)
	if !ok {
		list = s.Strings(KeyWarnings)
	}
	p[KeyWarnings] = append(list, msg)
	logging.WarnWithContext(n.log(ctx), msg, "node_degraded",
		logging.String(logging.FieldImpact, "run continues with reduced output"),
	)
}

// bounded applies the per-node timeout from the run configuration.
func bounded(ctx context.Context, cfg RunConfig) (context.Context, context.CancelFunc) {
	if cfg.TimeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
}

// JobDir is where a job's downloaded and extracted artifacts are written.
func JobDir(cfg RunConfig, jobID string) string {
	base := cfg.WorkDir
	if base == "" {
		base = filepath.Join(os.TempDir(), "reelsmith")
	}
	return filepath.Join(base, jobID)
}

func jobDir(s graph.State) string {
	return JobDir(runConfig(s), s.String(KeyJobID))
}
