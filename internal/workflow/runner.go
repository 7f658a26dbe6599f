package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/cleanup"
	"reelsmith/internal/config"
	"reelsmith/internal/graph"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
)

// ErrJobGone reports that a job was deleted or cancelled while it ran.
var ErrJobGone = errors.New("job deleted or cancelled during run")

// Observer receives each node completion of a job's run.
type Observer func(graph.Event)

// Runner executes single jobs against the job store.
type Runner struct {
	cfg       *config.Config
	store     *queue.Store
	factory   *pipeline.Factory
	notifier  notifications.Service
	logger    *slog.Logger
	jobLogs   *JobLogs
	heartbeat *HeartbeatMonitor
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithNotifier overrides the notifier built from the configuration.
func WithNotifier(n notifications.Service) RunnerOption {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// NewRunner builds a runner over svc. Checkpointing follows
// cfg.Pipeline.Checkpointing.
func NewRunner(cfg *config.Config, store *queue.Store, svc pipeline.Services, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if svc.Logger == nil {
		svc.Logger = logger
	}
	var checkpoints graph.CheckpointStore
	if cfg.Pipeline.Checkpointing {
		checkpoints = store.Checkpointer()
	}
	r := &Runner{
		cfg:       cfg,
		store:     store,
		factory:   pipeline.NewFactory(svc, checkpoints),
		notifier:  notifications.NewService(cfg),
		logger:    logging.NewComponentLogger(logger, "workflow"),
		jobLogs:   NewJobLogs(cfg),
		heartbeat: NewHeartbeatMonitor(store, logger, time.Duration(cfg.Workflow.StaleJobTimeout)*time.Second),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a claimed job to completion and records its outcome. It
// returns ErrJobGone when the job was removed mid-run and the context error
// when ctx was cancelled; in the latter case the job stays processing so it
// can be reclaimed and resumed.
func (r *Runner) Run(ctx context.Context, job *queue.Job, observe Observer) (pipeline.Outcome, error) {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger, closer, logErr := r.jobLogs.Logger(r.logger, job.ID)
	defer closer.Close()
	logger = logging.WithContext(ctx, logger)
	if logErr != nil {
		logger.Warn("job log unavailable", logging.Error(logErr),
			logging.String(logging.FieldEventType, "job_log_unavailable"),
			logging.String(logging.FieldImpact, "job events only appear in the daemon log"),
		)
	}

	kind, err := pipeline.ParseKind(job.Kind)
	if err != nil {
		return pipeline.Outcome{}, r.reject(ctx, logger, job, err)
	}
	var req Request
	if err := job.DecodeInput(&req); err != nil {
		return pipeline.Outcome{}, r.reject(ctx, logger, job, err)
	}
	runCfg := req.RunConfig(r.cfg)
	if runCfg.WorkDir == "" {
		runCfg.WorkDir = r.cfg.Paths.WorkDir
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	var gone atomic.Bool
	onGone := func() {
		if gone.CompareAndSwap(false, true) {
			cancelRun()
		}
	}

	sink := queue.NewProgressSink(r.store, logger, func(string) { onGone() })
	g, err := r.factory.Build(kind, graph.WithLogger(logger), graph.WithReporter(sink))
	if err != nil {
		return pipeline.Outcome{}, r.reject(ctx, logger, job, err)
	}
	stream, resumed, err := r.start(runCtx, logger, g, kind, job, req, runCfg)
	if err != nil {
		return pipeline.Outcome{}, r.reject(ctx, logger, job, err)
	}
	if err := r.store.SetRunID(ctx, job.ID, stream.ID()); errors.Is(err, queue.ErrJobNotFound) {
		onGone()
	} else if err != nil {
		logger.Warn("run id not recorded", logging.Error(err),
			logging.String(logging.FieldEventType, "run_id_unrecorded"),
			logging.String(logging.FieldImpact, "a reclaimed job restarts instead of resuming"),
		)
	}

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String(logging.FieldRunID, stream.ID()),
		logging.String(logging.FieldGraph, string(kind)),
		logging.Bool("resumed", resumed),
		logging.String("source", req.Source()),
	)

	hbCtx, hbCancel := context.WithCancel(runCtx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go r.heartbeat.StartLoop(hbCtx, &hbWG, job.ID, onGone)

	for ev := range stream.Events() {
		if observe != nil {
			observe(ev)
		}
	}
	res, runErr := stream.Wait()
	hbCancel()
	hbWG.Wait()

	outcome := pipeline.NewOutcome(res)
	switch {
	case gone.Load():
		logger.Info("job cancelled",
			logging.String(logging.FieldEventType, "job_cancelled"),
			logging.Int(logging.FieldStep, outcome.Steps),
		)
		r.removeArtifacts(logger, runCfg, job.ID, outcome)
		if err := r.store.DeleteCheckpoints(context.WithoutCancel(ctx), stream.ID()); err != nil {
			logger.Debug("checkpoints not removed", logging.Error(err))
		}
		return outcome, ErrJobGone
	case runErr != nil:
		logger.Info("job interrupted; it will resume after restart",
			logging.String(logging.FieldEventType, "job_interrupted"),
			logging.Int(logging.FieldStep, outcome.Steps),
		)
		return outcome, runErr
	}

	r.finish(ctx, logger, job, req, runCfg, outcome)
	return outcome, nil
}

func (r *Runner) start(ctx context.Context, logger *slog.Logger, g *graph.Graph, kind pipeline.Kind, job *queue.Job, req Request, runCfg pipeline.RunConfig) (*graph.Stream, bool, error) {
	if job.RunID != "" && kind == pipeline.KindFull && r.cfg.Pipeline.Checkpointing {
		stream, err := g.ResumeStream(ctx, job.RunID)
		if err == nil {
			return stream, true, nil
		}
		logger.Info("starting over; previous run cannot be resumed",
			logging.String(logging.FieldEventType, "resume_skipped"),
			logging.String(logging.FieldRunID, job.RunID),
			logging.Error(err),
		)
	}
	seed, err := req.Seed(kind, job.ID, runCfg)
	if err != nil {
		return nil, false, err
	}
	if err := r.store.DeleteCheckpoints(ctx, job.ID); err != nil {
		logger.Debug("stale checkpoints not removed", logging.Error(err))
	}
	return g.Stream(ctx, seed), false, nil
}

// finish stores the outcome, removes artifacts and notifies.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, job *queue.Job, req Request, runCfg pipeline.RunConfig, outcome pipeline.Outcome) {
	persistCtx := context.WithoutCancel(ctx)
	var storeErr error
	if outcome.Succeeded() {
		storeErr = r.store.SetResult(persistCtx, job.ID, outcome)
		if err := r.store.DeleteCheckpoints(persistCtx, outcome.RunID); err != nil {
			logger.Debug("checkpoints not removed", logging.Error(err))
		}
	} else {
		storeErr = r.store.SetError(persistCtx, job.ID, failureMessage(outcome), outcome)
	}
	switch {
	case errors.Is(storeErr, queue.ErrJobNotFound):
		logger.Info("job removed before its outcome was stored",
			logging.String(logging.FieldEventType, "job_cancelled"),
		)
	case storeErr != nil:
		logging.ErrorWithContext(logger, "failed to persist job outcome", "job_persist_failed",
			logging.Error(storeErr),
			logging.String(logging.FieldErrorHint, "check queue database access"),
			logging.String(logging.FieldImpact, "job stays processing until reclaimed"),
		)
	}

	if !runCfg.KeepTempFiles {
		r.removeArtifacts(logger, runCfg, job.ID, outcome)
	}

	elapsed := time.Duration(0)
	if job.StartedAt != nil {
		elapsed = time.Since(*job.StartedAt)
	}
	summary := notifications.Job{
		ID:       job.ID,
		Kind:     job.Kind,
		Source:   req.Source(),
		VideoURL: outcome.VideoURL,
		CostUSD:  outcome.CostUSD,
		Elapsed:  elapsed,
	}

	if outcome.Succeeded() {
		logger.Info("job completed",
			logging.String(logging.FieldEventType, "job_complete"),
			logging.Int(logging.FieldStep, outcome.Steps),
			logging.Int("warnings", len(outcome.Warnings)),
			logging.Duration("elapsed", elapsed),
		)
		r.notify(persistCtx, logger, func(ctx context.Context) error {
			return r.notifier.NotifyJobCompleted(ctx, summary)
		})
		return
	}

	attrs := []logging.Attr{
		logging.String("error_message", outcome.Error),
		logging.Alert("job_failure"),
		logging.String(logging.FieldErrorHint, failureHint(outcome)),
		logging.String(logging.FieldImpact, "job marked failed; retry with `reelsmith jobs retry`"),
	}
	if node, ok := outcome.ErrorDetails["node"].(string); ok && node != "" {
		attrs = append(attrs, logging.String(logging.FieldNode, node))
	}
	logging.ErrorWithContext(logger, "job failed", "job_failure", attrs...)
	r.notify(persistCtx, logger, func(ctx context.Context) error {
		return r.notifier.NotifyJobFailed(ctx, summary, errors.New(failureMessage(outcome)))
	})
}

// reject fails a job that could not be started at all.
func (r *Runner) reject(ctx context.Context, logger *slog.Logger, job *queue.Job, cause error) error {
	message := services.Message(cause)
	logging.ErrorWithContext(logger, "job rejected", "job_rejected",
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "check the job input with `reelsmith jobs show`"),
	)
	if err := r.store.SetError(context.WithoutCancel(ctx), job.ID, message, nil); err != nil && !errors.Is(err, queue.ErrJobNotFound) {
		return fmt.Errorf("persist job rejection: %w", err)
	}
	r.notify(ctx, logger, func(ctx context.Context) error {
		return r.notifier.NotifyJobFailed(ctx, notifications.Job{ID: job.ID, Kind: job.Kind}, cause)
	})
	return fmt.Errorf("job %s rejected: %w", job.ID, cause)
}

func (r *Runner) removeArtifacts(logger *slog.Logger, runCfg pipeline.RunConfig, jobID string, outcome pipeline.Outcome) {
	result := cleanup.RemoveArtifacts(pipeline.JobDir(runCfg, jobID), outcome.Artifacts(), logger)
	if len(result.Skipped) > 0 {
		logger.Debug("artifacts outside the job directory kept",
			logging.Int("count", len(result.Skipped)),
		)
	}
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not send notification")
			return
		}
		logger.Debug("notification failed", logging.Error(err))
	}
}

func failureMessage(o pipeline.Outcome) string {
	if o.Error != "" {
		return o.Error
	}
	return fmt.Sprintf("run ended with status %s", o.Status)
}

func failureHint(o pipeline.Outcome) string {
	switch kind, _ := o.ErrorDetails["kind"].(string); services.Kind(kind) {
	case services.KindConfiguration:
		return "check api keys and binaries in config.toml"
	case services.KindMissingInput:
		return "check the video url and product images"
	case services.KindUnparseable:
		return "the model returned malformed output; retry the job"
	default:
		return "an external service failed; retry the job or check its status"
	}
}
