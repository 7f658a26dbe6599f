package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelsmith/internal/language"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/queue"
	"reelsmith/internal/workflow"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"queue"},
		Short:   "Inspect and manage queued jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsWatchCommand(ctx))
	jobsCmd.AddCommand(newJobsCancelCommand(ctx))
	jobsCmd.AddCommand(newJobsDeleteCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsHealthCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				jobs, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Kind", "Status", "Step", "Progress", "Created", "Source"},
					buildJobRows(jobs, time.Now()),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

const unreadableInput = "<unreadable input>"

func buildJobRows(jobs []*queue.Job, now time.Time) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		source := unreadableInput
		var req workflow.Request
		if err := job.DecodeInput(&req); err == nil {
			source = truncateText(req.Source(), 48)
		}
		rows = append(rows, []string{
			shortJobID(job.ID),
			job.Kind,
			string(job.Status),
			stepLabel(job),
			fmt.Sprintf("%.0f%%", job.ProgressPercent),
			humanize.RelTime(job.CreatedAt, now, "ago", "from now"),
			source,
		})
	}
	return rows
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job and its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				job, err := resolveJob(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				var req workflow.Request
				if err := job.DecodeInput(&req); err != nil {
					return err
				}
				var outcome pipeline.Outcome
				if err := job.DecodeResult(&outcome); err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, jobView{Job: job, Request: req, Outcome: outcome})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderJob(job, req, time.Now()))
				if job.ResultJSON != "" {
					fmt.Fprint(cmd.OutOrStdout(), renderOutcome(outcome))
					if lang := outcome.Transcript.Language; lang != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "Transcript language: %s\n", language.DisplayName(lang))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the job as JSON")
	return cmd
}

type jobView struct {
	Job     *queue.Job       `json:"job"`
	Request workflow.Request `json:"request"`
	Outcome pipeline.Outcome `json:"outcome"`
}

func renderJob(job *queue.Job, req workflow.Request, now time.Time) string {
	fields := [][2]string{
		{"ID", job.ID},
		{"Kind", job.Kind},
		{"Status", string(job.Status)},
		{"Step", stepLabel(job)},
		{"Progress", fmt.Sprintf("%.1f%%", job.ProgressPercent)},
		{"Source", req.Source()},
		{"Created", humanize.RelTime(job.CreatedAt, now, "ago", "from now")},
		{"Error", job.ErrorMessage},
	}
	if elapsed := job.Elapsed(now); elapsed > 0 {
		fields = append(fields, [2]string{"Elapsed", elapsed.Round(time.Second).String()})
	}
	if job.LastHeartbeat != nil && job.IsProcessing() {
		fields = append(fields, [2]string{"Heartbeat", humanize.RelTime(*job.LastHeartbeat, now, "ago", "from now")})
	}
	return renderFields(fields)
}

func newJobsWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow a job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				job, err := resolveJob(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				final, err := watchJob(cmd.Context(), store, job.ID, cmd.OutOrStdout(), interval)
				if err != nil {
					return err
				}
				return jobOutcomeError(final)
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval")
	return cmd
}

// watchJob polls the store and prints each step change until the job reaches
// a terminal status.
func watchJob(ctx context.Context, store *queue.Store, id string, w io.Writer, interval time.Duration) (*queue.Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := ""
	for {
		job, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job == nil {
			return nil, fmt.Errorf("job %s was deleted", shortJobID(id))
		}
		line := fmt.Sprintf("%-10s %-24s %5.1f%%", job.Status, stepLabel(job), job.ProgressPercent)
		if line != last {
			fmt.Fprintln(w, line)
			last = line
		}
		if job.Status.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func jobOutcomeError(job *queue.Job) error {
	if job == nil || job.Status == queue.StatusCompleted {
		return nil
	}
	if job.ErrorMessage != "" {
		return fmt.Errorf("job %s %s: %s", shortJobID(job.ID), job.Status, job.ErrorMessage)
	}
	return fmt.Errorf("job %s %s", shortJobID(job.ID), job.Status)
}

func newJobsCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>...",
		Short: "Cancel queued or running jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				for _, arg := range args {
					job, err := resolveJob(cmd.Context(), store, arg)
					if err != nil {
						return err
					}
					err = store.MarkCancelled(cmd.Context(), job.ID)
					switch {
					case errors.Is(err, queue.ErrJobNotFound):
						fmt.Fprintf(cmd.OutOrStdout(), "Job %s is already %s\n", shortJobID(job.ID), job.Status)
					case err != nil:
						return err
					default:
						fmt.Fprintf(cmd.OutOrStdout(), "Cancelled job %s\n", shortJobID(job.ID))
					}
				}
				return nil
			})
		},
	}
}

func newJobsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete jobs; a running job stops at its next step",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				for _, arg := range args {
					job, err := resolveJob(cmd.Context(), store, arg)
					if err != nil {
						return err
					}
					removed, err := store.Delete(cmd.Context(), job.ID)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", shortJobID(job.ID))
					}
				}
				return nil
			})
		},
	}
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed or cancelled jobs (all failed jobs when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					job, err := resolveJob(cmd.Context(), store, arg)
					if err != nil {
						return err
					}
					ids = append(ids, job.ID)
				}
				count, err := store.Retry(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d %s\n", count, plural(count, "job"))
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlags []string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			if all && len(statuses) > 0 {
				return errors.New("specify only one of --all or --status")
			}
			if !all && len(statuses) == 0 {
				statuses = []queue.Status{queue.StatusCompleted, queue.StatusFailed, queue.StatusCancelled}
			}
			return ctx.withStore(func(store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", removed, plural(removed, "job"))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Only clear jobs in these statuses")
	cmd.Flags().BoolVar(&all, "all", false, "Clear every job, including queued and running ones")
	return cmd
}

func newJobsHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the job database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				fields := [][2]string{
					{"Database", health.DBPath},
					{"Schema version", health.SchemaVersion},
					{"Integrity check", yesNo(health.IntegrityCheck)},
					{"Jobs", fmt.Sprintf("%d", health.TotalJobs)},
					{"Missing columns", strings.Join(health.MissingColumns, ", ")},
					{"Error", health.Error},
				}
				fmt.Fprint(cmd.OutOrStdout(), renderFields(fields))
				if !health.IntegrityCheck || len(health.MissingColumns) > 0 {
					return errors.New("job database is unhealthy")
				}
				return nil
			})
		},
	}
}

func resolveJob(ctx context.Context, store *queue.Store, ref string) (*queue.Job, error) {
	job, err := store.FindByPrefix(ctx, ref)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %q not found", ref)
	}
	return job, nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func stepLabel(job *queue.Job) string {
	if job.CurrentStep == "" {
		return "-"
	}
	return pipeline.StepTitle(job.CurrentStep)
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateText(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
