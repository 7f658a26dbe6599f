package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reelsmith/internal/cleanup"
	"reelsmith/internal/graph"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/workflow"
)

type pipelineCommandSpec struct {
	use   string
	kind  pipeline.Kind
	short string
	long  string
}

var pipelineCommandSpecs = []pipelineCommandSpec{
	{
		use:   "analyze",
		kind:  pipeline.KindAnalysis,
		short: "Break a reference video down into a blueprint",
		long: "Download the reference video, transcribe it, analyze sampled frames and\n" +
			"produce a blueprint of its hook, body and call to action.",
	},
	{
		use:   "prompt",
		kind:  pipeline.KindPrompt,
		short: "Write a video prompt for a product",
		long: "Analyze the product images and write a video prompt. Pass --blueprint with\n" +
			"the output of 'reelsmith analyze' to match a reference video's structure.",
	},
	{
		use:   "run",
		kind:  pipeline.KindFull,
		short: "Analyze a reference video, write a prompt and generate the video",
	},
}

func newPipelineCommands(ctx *commandContext) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(pipelineCommandSpecs))
	for _, spec := range pipelineCommandSpecs {
		cmds = append(cmds, newPipelineCommand(ctx, spec))
	}
	return cmds
}

func newPipelineCommand(ctx *commandContext, spec pipelineCommandSpec) *cobra.Command {
	var (
		outputPath string
		jsonOutput bool
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Long:  spec.long,
		Args:  cobra.NoArgs,
	}
	flags := bindRequestFlags(cmd, spec.kind)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the outcome JSON to this file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the outcome as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show pipeline logs")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := ctx.ensureConfig()
		if err != nil {
			return err
		}
		req, err := flags.build(cmd, cfg)
		if err != nil {
			return err
		}

		runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		progress := newProgressPrinter(cmd.ErrOrStderr(), jsonOutput)
		outcome, err := runForeground(runCtx, ctx, spec.kind, req, verbose, progress.observe)
		progress.finish()
		if err != nil {
			return err
		}

		if outputPath != "" {
			if err := writeOutcomeFile(outputPath, outcome); err != nil {
				return err
			}
		}
		if jsonOutput {
			if err := writeJSON(cmd, outcome); err != nil {
				return err
			}
		} else {
			fmt.Fprint(cmd.OutOrStdout(), renderOutcome(outcome))
			if outputPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Outcome written to %s\n", outputPath)
			}
		}
		if !outcome.Succeeded() {
			return fmt.Errorf("pipeline %s: %s", outcome.Status, outcome.Error)
		}
		return nil
	}
	return cmd
}

// runForeground executes one pipeline in-process and removes its artifacts
// unless the run keeps temp files.
func runForeground(ctx context.Context, cc *commandContext, kind pipeline.Kind, req workflow.Request, verbose bool, observe func(graph.Event)) (pipeline.Outcome, error) {
	cfg := cc.configValue()
	logger := cc.logger(verbose)

	factory := pipeline.NewFactory(cc.services(logger), nil)
	g, err := factory.Build(kind, graph.WithLogger(logger))
	if err != nil {
		return pipeline.Outcome{}, err
	}

	jobID := uuid.NewString()
	runCfg := req.RunConfig(cfg)
	seed, err := req.Seed(kind, jobID, runCfg)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	stream := g.Stream(ctx, seed)
	for ev := range stream.Events() {
		if observe != nil {
			observe(ev)
		}
	}
	res, runErr := stream.Wait()
	outcome := pipeline.NewOutcome(res)
	if !runCfg.KeepTempFiles {
		cleanup.RemoveArtifacts(pipeline.JobDir(runCfg, jobID), outcome.Artifacts(), logger)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return outcome, fmt.Errorf("interrupted after %d steps: %w", outcome.Steps, runErr)
		}
		return outcome, runErr
	}
	return outcome, nil
}

func writeOutcomeFile(path string, outcome pipeline.Outcome) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}

func renderOutcome(o pipeline.Outcome) string {
	var b strings.Builder
	fields := [][2]string{
		{"Run", o.RunID},
		{"Status", string(o.Status)},
		{"Steps", fmt.Sprintf("%d (%s)", o.Steps, strings.Join(o.Path, " → "))},
		{"Error", o.Error},
	}
	if !o.Summary.IsZero() {
		fields = append(fields,
			[2]string{"Hook", o.Summary.HookStyle},
			[2]string{"Body", o.Summary.BodyFramework},
			[2]string{"Call to action", o.Summary.CTAUrgency},
			[2]string{"Energy", o.Summary.Energy},
			[2]string{"Duration", formatSeconds(o.Summary.Duration)},
		)
	}
	if o.ProductAnalysis.Type != "" {
		fields = append(fields, [2]string{"Product", o.ProductAnalysis.Type})
	}
	fields = append(fields,
		[2]string{"Prompt", o.FinalPrompt},
		[2]string{"Script", o.SuggestedScript},
		[2]string{"Video", o.VideoURL},
	)
	if o.CostUSD > 0 {
		fields = append(fields, [2]string{"Cost", "$" + humanize.FormatFloat("#,###.##", o.CostUSD)})
	}
	b.WriteString(renderFields(fields))
	for _, w := range o.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return b.String()
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1fs", seconds)
}

// progressPrinter renders node completions. Terminals get a single line that
// is rewritten in place.
type progressPrinter struct {
	w     io.Writer
	quiet bool
	live  bool
	dirty bool
}

func newProgressPrinter(w io.Writer, quiet bool) *progressPrinter {
	return &progressPrinter{w: w, quiet: quiet, live: shouldColorize(w)}
}

func (p *progressPrinter) observe(ev graph.Event) {
	if p.quiet {
		return
	}
	line := formatProgress(ev)
	if p.live {
		fmt.Fprintf(p.w, "\r\x1b[2K%s", line)
		p.dirty = true
		return
	}
	fmt.Fprintln(p.w, line)
}

func (p *progressPrinter) finish() {
	if p.dirty {
		fmt.Fprintln(p.w)
		p.dirty = false
	}
}

func formatProgress(ev graph.Event) string {
	total := ev.TotalSteps
	if total <= 0 {
		total = pipeline.TotalSteps
	}
	label := ev.CurrentStep
	if label == "" {
		label = ev.Node
	}
	return fmt.Sprintf("[%2d/%d] %-24s %5.1f%%", ev.Step, total, pipeline.StepTitle(label), pipeline.Percentage(ev.Step, total))
}
