package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelsmith/internal/cleanup"
	"reelsmith/internal/daemonctl"
	"reelsmith/internal/preflight"
	"reelsmith/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var checkServices bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			printLines(stdout, renderSectionHeader("System Status", colorize))
			running, pid, err := daemonctl.ProcessInfo(cfg)
			switch {
			case err != nil:
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, err.Error(), colorize))
			case running && pid > 0:
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", pid), colorize))
			case running:
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, "Running", colorize))
			default:
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusInfo, "Not running", colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Configuration", statusInfo, ctx.configPath, colorize))
			fmt.Fprintln(stdout)

			printLines(stdout, renderSectionHeader("Dependencies", colorize))
			printLines(stdout, dependencyLines(preflight.CheckSystemDeps(cfg), colorize))
			fmt.Fprintln(stdout)

			printLines(stdout, renderSectionHeader("Directories", colorize))
			results := []preflight.Result{
				preflight.CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
				preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
				preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
				preflight.CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, preflight.MinFreeBytes),
			}
			printLines(stdout, checkLines(results, colorize))
			if dirs, err := cleanup.ListDirectories(cfg.Paths.WorkDir); err == nil {
				var total int64
				for _, dir := range dirs {
					total += dir.Size
				}
				detail := fmt.Sprintf("%d job directories, %s", len(dirs), humanize.IBytes(uint64(total)))
				fmt.Fprintln(stdout, renderStatusLine("Work directory usage", statusInfo, detail, colorize))
			}
			fmt.Fprintln(stdout)

			if checkServices {
				printLines(stdout, renderSectionHeader("Services", colorize))
				printLines(stdout, checkLines([]preflight.Result{
					preflight.CheckLLM(cmd.Context(), "OpenRouter LLM", cfg.LLM),
					preflight.CheckFalKey(cfg.Video),
				}, colorize))
				fmt.Fprintln(stdout)
			}

			printLines(stdout, renderSectionHeader("Job Queue", colorize))
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&checkServices, "check-services", false, "Also verify the LLM API key with a live request")
	return cmd
}

func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count := stats[status]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows
}
