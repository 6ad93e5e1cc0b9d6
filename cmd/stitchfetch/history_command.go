package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stitchfetch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previous fetch runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no history recorded yet at %s", cfg.History.Path)
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						formatWhen(run.StartedAt),
						statusLabel(string(run.Status), colorize),
						run.ProjectID,
						fmt.Sprintf("%d", run.Total),
						fmt.Sprintf("%d", run.Succeeded),
						fmt.Sprintf("%d", run.Failed),
						fmt.Sprintf("%d", run.Skipped),
						formatDuration(run.Duration()),
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					textCol("Run"), textCol("Started"), textCol("Status"), textCol("Project"),
					numericCol("Screens"), numericCol("OK"), numericCol("Failed"), numericCol("Skipped"), numericCol("Time"),
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-screen outcomes of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, run)
				}
				printRun(cmd, run)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}

func printRun(cmd *cobra.Command, run *history.Run) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", statusLabel(string(run.Status), colorize))
	fmt.Fprintf(out, "Project:  %s\n", run.ProjectID)
	fmt.Fprintf(out, "Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "Started:  %s\n", formatWhen(run.StartedAt))
	fmt.Fprintf(out, "Duration: %s\n", formatDuration(run.Duration()))
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.ErrorMessage)
	}

	if len(run.Items) == 0 {
		fmt.Fprintln(out, "No screens recorded")
		return
	}
	rows := make([][]string, 0, len(run.Items))
	for _, item := range run.Items {
		roles := make([]string, 0, len(item.Artifacts))
		var size int64
		for _, artifact := range item.Artifacts {
			roles = append(roles, artifact.Role)
			size += artifact.Bytes
		}
		artifacts := strings.Join(roles, ", ")
		detail := item.Title
		if item.ErrorMessage != "" {
			detail = item.ErrorMessage
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.Position+1),
			item.ScreenID,
			statusLabel(item.Status, colorize),
			artifacts,
			formatBytes(size),
			truncate(detail, 3*detailWidth),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]column{
		numericCol("#"), textCol("Screen"), textCol("Status"), textCol("Artifacts"), numericCol("Size"), detailCol("Detail"),
	}, rows))
}
