package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stitchfetch/internal/config"
	"stitchfetch/internal/download"
	"stitchfetch/internal/fetcher"
	"stitchfetch/internal/history"
	"stitchfetch/internal/logging"
	"stitchfetch/internal/stitch"
)

type fetchOptions struct {
	outputDir  string
	projectID  string
	jsonOutput bool
	noHistory  bool
	deadline   time.Duration
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch [screen-id...]",
		Short: "Download metadata, HTML, and screenshots for screens",
		Long: `Fetch processes screens strictly in the order given. Each screen's HTML and
screenshot are written to {output}/{screen-id}/index.html and screenshot.png.
A failing screen is reported and the batch continues; the command exits
non-zero when any screen failed or was skipped.

Screen IDs come from the arguments, or from fetch.screens when none are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runFetch(cmd, *cfg, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Base output directory (overrides fetch.output_dir)")
	cmd.Flags().StringVarP(&opts.projectID, "project", "p", "", "Stitch project id (overrides stitch.project_id)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Do not record this run in the history ledger")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 0, "Overall deadline for the batch (overrides fetch.deadline)")
	return cmd
}

func runFetch(cmd *cobra.Command, cfg config.Config, args []string, opts fetchOptions) error {
	if err := applyFetchOverrides(&cfg, opts); err != nil {
		return err
	}
	ids := args
	if len(ids) == 0 {
		ids = cfg.Fetch.Screens
	}
	if len(ids) == 0 {
		return fmt.Errorf("no screens to fetch: pass screen ids or set fetch.screens")
	}
	if err := config.ValidateScreens(ids); err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	// Logs go to stderr; stdout carries the report.
	logger, err := logging.NewFromConfig(&cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	client, err := stitch.New(cfg.Stitch.APIKey, cfg.Stitch.BaseURL, cfg.Stitch.ProjectID,
		stitch.WithTimeout(cfg.RequestTimeout()),
	)
	if err != nil {
		return err
	}
	downloader := download.New(
		download.WithMaxRedirects(cfg.Fetch.MaxRedirects),
		download.WithStrictStatus(cfg.Fetch.StrictStatus),
		download.WithTimeout(cfg.DownloadTimeout()),
		download.WithLogger(logging.NewComponentLogger(logger, "download")),
	)

	fetchOpts := fetcher.Options{
		OutputDir:  cfg.Fetch.OutputDir,
		ProjectID:  cfg.Stitch.ProjectID,
		Source:     client,
		Downloader: downloader,
		Logger:     logger,
	}
	if cfg.History.Enabled && !opts.noHistory {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logger, "history ledger unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history.path or pass --no-history"),
				logging.String(logging.FieldImpact, "this run will not be recorded"),
			)
		} else {
			defer store.Close()
			fetchOpts.Recorder = store
		}
	}

	f, err := fetcher.New(fetchOpts)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	deadline := cfg.Deadline()
	if opts.deadline > 0 {
		deadline = opts.deadline
	}
	if deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, deadline)
		defer cancel()
	}

	report, err := f.Run(runCtx, ids)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
	}
	return report.Err()
}

func applyFetchOverrides(cfg *config.Config, opts fetchOptions) error {
	if dir := strings.TrimSpace(opts.outputDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Fetch.OutputDir = expanded
	}
	if project := strings.TrimSpace(opts.projectID); project != "" {
		cfg.Stitch.ProjectID = project
	}
	if opts.deadline < 0 {
		return fmt.Errorf("--deadline must be positive, got %s", opts.deadline)
	}
	return nil
}

func printReport(out io.Writer, report *fetcher.Report, colorize bool) {
	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		var size int64
		files := make([]string, 0, len(item.Artifacts))
		for _, artifact := range item.Artifacts {
			size += artifact.Bytes
			files = append(files, filepath.Base(artifact.Path))
		}
		detail := item.Title
		if item.Error != "" {
			detail = item.Error
		}
		artifacts := strings.Join(files, ", ")
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.Position+1),
			item.ScreenID,
			statusLabel(string(item.Status), colorize),
			artifacts,
			formatBytes(size),
			formatDuration(item.Duration),
			truncate(detail, 3*detailWidth),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		numericCol("#"), textCol("Screen"), textCol("Status"), textCol("Artifacts"),
		numericCol("Size"), numericCol("Time"), detailCol("Detail"),
	}, rows))
	fmt.Fprintf(out, "Run %s: %d succeeded, %d failed, %d skipped in %s\n",
		shortID(report.RunID),
		len(report.Succeeded()),
		len(report.Failed()),
		len(report.Skipped()),
		formatDuration(report.Duration()),
	)
	fmt.Fprintf(out, "Output: %s\n", report.OutputDir)
}
