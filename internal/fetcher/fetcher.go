package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"stitchfetch/internal/config"
	"stitchfetch/internal/download"
	"stitchfetch/internal/history"
	"stitchfetch/internal/logging"
	"stitchfetch/internal/stitch"
)

// LockFileName is created in the output directory while a run holds it.
const LockFileName = config.LockFileName

// ErrLocked is returned when another process is writing the same output tree.
var ErrLocked = errors.New("output directory is locked by another run")

// Source fetches per-screen metadata.
type Source interface {
	GetScreen(ctx context.Context, screenID string) (*stitch.Screen, error)
}

// Downloader writes one artifact URL to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (download.Result, error)
}

// Recorder persists run progress. Failures are logged and never change outcomes.
type Recorder interface {
	BeginRun(ctx context.Context, run history.Run) error
	RecordItem(ctx context.Context, runID string, item history.Item) error
	FinishRun(ctx context.Context, run history.Run) error
}

// Options configures a Fetcher.
type Options struct {
	OutputDir  string
	ProjectID  string
	Source     Source
	Downloader Downloader
	// Recorder is optional.
	Recorder Recorder
	Logger   *slog.Logger
}

// Fetcher processes an ordered batch of screens one at a time.
type Fetcher struct {
	outputDir  string
	projectID  string
	source     Source
	downloader Downloader
	recorder   Recorder
	logger     *slog.Logger
	newRunID   func() string
	now        func() time.Time
}

// New validates opts and returns a Fetcher.
func New(opts Options) (*Fetcher, error) {
	outputDir := strings.TrimSpace(opts.OutputDir)
	if outputDir == "" {
		return nil, errors.New("output directory required")
	}
	if opts.Source == nil {
		return nil, errors.New("metadata source required")
	}
	if opts.Downloader == nil {
		return nil, errors.New("downloader required")
	}
	return &Fetcher{
		outputDir:  filepath.Clean(outputDir),
		projectID:  strings.TrimSpace(opts.ProjectID),
		source:     opts.Source,
		downloader: opts.Downloader,
		recorder:   opts.Recorder,
		logger:     logging.NewComponentLogger(opts.Logger, "fetcher"),
		newRunID:   uuid.NewString,
		now:        time.Now,
	}, nil
}

// Run processes ids strictly in order and returns one result per id.
//
// Only setup failures (output directory, lock) are returned as errors. Every
// per-screen failure is captured in the report and the loop moves on. Once
// ctx is done the remaining screens are reported as skipped.
func (f *Fetcher) Run(ctx context.Context, ids []string) (*Report, error) {
	if err := os.MkdirAll(f.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(f.outputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, f.outputDir)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	report := &Report{
		RunID:     f.newRunID(),
		ProjectID: f.projectID,
		OutputDir: f.outputDir,
		StartedAt: f.now(),
		Items:     make([]ItemResult, 0, len(ids)),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, f.logger)

	f.recordBegin(ctx, logger, report, len(ids))
	logger.Info("batch started",
		logging.Int("screens", len(ids)),
		logging.String("output_dir", f.outputDir),
		logging.String("project_id", f.projectID),
	)

	for position, id := range ids {
		var item ItemResult
		if err := ctx.Err(); err != nil {
			item = ItemResult{
				Position: position,
				ScreenID: id,
				Status:   StatusSkipped,
				Error:    err.Error(),
				Err:      err,
			}
			logger.Info("screen skipped", logging.String(logging.FieldScreenID, id), logging.String("reason", err.Error()))
		} else {
			item = f.processScreen(ctx, position, id)
		}
		report.Items = append(report.Items, item)
		f.recordItem(ctx, logger, report.RunID, item)
	}

	report.FinishedAt = f.now()
	logger.Info("batch complete",
		logging.Int("succeeded", len(report.Succeeded())),
		logging.Int("failed", len(report.Failed())),
		logging.Int("skipped", len(report.Skipped())),
		logging.Duration("duration", report.Duration()),
	)
	f.recordFinish(ctx, logger, report)
	return report, nil
}

func (f *Fetcher) processScreen(ctx context.Context, position int, id string) ItemResult {
	start := time.Now()
	ctx = logging.WithScreenID(ctx, id)
	logger := logging.WithContext(ctx, f.logger)
	result := ItemResult{Position: position, ScreenID: id}

	fail := func(step Step, err error) ItemResult {
		result.Status = StatusFailed
		result.Step = step
		result.Err = err
		result.Error = err.Error()
		result.Duration = time.Since(start)
		logging.ErrorWithContext(logger, "screen failed", "screen_failed",
			logging.String("step", string(step)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, errorHint(step, err)),
		)
		return result
	}

	if err := config.ValidateScreenID(id); err != nil {
		return fail(StepValidate, err)
	}

	logger.Info("fetching metadata")
	screen, err := f.source.GetScreen(ctx, id)
	if err != nil {
		return fail(StepMetadata, fmt.Errorf("fetch metadata: %w", err))
	}
	if screen == nil {
		return fail(StepMetadata, errors.New("fetch metadata: empty response"))
	}
	result.Title = strings.TrimSpace(screen.Title)

	dir := filepath.Join(f.outputDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(StepPrepare, fmt.Errorf("create screen directory: %w", err))
	}

	refs := screen.Artifacts()
	if len(refs) == 0 {
		logger.Info("screen has no downloadable artifacts")
	}
	for _, ref := range refs {
		dest := filepath.Join(dir, ref.Role.FileName())
		artifactLogger := logger.With(logging.String(logging.FieldArtifact, string(ref.Role)))
		artifactLogger.Info("downloading artifact")

		res, err := f.downloader.Download(ctx, ref.URL, dest)
		if err != nil {
			return fail(StepDownload, fmt.Errorf("download %s: %w", ref.Role, err))
		}
		result.Artifacts = append(result.Artifacts, ArtifactResult{
			Role:        ref.Role,
			Path:        dest,
			Bytes:       res.Bytes,
			SHA256:      res.SHA256,
			ContentType: res.ContentType,
			StatusCode:  res.StatusCode,
			Redirects:   res.Redirects,
		})
		artifactLogger.Debug("artifact saved",
			logging.String("path", dest),
			logging.Int64("bytes", res.Bytes),
			logging.String("sha256", res.SHA256),
			logging.Int("redirects", res.Redirects),
		)

		if ref.Role == stitch.RoleHTML && result.Title == "" {
			result.Title = pageTitle(dest)
		}
	}

	result.Status = StatusSucceeded
	result.Duration = time.Since(start)
	logger.Info("screen downloaded",
		logging.Int("artifacts", len(result.Artifacts)),
		logging.Duration("duration", result.Duration),
	)
	return result
}

func errorHint(step Step, err error) string {
	switch step {
	case StepValidate:
		return "screen ids must be plain directory names"
	case StepPrepare:
		return "check permissions on fetch.output_dir"
	case StepMetadata:
		var apiErr *stitch.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "check stitch.api_key"
			case http.StatusNotFound:
				return "check the screen id and stitch.project_id"
			}
		}
		return "check network connectivity and stitch.base_url"
	case StepDownload:
		if errors.Is(err, download.ErrTooManyRedirects) {
			return "artifact url redirects in a loop; raise fetch.max_redirects if the chain is legitimate"
		}
		if download.IsStatusError(err) {
			return "download links may have expired; rerun to fetch fresh metadata"
		}
		return "check network connectivity and free disk space"
	}
	return "check logs for details"
}

func (f *Fetcher) recordBegin(ctx context.Context, logger *slog.Logger, report *Report, total int) {
	if f.recorder == nil {
		return
	}
	err := f.recorder.BeginRun(context.WithoutCancel(ctx), history.Run{
		ID:        report.RunID,
		ProjectID: report.ProjectID,
		OutputDir: report.OutputDir,
		Total:     total,
		StartedAt: report.StartedAt,
	})
	if err != nil {
		logging.WarnWithContext(logger, "history run start not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from history"),
		)
	}
}

func (f *Fetcher) recordItem(ctx context.Context, logger *slog.Logger, runID string, item ItemResult) {
	if f.recorder == nil {
		return
	}
	// Skipped items are recorded after cancellation.
	if err := f.recorder.RecordItem(context.WithoutCancel(ctx), runID, item.historyItem()); err != nil {
		logging.WarnWithContext(logger, "history item not recorded", "history_write_failed",
			logging.String(logging.FieldScreenID, item.ScreenID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "screen outcome missing from history"),
		)
	}
}

func (f *Fetcher) recordFinish(ctx context.Context, logger *slog.Logger, report *Report) {
	if f.recorder == nil {
		return
	}
	if err := f.recorder.FinishRun(context.WithoutCancel(ctx), report.historyRun()); err != nil {
		logging.WarnWithContext(logger, "history run finish not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run summary missing from history"),
		)
	}
}
