package fetcher

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stitchfetch/internal/history"
	"stitchfetch/internal/stitch"
)

// ErrPartialFailure is returned by Report.Err when any screen did not succeed.
var ErrPartialFailure = errors.New("batch finished with failures")

// Status is the outcome of one screen.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Step names where a screen failed.
type Step string

const (
	StepValidate Step = "validate"
	StepMetadata Step = "metadata"
	StepPrepare  Step = "prepare"
	StepDownload Step = "download"
)

// ArtifactResult describes one file written for a screen.
type ArtifactResult struct {
	Role        stitch.Role `json:"role"`
	Path        string      `json:"path"`
	Bytes       int64       `json:"bytes"`
	SHA256      string      `json:"sha256"`
	ContentType string      `json:"content_type,omitempty"`
	StatusCode  int         `json:"status_code"`
	Redirects   int         `json:"redirects"`
}

// ItemResult is the captured outcome of one screen.
type ItemResult struct {
	Position  int              `json:"position"`
	ScreenID  string           `json:"screen_id"`
	Status    Status           `json:"status"`
	Step      Step             `json:"step,omitempty"`
	Title     string           `json:"title,omitempty"`
	Error     string           `json:"error,omitempty"`
	Artifacts []ArtifactResult `json:"artifacts,omitempty"`
	Duration  time.Duration    `json:"duration_ns"`

	Err error `json:"-"`
}

// Report accumulates per-screen outcomes in input order.
type Report struct {
	RunID      string       `json:"run_id"`
	ProjectID  string       `json:"project_id"`
	OutputDir  string       `json:"output_dir"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Items      []ItemResult `json:"items"`
}

// Succeeded returns the screens that finished with every present artifact saved.
func (r *Report) Succeeded() []ItemResult { return r.filter(StatusSucceeded) }

// Failed returns the screens that failed at any step.
func (r *Report) Failed() []ItemResult { return r.filter(StatusFailed) }

// Skipped returns the screens never attempted because the run was cancelled.
func (r *Report) Skipped() []ItemResult { return r.filter(StatusSkipped) }

func (r *Report) filter(status Status) []ItemResult {
	if r == nil {
		return nil
	}
	var out []ItemResult
	for _, item := range r.Items {
		if item.Status == status {
			out = append(out, item)
		}
	}
	return out
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Err returns nil when every screen succeeded, otherwise an error wrapping
// ErrPartialFailure that names the failed and skipped screens.
func (r *Report) Err() error {
	failed := screenIDs(r.Failed())
	skipped := screenIDs(r.Skipped())
	if len(failed) == 0 && len(skipped) == 0 {
		return nil
	}
	parts := make([]string, 0, 2)
	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("failed: %s", strings.Join(failed, ", ")))
	}
	if len(skipped) > 0 {
		parts = append(parts, fmt.Sprintf("skipped: %s", strings.Join(skipped, ", ")))
	}
	return fmt.Errorf("%w (%s)", ErrPartialFailure, strings.Join(parts, "; "))
}

// RunStatus maps the report onto the history ledger's run states.
func (r *Report) RunStatus() history.RunStatus {
	switch {
	case len(r.Skipped()) > 0:
		return history.RunAborted
	case len(r.Failed()) > 0:
		return history.RunPartial
	default:
		return history.RunCompleted
	}
}

func screenIDs(items []ItemResult) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ScreenID)
	}
	return ids
}

func (r *Report) historyRun() history.Run {
	run := history.Run{
		ID:         r.RunID,
		ProjectID:  r.ProjectID,
		OutputDir:  r.OutputDir,
		Status:     r.RunStatus(),
		Total:      len(r.Items),
		Succeeded:  len(r.Succeeded()),
		Failed:     len(r.Failed()),
		Skipped:    len(r.Skipped()),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if err := r.Err(); err != nil {
		run.ErrorMessage = err.Error()
	}
	return run
}

func (item ItemResult) historyItem() history.Item {
	record := history.Item{
		Position:     item.Position,
		ScreenID:     item.ScreenID,
		Status:       string(item.Status),
		Title:        item.Title,
		ErrorMessage: item.Error,
		Duration:     item.Duration,
	}
	for _, artifact := range item.Artifacts {
		record.Artifacts = append(record.Artifacts, history.Artifact{
			Role:        string(artifact.Role),
			Path:        artifact.Path,
			Bytes:       artifact.Bytes,
			SHA256:      artifact.SHA256,
			ContentType: artifact.ContentType,
			Redirects:   artifact.Redirects,
		})
	}
	return record
}
