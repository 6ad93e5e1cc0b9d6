package history

import "time"

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunAborted   RunStatus = "aborted"
)

// Run summarizes one batch invocation.
type Run struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	OutputDir    string    `json:"output_dir"`
	Status       RunStatus `json:"status"`
	Total        int       `json:"total"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	ErrorMessage string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Items        []Item    `json:"items,omitempty"`
}

// Duration returns the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Item records the outcome of one screen within a run.
type Item struct {
	Position     int           `json:"position"`
	ScreenID     string        `json:"screen_id"`
	Status       string        `json:"status"`
	Title        string        `json:"title,omitempty"`
	ErrorMessage string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
	Artifacts    []Artifact    `json:"artifacts,omitempty"`
}

// Artifact records one file written for a screen.
type Artifact struct {
	Role        string `json:"role"`
	Path        string `json:"path"`
	Bytes       int64  `json:"bytes"`
	SHA256      string `json:"sha256"`
	ContentType string `json:"content_type,omitempty"`
	Redirects   int    `json:"redirects"`
}
