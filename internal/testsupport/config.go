package testsupport

import (
	"path/filepath"
	"testing"

	"stitchfetch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Stitch.APIKey = "test-key"
	cfgVal.Stitch.ProjectID = "test-project"
	cfgVal.Fetch.OutputDir = filepath.Join(base, "stitch_screens")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStitchServer points the config at a test API server.
func WithStitchServer(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Stitch.BaseURL = baseURL
	}
}

// WithScreens sets the configured screen list.
func WithScreens(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Fetch.Screens = append([]string(nil), ids...)
	}
}

// WithoutCredentials clears the API key and project.
func WithoutCredentials() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Stitch.APIKey = ""
		b.cfg.Stitch.ProjectID = ""
	}
}

// WithoutHistory disables the run ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Fetch.OutputDir)
}
