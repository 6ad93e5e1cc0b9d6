package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"stitchfetch/internal/config"
)

func TestLoadDefaultConfigUsesEnvCredentialsAndExpandsPaths(t *testing.T) {
	t.Setenv("STITCH_API_KEY", "env-key")
	t.Setenv("STITCH_PROJECT_ID", "1752682248118390833")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Stitch.APIKey != "env-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Stitch.APIKey)
	}
	if cfg.Stitch.ProjectID != "1752682248118390833" {
		t.Fatalf("expected project from env, got %q", cfg.Stitch.ProjectID)
	}
	if cfg.Stitch.BaseURL != "https://stitch.googleapis.com/v1" {
		t.Fatalf("unexpected base url: %q", cfg.Stitch.BaseURL)
	}
	wantOutput, _ := filepath.Abs("stitch_screens")
	if cfg.Fetch.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Fetch.OutputDir, wantOutput)
	}
	wantHistory := filepath.Join(tempHome, ".local", "share", "stitchfetch", "history.db")
	if cfg.History.Path != wantHistory {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, wantHistory)
	}
	if !cfg.Fetch.StrictStatus {
		t.Fatal("expected strict status by default")
	}
	if cfg.Fetch.MaxRedirects != 10 {
		t.Fatalf("unexpected max redirects: %d", cfg.Fetch.MaxRedirects)
	}
	if cfg.Deadline() != 0 {
		t.Fatalf("expected no deadline by default, got %s", cfg.Deadline())
	}
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("ValidateCredentials: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "stitchfetch.toml")

	type payload struct {
		Stitch struct {
			APIKey         string `toml:"api_key"`
			ProjectID      string `toml:"project_id"`
			BaseURL        string `toml:"base_url"`
			RequestTimeout int    `toml:"request_timeout"`
		} `toml:"stitch"`
		Fetch struct {
			Screens   []string `toml:"screens"`
			OutputDir string   `toml:"output_dir"`
			Deadline  int      `toml:"deadline"`
		} `toml:"fetch"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Stitch.APIKey = "file-key"
	custom.Stitch.ProjectID = "proj"
	custom.Stitch.BaseURL = "https://example.com/v1/"
	custom.Stitch.RequestTimeout = 5
	custom.Fetch.Screens = []string{" a1 ", "b2", ""}
	custom.Fetch.OutputDir = filepath.Join(tempDir, "out")
	custom.Fetch.Deadline = 90
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "Debug"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config file to be used, got resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Stitch.BaseURL != "https://example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Stitch.BaseURL)
	}
	if got := strings.Join(cfg.Fetch.Screens, ","); got != "a1,b2" {
		t.Fatalf("unexpected screens: %q", got)
	}
	if cfg.RequestTimeout() != 5*time.Second {
		t.Fatalf("unexpected request timeout: %s", cfg.RequestTimeout())
	}
	if cfg.Deadline() != 90*time.Second {
		t.Fatalf("unexpected deadline: %s", cfg.Deadline())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if info, err := os.Stat(cfg.Fetch.OutputDir); err != nil || !info.IsDir() {
		t.Fatalf("expected output dir to exist: %v", err)
	}
}

func TestLoadRejectsUnsafeScreenIDs(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "stitchfetch.toml")
	content := "[fetch]\nscreens = [\"ok\", \"../escape\"]\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error for unsafe screen id")
	}
	if !errors.Is(err, config.ErrInvalidScreenID) {
		t.Fatalf("expected ErrInvalidScreenID, got %v", err)
	}
}

func TestValidateScreens(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		wantErr bool
	}{
		{name: "valid", ids: []string{"05bd28bfa6734608b45ca6d409993319", "077d1cab"}},
		{name: "empty list", ids: nil},
		{name: "dot", ids: []string{"."}, wantErr: true},
		{name: "dot dot", ids: []string{".."}, wantErr: true},
		{name: "backslash", ids: []string{`a\b`}, wantErr: true},
		{name: "blank", ids: []string{"  "}, wantErr: true},
		{name: "duplicate", ids: []string{"a", "b", "a"}, wantErr: true},
		{name: "leading space", ids: []string{" a"}, wantErr: true},
		{name: "trailing tab", ids: []string{"a\t"}, wantErr: true},
		{name: "lock file", ids: []string{config.LockFileName}, wantErr: true},
		{name: "dotted id", ids: []string{".a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidateScreens(tt.ids)
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCredentialsRequiresKeyAndProject(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateCredentials(); err == nil || !strings.Contains(err.Error(), "stitch.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
	cfg.Stitch.APIKey = "key"
	if err := cfg.ValidateCredentials(); err == nil || !strings.Contains(err.Error(), "stitch.project_id") {
		t.Fatalf("expected project error, got %v", err)
	}
	cfg.Stitch.ProjectID = "proj"
	if err := cfg.ValidateCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	envPath := filepath.Join(t.TempDir(), "custom.env")
	if err := os.WriteFile(envPath, []byte("STITCH_API_KEY=from-dotenv\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", envPath)
	t.Setenv("STITCH_API_KEY", "")
	os.Unsetenv("STITCH_API_KEY")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Stitch.APIKey != "from-dotenv" {
		t.Fatalf("expected key from env file, got %q", cfg.Stitch.APIKey)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load, exists=%v err=%v", exists, err)
	}
}
