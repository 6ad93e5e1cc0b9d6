package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidScreenID reports a screen identifier that cannot be used as a
// directory name below the output directory.
var ErrInvalidScreenID = errors.New("invalid screen id")

// LockFileName is the run lock kept in the output directory. No screen may
// use it as an identifier.
const LockFileName = ".stitchfetch.lock"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStitch(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateCredentials ensures the settings needed to call the Stitch API are
// present. Commands that only read local state skip this check.
func (c *Config) ValidateCredentials() error {
	if c.Stitch.APIKey == "" {
		return fmt.Errorf("stitch.api_key is required. Set STITCH_API_KEY env var or edit %s (create with 'stitchfetch config init')", c.displayConfigPath())
	}
	if c.Stitch.ProjectID == "" {
		return fmt.Errorf("stitch.project_id is required. Set STITCH_PROJECT_ID env var or edit %s", c.displayConfigPath())
	}
	return nil
}

// ValidateScreenID rejects identifiers that would escape or collapse the
// per-screen directory layout.
func ValidateScreenID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidScreenID)
	case id != strings.TrimSpace(id):
		return fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidScreenID, id)
	case id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidScreenID, id)
	case id == LockFileName:
		return fmt.Errorf("%w: %q is reserved for the output lock", ErrInvalidScreenID, id)
	case strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidScreenID, id)
	case strings.ContainsRune(id, 0):
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidScreenID, id)
	}
	return nil
}

// ValidateScreens checks every identifier and rejects duplicates, which
// would make two batch entries share one output directory.
func ValidateScreens(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if err := ValidateScreenID(id); err != nil {
			return err
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("screen %q listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (c *Config) validateStitch() error {
	parsed, err := url.Parse(c.Stitch.BaseURL)
	if err != nil {
		return fmt.Errorf("stitch.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("stitch.base_url must be an http(s) url, got %q", c.Stitch.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("stitch.base_url must include a host, got %q", c.Stitch.BaseURL)
	}
	if c.Stitch.RequestTimeout <= 0 {
		return errors.New("stitch.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if err := ValidateScreens(c.Fetch.Screens); err != nil {
		return fmt.Errorf("fetch.screens: %w", err)
	}
	if strings.TrimSpace(c.Fetch.OutputDir) == "" {
		return errors.New("fetch.output_dir must be set")
	}
	if c.Fetch.MaxRedirects <= 0 {
		return errors.New("fetch.max_redirects must be positive")
	}
	if c.Fetch.DownloadTimeout <= 0 {
		return errors.New("fetch.download_timeout must be positive (seconds)")
	}
	if c.Fetch.Deadline < 0 {
		return errors.New("fetch.deadline must be >= 0")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history.path must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func (c *Config) displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
}
