package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeStitch()
	if err := c.normalizeFetch(); err != nil {
		return err
	}
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeStitch() {
	c.Stitch.APIKey = strings.TrimSpace(c.Stitch.APIKey)
	if c.Stitch.APIKey == "" {
		if value, ok := os.LookupEnv("STITCH_API_KEY"); ok {
			c.Stitch.APIKey = strings.TrimSpace(value)
		}
	}
	c.Stitch.ProjectID = strings.TrimSpace(c.Stitch.ProjectID)
	if c.Stitch.ProjectID == "" {
		if value, ok := os.LookupEnv("STITCH_PROJECT_ID"); ok {
			c.Stitch.ProjectID = strings.TrimSpace(value)
		}
	}
	c.Stitch.BaseURL = strings.TrimSpace(c.Stitch.BaseURL)
	if c.Stitch.BaseURL == "" {
		if value, ok := os.LookupEnv("STITCH_BASE_URL"); ok {
			c.Stitch.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.Stitch.BaseURL == "" {
		c.Stitch.BaseURL = defaultStitchBaseURL
	}
	c.Stitch.BaseURL = strings.TrimRight(c.Stitch.BaseURL, "/")
	if c.Stitch.RequestTimeout <= 0 {
		c.Stitch.RequestTimeout = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeFetch() error {
	screens := make([]string, 0, len(c.Fetch.Screens))
	for _, id := range c.Fetch.Screens {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		screens = append(screens, trimmed)
	}
	c.Fetch.Screens = screens

	if strings.TrimSpace(c.Fetch.OutputDir) == "" {
		c.Fetch.OutputDir = defaultOutputDir
	}
	var err error
	if c.Fetch.OutputDir, err = expandPath(strings.TrimSpace(c.Fetch.OutputDir)); err != nil {
		return fmt.Errorf("fetch.output_dir: %w", err)
	}
	if c.Fetch.MaxRedirects <= 0 {
		c.Fetch.MaxRedirects = defaultMaxRedirects
	}
	if c.Fetch.DownloadTimeout <= 0 {
		c.Fetch.DownloadTimeout = defaultDownloadTimeoutSeconds
	}
	if c.Fetch.Deadline < 0 {
		c.Fetch.Deadline = 0
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
