package preflight

import (
	"context"
	"path/filepath"

	"stitchfetch/internal/config"
	"stitchfetch/internal/stitch"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for cfg. The API probe runs only
// when credentials are present and at least one screen is configured.
func RunAll(ctx context.Context, cfg *config.Config, source stitch.ScreenGetter) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	credentials := CheckCredentials(cfg)
	results = append(results, credentials)

	screens := CheckScreens(cfg.Fetch.Screens)
	results = append(results, screens)

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Fetch.OutputDir))

	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.History.Path)))
	}

	if credentials.Passed && screens.Passed && source != nil {
		results = append(results, CheckStitchAPI(ctx, source, cfg.Fetch.Screens[0]))
	}

	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
