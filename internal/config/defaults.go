package config

const (
	defaultConfigPath             = "~/.config/stitchfetch/config.toml"
	defaultStitchBaseURL          = "https://stitch.googleapis.com/v1"
	defaultRequestTimeoutSeconds  = 30
	defaultOutputDir              = "stitch_screens"
	defaultMaxRedirects           = 10
	defaultDownloadTimeoutSeconds = 120
	defaultHistoryPath            = "~/.local/share/stitchfetch/history.db"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Stitch: Stitch{
			BaseURL:        defaultStitchBaseURL,
			RequestTimeout: defaultRequestTimeoutSeconds,
		},
		Fetch: Fetch{
			OutputDir:       defaultOutputDir,
			MaxRedirects:    defaultMaxRedirects,
			DownloadTimeout: defaultDownloadTimeoutSeconds,
			StrictStatus:    true,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
