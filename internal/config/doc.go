// Package config loads, normalizes, and validates stitchfetch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as STITCH_API_KEY. The Config type centralizes the Stitch
// credentials, the ordered screen batch, download limits, the history ledger,
// and logging, so callers never reach for process-wide constants.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, validated screen identifiers, and clear validation errors.
package config
