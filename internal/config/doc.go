// Package config loads, normalizes, and validates reelsmith configuration.
//
// Configuration lives in TOML (see sample_config.toml). Load resolves the file
// from an explicit path, ~/.config/reelsmith/config.toml, or ./reelsmith.toml,
// applies defaults and environment fallbacks for API keys, expands ~ in paths,
// and validates every section before returning.
package config
