// Package config loads xifront settings.
//
// Settings are resolved in order, later sources winning:
//
//  1. Built-in defaults (Default)
//  2. The config file, TOML (.toml) or YAML (.yaml, .yml)
//  3. XIFRONT_* environment variables
//  4. Command-line flags, applied by the caller
//
// A Watcher reports changes to the config file so that key bindings and
// the theme can be reloaded while running.
package config
