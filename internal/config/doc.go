// Package config handles configuration loading for the driftsync client.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults; a missing config
// file falls back to Default().
//
// # Configuration File
//
// Default location: ~/.config/driftsync/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	client:
//	  name: "${DRIFTSYNC_CLIENT_NAME}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	sync:
//	  refresh_interval: "10m"
//
// # Configuration Sections
//
// Database:
//
//	database:
//	  path: "~/.config/driftsync/accounts.db"
//
// Client identity:
//
//	client:
//	  name: "work-laptop"  # defaults to the OS hostname
//
// Capability sync:
//
//	sync:
//	  refresh_interval: "10m"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
