// Package config loads jsonlog configuration. Default() is the baseline,
// Load overlays a JSON or YAML file and FromEnv overlays JSONLOG_* variables.
// Command-line flags are applied last by the CLI.
//
// Example:
//
//	cfg, err := config.Load("jsonlog.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
