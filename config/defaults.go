package config

import "strings"

// ApplyDefaults fills zero-valued fields with their defaults and normalizes the
// log level. Explicitly set values are kept.
func ApplyDefaults(cfg *Config) {
	d := Default()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}

	if cfg.NET.MaxRequestSize == 0 {
		cfg.NET.MaxRequestSize = d.NET.MaxRequestSize
	}

	applyLoggingDefaults(&cfg.Logging, d.Logging)

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = d.Metrics.Addr
	}

	if cfg.Handler.Type == "" {
		cfg.Handler.Type = d.Handler.Type
	}

	if cfg.Handler.Public == "" {
		cfg.Handler.Public = d.Handler.Public
	}
}

func applyLoggingDefaults(cfg *Logging, d Logging) {
	if cfg.Level == "" {
		cfg.Level = d.Level
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = d.Format
	}

	if cfg.Output == "" {
		cfg.Output = d.Output
	}
}
