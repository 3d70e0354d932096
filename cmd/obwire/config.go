package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

type config struct {
	Address       string
	Timeout       time.Duration
	LogLevel      zerolog.Level
	Listen        string
	MetricsListen string
	ProtoPath     string
}

func defaultConfig() config {
	return config{
		Address:  "localhost:50051",
		Timeout:  5 * time.Second,
		LogLevel: zerolog.InfoLevel,
		Listen:   "0.0.0.0:50051",
	}
}

type fileConfig struct {
	Address       string `toml:"address"`
	Timeout       string `toml:"timeout"`
	LogLevel      string `toml:"log_level"`
	Listen        string `toml:"listen"`
	MetricsListen string `toml:"metrics_listen"`
	Proto         string `toml:"proto"`
}

// loadConfig reads path over the defaults. Keys missing from the file keep
// their default value; an empty path returns the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load obwire config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load obwire config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("address") {
		cfg.Address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("metrics_listen") {
		cfg.MetricsListen = strings.TrimSpace(raw.MetricsListen)
	}
	if meta.IsDefined("proto") {
		cfg.ProtoPath = strings.TrimSpace(raw.Proto)
	}
	return cfg, nil
}
