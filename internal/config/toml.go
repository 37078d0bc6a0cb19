// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Dataset   DatasetConfig   `toml:"dataset"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// DatasetConfig maps dataset source settings.
type DatasetConfig struct {
	URL         *string `toml:"url"`
	Timeout     *string `toml:"timeout"`
	CacheMaxAge *string `toml:"cache-max-age"`
	NoCache     *bool   `toml:"no-cache"`
}

// DashboardConfig maps the initial filter selection.
type DashboardConfig struct {
	Year     *string   `toml:"year"`
	Genres   *[]string `toml:"genres"`
	MinScore *float64  `toml:"min-score"`
	MaxScore *float64  `toml:"max-score"`
}

// ServerConfig maps HTTP server settings.
type ServerConfig struct {
	Addr         *string `toml:"addr"`
	ReadTimeout  *string `toml:"read-timeout"`
	WriteTimeout *string `toml:"write-timeout"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
