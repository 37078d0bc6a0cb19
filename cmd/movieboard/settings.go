package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/movieboard/internal/config"
	"github.com/verte-zerg/movieboard/internal/dataset"
	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/server"
	"github.com/verte-zerg/movieboard/internal/stats"
)

const (
	defaultCacheMaxAge = 24 * time.Hour
	defaultLogLevel    = "info"
)

var (
	flagSource      string
	flagTimeout     time.Duration
	flagCacheMaxAge time.Duration
	flagNoCache     bool
	flagRefresh     bool
	flagLogLevel    string
	flagLogFile     string

	flagYear     string
	flagGenres   []string
	flagMinScore float64
	flagMaxScore float64

	flagExportDir string

	flagAddr         string
	flagReadTimeout  time.Duration
	flagWriteTimeout time.Duration
)

// settings is the merged result of flags, the config file and defaults.
type settings struct {
	source      string
	timeout     time.Duration
	cacheMaxAge time.Duration
	noCache     bool
	refresh     bool
	logLevel    string
	logFile     string

	// nil means "derive from the dataset".
	year     *string
	genres   *[]string
	minScore *float64
	maxScore *float64

	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	return mergeSettings(cmd, fileCfg)
}

// mergeSettings applies config values to flags the user did not set.
func mergeSettings(cmd *cobra.Command, fileCfg config.FileConfig) (settings, error) {
	s := settings{
		source:       flagSource,
		timeout:      flagTimeout,
		cacheMaxAge:  flagCacheMaxAge,
		noCache:      flagNoCache,
		refresh:      flagRefresh,
		logLevel:     flagLogLevel,
		logFile:      flagLogFile,
		addr:         flagAddr,
		readTimeout:  flagReadTimeout,
		writeTimeout: flagWriteTimeout,
	}
	if s.source == "" {
		s.source = dataset.DefaultSourceURL
	}
	if s.addr == "" {
		s.addr = server.DefaultAddr
	}

	applyStringConfig(cmd, "source", &s.source, fileCfg.Dataset.URL)
	applyBoolConfig(cmd, "no-cache", &s.noCache, fileCfg.Dataset.NoCache)
	applyStringConfig(cmd, "log-level", &s.logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &s.logFile, fileCfg.Log.File)
	applyStringConfig(cmd, "addr", &s.addr, fileCfg.Server.Addr)
	if err := applyDurationConfig(cmd, "timeout", &s.timeout, fileCfg.Dataset.Timeout); err != nil {
		return settings{}, err
	}
	if err := applyDurationConfig(cmd, "cache-max-age", &s.cacheMaxAge, fileCfg.Dataset.CacheMaxAge); err != nil {
		return settings{}, err
	}
	if err := applyDurationConfig(cmd, "read-timeout", &s.readTimeout, fileCfg.Server.ReadTimeout); err != nil {
		return settings{}, err
	}
	if err := applyDurationConfig(cmd, "write-timeout", &s.writeTimeout, fileCfg.Server.WriteTimeout); err != nil {
		return settings{}, err
	}

	s.year = fileCfg.Dashboard.Year
	if flagChanged(cmd, "year") {
		year := strings.TrimSpace(flagYear)
		s.year = &year
	}
	s.genres = fileCfg.Dashboard.Genres
	if flagChanged(cmd, "genre") {
		genres := append([]string{}, flagGenres...)
		s.genres = &genres
	}
	s.minScore = fileCfg.Dashboard.MinScore
	if flagChanged(cmd, "min") {
		v := flagMinScore
		s.minScore = &v
	}
	s.maxScore = fileCfg.Dashboard.MaxScore
	if flagChanged(cmd, "max") {
		v := flagMaxScore
		s.maxScore = &v
	}

	if err := validateSettings(s); err != nil {
		return settings{}, err
	}
	return s, nil
}

func validateSettings(s settings) error {
	if strings.TrimSpace(s.source) == "" {
		return fmt.Errorf("--source must not be empty")
	}
	if s.timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if s.cacheMaxAge < 0 {
		return fmt.Errorf("--cache-max-age must be >= 0")
	}
	if s.minScore != nil && (math.IsNaN(*s.minScore) || math.IsInf(*s.minScore, 0)) {
		return fmt.Errorf("--min must be a finite number")
	}
	if s.maxScore != nil && (math.IsNaN(*s.maxScore) || math.IsInf(*s.maxScore, 0)) {
		return fmt.Errorf("--max must be a finite number")
	}
	return nil
}

// resolveSelection fills unset values from the dataset defaults.
func resolveSelection(ds model.Dataset, s settings) model.FilterSelection {
	sel := stats.DefaultSelection(ds)
	if s.year != nil && *s.year != "" {
		sel.Year = dataset.NormalizeYear(*s.year)
	}
	if s.genres != nil {
		sel.Genres = append([]string{}, *s.genres...)
	}
	if s.minScore != nil {
		sel.Score.Min = *s.minScore
	}
	if s.maxScore != nil {
		sel.Score.Max = *s.maxScore
	}
	return sel
}

func flagChanged(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if flagChanged(cmd, name) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# movieboard configuration
# Uncomment a value to enable it. CLI flags override config values.

[dataset]
# url = %q
# timeout = %q          # Fetch timeout
# cache-max-age = %q    # Reuse a cached source younger than this ("0s" = never expires)
# no-cache = false        # Do not read or write the source cache

[dashboard]
# year = "1980"           # Default: first year in the dataset
# genres = ["Action", "Comedy"]  # Default: first %d genres
# min-score = %.1f
# max-score = %.1f

[server]
# addr = %q
# read-timeout = %q
# write-timeout = %q

[log]
# level = %q
# file = "/tmp/movieboard.log"
`,
		dataset.DefaultSourceURL,
		dataset.DefaultTimeout.String(),
		defaultCacheMaxAge.String(),
		model.DefaultGenreCount,
		model.DefaultScoreRange.Min,
		model.DefaultScoreRange.Max,
		server.DefaultAddr,
		server.DefaultReadTimeout.String(),
		server.DefaultWriteTimeout.String(),
		defaultLogLevel,
	)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "movieboard-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
