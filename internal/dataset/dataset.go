// Package dataset fetches and cleans the movies CSV.
package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/store"
)

// DefaultSourceURL is the published movies dataset.
const DefaultSourceURL = "https://raw.githubusercontent.com/nv-thang/Data-Visualization-Course/main/movies.csv"

// DefaultTimeout bounds a single fetch of the source.
const DefaultTimeout = 30 * time.Second

// SourceCache stores fetched CSV bodies between sessions.
type SourceCache interface {
	GetSource(ctx context.Context, url string) (store.Source, bool, error)
	PutSource(ctx context.Context, src store.Source) error
}

// Options controls how the source is fetched.
type Options struct {
	Timeout time.Duration
	// Cache is optional. Only remote sources are cached.
	Cache SourceCache
	// MaxAge is how long a cached body is used without refetching; <= 0 never expires.
	MaxAge time.Duration
	// Refresh skips a fresh cache entry and always fetches.
	Refresh bool
	Client  *http.Client
	Logger  *zap.Logger
	now     func() time.Time
}

// LoadStats describes how a dataset was obtained.
type LoadStats struct {
	Source      string
	FromCache   bool
	RowsRead    int
	RowsDropped int
	Records     int
}

// Load fetches source and returns the cleaned Dataset.
func Load(ctx context.Context, source string, opts Options) (model.Dataset, error) {
	ds, _, err := LoadWithStats(ctx, source, opts)
	return ds, err
}

// LoadWithStats is Load plus fetch and cleaning counters.
func LoadWithStats(ctx context.Context, source string, opts Options) (model.Dataset, LoadStats, error) {
	opts = opts.withDefaults()
	stats := LoadStats{Source: source}
	if strings.TrimSpace(source) == "" {
		return model.Dataset{}, stats, &DataSourceError{Op: "fetch", Err: fmt.Errorf("source is empty")}
	}

	body, fromCache, err := readSource(ctx, source, opts)
	if err != nil {
		return model.Dataset{}, stats, err
	}
	stats.FromCache = fromCache

	ds, ps, err := parseWithStats(bytes.NewReader(body))
	if err != nil {
		return model.Dataset{}, stats, &DataSourceError{Source: source, Op: "parse", Err: err}
	}
	stats.RowsRead = ps.RowsRead
	stats.RowsDropped = ps.RowsDropped
	stats.Records = ds.Len()
	opts.Logger.Info("dataset loaded",
		zap.String("source", source),
		zap.Bool("cached", fromCache),
		zap.Int("rows", ps.RowsRead),
		zap.Int("dropped", ps.RowsDropped),
		zap.Int("records", ds.Len()),
	)
	return ds, stats, nil
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

func readSource(ctx context.Context, source string, opts Options) ([]byte, bool, error) {
	if path, ok := localPath(source); ok {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, false, &DataSourceError{Source: source, Op: "read", Err: err}
		}
		return body, false, nil
	}

	var cached store.Source
	var hasCached bool
	if opts.Cache != nil {
		src, ok, err := opts.Cache.GetSource(ctx, source)
		if err != nil {
			opts.Logger.Warn("failed to read source cache", zap.String("source", source), zap.Error(err))
		} else if ok {
			cached, hasCached = src, true
			age := opts.now().Sub(src.FetchedAt)
			if !opts.Refresh && (opts.MaxAge <= 0 || age < opts.MaxAge) {
				opts.Logger.Debug("using cached source", zap.String("source", source), zap.Duration("age", age))
				return src.Body, true, nil
			}
		}
	}

	body, err := fetch(ctx, source, opts)
	if err != nil {
		if hasCached {
			opts.Logger.Warn("fetch failed, using stale cached source",
				zap.String("source", source),
				zap.Time("fetched_at", cached.FetchedAt),
				zap.Error(err),
			)
			return cached.Body, true, nil
		}
		return nil, false, err
	}

	if opts.Cache != nil {
		src := store.Source{URL: source, Body: body, FetchedAt: opts.now()}
		if err := opts.Cache.PutSource(ctx, src); err != nil {
			opts.Logger.Warn("failed to write source cache", zap.String("source", source), zap.Error(err))
		}
	}
	return body, false, nil
}

func fetch(ctx context.Context, source string, opts Options) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
	if err != nil {
		return nil, &DataSourceError{Source: source, Op: "fetch", Err: fmt.Errorf("failed to create request: %w", err)}
	}
	start := time.Now()
	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil, &DataSourceError{Source: source, Op: "fetch", Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DataSourceError{Source: source, Op: "fetch", Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DataSourceError{Source: source, Op: "fetch", Err: fmt.Errorf("failed to read body: %w", err)}
	}
	opts.Logger.Debug("fetched source",
		zap.String("source", source),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// localPath reports whether source names a file rather than an HTTP(S) resource.
func localPath(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" {
		return source, true
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return "", false
	case "file":
		return u.Path, true
	default:
		// Windows drive letters parse as a one-letter scheme.
		if len(u.Scheme) == 1 {
			return source, true
		}
		return "", false
	}
}
