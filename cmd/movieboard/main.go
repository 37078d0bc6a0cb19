// Package main provides the CLI entrypoint for movieboard.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/movieboard/internal/chart"
	"github.com/verte-zerg/movieboard/internal/config"
	"github.com/verte-zerg/movieboard/internal/dashboard"
	"github.com/verte-zerg/movieboard/internal/dataset"
	"github.com/verte-zerg/movieboard/internal/logging"
	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/server"
	"github.com/verte-zerg/movieboard/internal/stats"
	"github.com/verte-zerg/movieboard/internal/store"
)

const plotHeight = 10

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "movieboard",
		Short:         "Movies dataset dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSource, "source", dataset.DefaultSourceURL, "CSV source URL or local path")
	pf.DurationVar(&flagTimeout, "timeout", dataset.DefaultTimeout, "fetch timeout")
	pf.DurationVar(&flagCacheMaxAge, "cache-max-age", defaultCacheMaxAge, "reuse a cached source younger than this (0 = never expires)")
	pf.BoolVar(&flagNoCache, "no-cache", false, "do not read or write the source cache")
	pf.BoolVar(&flagRefresh, "refresh", false, "refetch the source even if the cache is fresh")
	pf.StringVar(&flagLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFile, "log-file", "", "write logs to this file")
	addSelectionFlags(rootCmd)

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCacheCmd())

	return rootCmd
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagYear, "year", "", "release year (default: first year in the dataset)")
	cmd.Flags().StringSliceVar(&flagGenres, "genre", nil, "genres to include (default: first 4 genres)")
	cmd.Flags().Float64Var(&flagMinScore, "min", model.DefaultScoreRange.Min, "minimum score")
	cmd.Flags().Float64Var(&flagMaxScore, "max", model.DefaultScoreRange.Max, "maximum score")
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	// The terminal belongs to the UI, so logs only go to an explicit file.
	logger := zap.NewNop()
	if s.logFile != "" {
		logger, err = logging.NewWithOutput(s.logLevel, s.logFile)
		if err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	ds, err := loadDataset(cmd.Context(), s, logger)
	if err != nil {
		return err
	}
	sel := resolveSelection(ds, s)
	warnSelection(ds, sel)

	program := tea.NewProgram(dashboard.NewModel(ds, sel, logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the movie table and charts as text",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addSelectionFlags(cmd)
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newCLILogger(s)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ds, err := loadDataset(cmd.Context(), s, logger)
	if err != nil {
		return err
	}
	sel := resolveSelection(ds, s)
	warnSelection(ds, sel)

	view := stats.BuildView(ds, sel)
	if err := stats.RenderView(cmd.OutOrStdout(), view, 0, plotHeight, false); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the score and budget charts as PNG files",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	addSelectionFlags(cmd)
	cmd.Flags().StringVar(&flagExportDir, "out", "", "output directory (default: $XDG_DATA_HOME/movieboard/charts)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newCLILogger(s)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	outDir := strings.TrimSpace(flagExportDir)
	if outDir == "" {
		outDir = config.DefaultExportDir()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ds, err := loadDataset(cmd.Context(), s, logger)
	if err != nil {
		return err
	}
	sel := resolveSelection(ds, s)
	view := stats.BuildView(ds, sel)

	outputs := []struct {
		name   string
		series model.AggregateSeries
		render func(*bytes.Buffer, model.AggregateSeries) error
	}{
		{name: "scores.png", series: view.Scores, render: func(b *bytes.Buffer, s model.AggregateSeries) error { return chart.RenderScores(b, s) }},
		{name: "budgets.png", series: view.Budgets, render: func(b *bytes.Buffer, s model.AggregateSeries) error { return chart.RenderBudgets(b, s) }},
	}

	var g errgroup.Group
	for _, out := range outputs {
		out := out
		g.Go(func() error {
			path := filepath.Join(outDir, out.name)
			var buf bytes.Buffer
			if err := out.render(&buf, out.series); err != nil {
				if errors.Is(err, chart.ErrEmptySeries) {
					logErrf("Skipping %s: %s\n", out.name, stats.EmptyChartMessage)
					return nil
				}
				return fmt.Errorf("failed to render %s: %w", out.name, err)
			}
			if err := writeFileAtomic(path, buf.Bytes()); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			logErrf("Wrote %s\n", path)
			return nil
		})
	}
	return g.Wait()
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dataset views over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&flagAddr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&flagReadTimeout, "read-timeout", server.DefaultReadTimeout, "HTTP read timeout")
	cmd.Flags().DurationVar(&flagWriteTimeout, "write-timeout", server.DefaultWriteTimeout, "HTTP write timeout")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newCLILogger(s)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := loadDataset(ctx, s, logger)
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		Addr:         s.addr,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}, ds, logger)
	return srv.Run(ctx)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the source cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached source",
		Args:  cobra.NoArgs,
		RunE:  runCacheClearCmd,
	})
	return cmd
}

func runCacheClearCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	n, err := st.Clear(cmd.Context())
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached source(s)\n", n); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newCLILogger(s settings) (*zap.Logger, error) {
	if s.logFile != "" {
		return logging.NewWithOutput(s.logLevel, s.logFile)
	}
	return logging.New(s.logLevel)
}

// loadDataset fetches the source through the SQLite cache unless caching is off.
// A cache that cannot be opened only costs the cache.
func loadDataset(ctx context.Context, s settings, logger *zap.Logger) (model.Dataset, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := dataset.Options{
		Timeout: s.timeout,
		MaxAge:  s.cacheMaxAge,
		Refresh: s.refresh,
		Logger:  logger,
	}
	if !s.noCache {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			logger.Warn("source cache unavailable", zap.Error(err))
		} else {
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logger.Warn("failed to close db", zap.Error(cerr))
				}
			}()
			opts.Cache = st
		}
	}
	ds, err := dataset.Load(ctx, s.source, opts)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("failed to load dataset: %w", err)
	}
	return ds, nil
}

func warnSelection(ds model.Dataset, sel model.FilterSelection) {
	if err := stats.ValidateSelection(stats.Options(ds), sel); err != nil {
		logErrf("warning: %v\n", err)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
