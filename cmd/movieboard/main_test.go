package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/movieboard/internal/config"
	"github.com/verte-zerg/movieboard/internal/dataset"
	"github.com/verte-zerg/movieboard/internal/model"
)

const testCSV = `name,genre,year,score,budget
A,Action,2000,3.5,100
B,Action,2000,4.5,200
C,Comedy,2001,2.0,50
`

func strPtr(v string) *string       { return &v }
func floatPtr(v float64) *float64   { return &v }
func slicePtr(v []string) *[]string { return &v }

func subcommand(t *testing.T, name string, args ...string) *cobra.Command {
	t.Helper()
	root := newRootCmd()
	cmd, _, err := root.Find([]string{name})
	if err != nil {
		t.Fatalf("find %s: %v", name, err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestMergeSettingsConfigAndFlags(t *testing.T) {
	cmd := subcommand(t, "report", "--timeout", "5s", "--max", "9")
	fileCfg := config.FileConfig{
		Dataset: config.DatasetConfig{
			URL:     strPtr("movies.csv"),
			Timeout: strPtr("2s"),
		},
		Dashboard: config.DashboardConfig{
			Year:     strPtr("1980"),
			Genres:   slicePtr([]string{"Drama"}),
			MinScore: floatPtr(5),
			MaxScore: floatPtr(6),
		},
		Log: config.LogConfig{Level: strPtr("debug")},
	}
	s, err := mergeSettings(cmd, fileCfg)
	if err != nil {
		t.Fatalf("merge settings: %v", err)
	}
	if s.source != "movies.csv" {
		t.Fatalf("expected config source, got %q", s.source)
	}
	if s.timeout != 5*time.Second {
		t.Fatalf("expected flag timeout to win, got %v", s.timeout)
	}
	if s.cacheMaxAge != defaultCacheMaxAge {
		t.Fatalf("expected default cache max age, got %v", s.cacheMaxAge)
	}
	if s.logLevel != "debug" {
		t.Fatalf("expected config log level, got %q", s.logLevel)
	}
	if s.year == nil || *s.year != "1980" {
		t.Fatalf("unexpected year: %v", s.year)
	}
	if s.genres == nil || !reflect.DeepEqual(*s.genres, []string{"Drama"}) {
		t.Fatalf("unexpected genres: %v", s.genres)
	}
	if *s.minScore != 5 || *s.maxScore != 9 {
		t.Fatalf("unexpected score range: %v..%v", *s.minScore, *s.maxScore)
	}
}

func TestMergeSettingsDefaults(t *testing.T) {
	s, err := mergeSettings(subcommand(t, "report"), config.FileConfig{})
	if err != nil {
		t.Fatalf("merge settings: %v", err)
	}
	if s.source != dataset.DefaultSourceURL {
		t.Fatalf("unexpected source: %q", s.source)
	}
	if s.year != nil || s.genres != nil || s.minScore != nil || s.maxScore != nil {
		t.Fatalf("expected unset selection values, got %+v", s)
	}
}

func TestMergeSettingsRejectsBadValues(t *testing.T) {
	bad := config.FileConfig{Dataset: config.DatasetConfig{Timeout: strPtr("soon")}}
	if _, err := mergeSettings(subcommand(t, "report"), bad); err == nil {
		t.Fatalf("expected invalid duration error")
	}
	if _, err := mergeSettings(subcommand(t, "report", "--timeout", "0s"), config.FileConfig{}); err == nil {
		t.Fatalf("expected invalid timeout error")
	}
}

func TestResolveSelection(t *testing.T) {
	ds := model.NewDataset([]model.MovieRecord{
		{Genre: "Action", Year: "2000"},
		{Genre: "Comedy", Year: "2001"},
	})
	sel := resolveSelection(ds, settings{})
	want := model.FilterSelection{Year: "2000", Genres: []string{"Action", "Comedy"}, Score: model.DefaultScoreRange}
	if !reflect.DeepEqual(sel, want) {
		t.Fatalf("unexpected default selection: %+v", sel)
	}

	sel = resolveSelection(ds, settings{
		year:     strPtr("2001.0"),
		genres:   slicePtr(nil),
		maxScore: floatPtr(7.5),
	})
	if sel.Year != "2001" {
		t.Fatalf("expected normalized year, got %q", sel.Year)
	}
	if sel.Genres == nil || len(sel.Genres) != 0 {
		t.Fatalf("expected explicit empty genres, got %#v", sel.Genres)
	}
	if sel.Score != (model.ScoreRange{Min: 3, Max: 7.5}) {
		t.Fatalf("unexpected score range: %+v", sel.Score)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if !reflect.DeepEqual(cfg, config.FileConfig{}) {
		t.Fatalf("expected all values commented out, got %+v", cfg)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "chart.png")
	if err := writeFileAtomic(path, []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("unexpected content: %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be removed, got %d entries", len(entries))
	}
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	src := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(src, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"report", "--source", src, "--log-level", "error",
		"--year", "2000", "--genre", "Action", "--min", "3", "--max", "5"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("report: %v", err)
	}
	text := out.String()
	for _, want := range []string{"year=2000 genres=Action score=[3.0, 5.0]", "Name  Genre   Year", "4.00", "150"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in report:\n%s", want, text)
		}
	}
}

func TestReportCommandMissingSource(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"report", "--no-cache", "--log-level", "error", "--source", filepath.Join(dir, "missing.csv")})
	err := root.ExecuteContext(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing source")
	}
	if !strings.Contains(err.Error(), "failed to load dataset") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	src := filepath.Join(dir, "movies.csv")
	if err := os.WriteFile(src, []byte(testCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	outDir := filepath.Join(dir, "charts")

	root := newRootCmd()
	root.SetArgs([]string{"export", "--source", src, "--log-level", "error", "--out", outDir, "--min", "9", "--max", "10"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "budgets.png")); err != nil {
		t.Fatalf("expected budgets.png: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "scores.png")); !os.IsNotExist(err) {
		t.Fatalf("expected scores.png to be skipped for an empty range, got %v", err)
	}
}
