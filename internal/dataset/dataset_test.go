package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/movieboard/internal/store"
)

const sampleCSV = `name,rating,genre,year,score,budget,company
The Shining,R,Drama,1980,8.4,19000000,Warner Bros.
Airplane!,PG,Comedy,1980,7.7,3500000,Paramount Pictures
Blue Lagoon,R,Adventure,1980,5.8,4500000,Columbia Pictures
Missing Budget,R,Action,1980,6.0,,Somebody
Bad Score,PG,Action,1981,not-a-number,1000,Somebody
NA Company,PG,Action,1981,7.0,1000,NA
Raiders,PG,Action,1981.0,8.4,18000000,Paramount Pictures
`

func TestParseCleansRows(t *testing.T) {
	ds, stats, err := parseWithStats(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 7, stats.RowsRead)
	assert.Equal(t, 3, stats.RowsDropped)
	require.Equal(t, 4, ds.Len())

	names := make([]string, 0, ds.Len())
	for _, r := range ds.Records {
		names = append(names, r.Name)
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.Genre)
		assert.NotEmpty(t, r.Year)
	}
	assert.Equal(t, []string{"The Shining", "Airplane!", "Blue Lagoon", "Raiders"}, names)

	raiders := ds.Records[3]
	assert.Equal(t, "1981", raiders.Year)
	assert.InDelta(t, 8.4, raiders.Score, 1e-9)
	assert.InDelta(t, 18000000, raiders.Budget, 1e-9)
	assert.Equal(t, "PG", raiders.Extra["rating"])
	assert.Equal(t, "Paramount Pictures", raiders.Extra["company"])
	assert.NotContains(t, raiders.Extra, "score")
}

func TestParseHeaderCaseAndBOM(t *testing.T) {
	doc := "\ufeff Name ,GENRE,Year,Score,Budget\nA,Action,2000,3.5,100\n"
	ds, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "A", ds.Records[0].Name)
	assert.Nil(t, ds.Records[0].Extra)
}

func TestParseSchemaMismatch(t *testing.T) {
	_, err := Parse(strings.NewReader("name,genre,year\nA,Action,2000\n"))
	require.Error(t, err)
	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, "parse", dsErr.Op)
	assert.Contains(t, err.Error(), "score, budget")
}

func TestParseEmptyAndMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = Parse(strings.NewReader("name,genre,year,score,budget\nA,Action,2000,3.5,100,extra\n"))
	require.Error(t, err)
	var dsErr *DataSourceError
	assert.True(t, errors.As(err, &dsErr))
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseDropsShortRows(t *testing.T) {
	input := "name,genre,year,score,budget,company\nA,Action,2000,3.5,100,X\nB,Action,2000,4.5,200\n"
	ds, stats, err := parseWithStats(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "A", ds.Records[0].Name)
	assert.Equal(t, 2, stats.RowsRead)
	assert.Equal(t, 1, stats.RowsDropped)
}

func TestParseHeaderOnly(t *testing.T) {
	ds, err := Parse(strings.NewReader("name,genre,year,score,budget\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Years())
	assert.Empty(t, ds.Genres())
}

func TestNormalizeYear(t *testing.T) {
	cases := map[string]string{
		"1980":    "1980",
		"1980.0":  "1980",
		" 2001 ":  "2001",
		"1999.5":  "1999.5",
		"unknown": "unknown",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeYear(in), "input %q", in)
	}
}

func TestLoadFromLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	ds, stats, err := LoadWithStats(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
	assert.False(t, stats.FromCache)

	ds, err = Load(context.Background(), "file://"+path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Options{})
	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, "read", dsErr.Op)
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ds, err := Load(context.Background(), srv.URL+"/movies.csv", Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
}

func TestLoadHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL, Options{Timeout: time.Second})
	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, "fetch", dsErr.Op)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadHTTPTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := Load(context.Background(), srv.URL, Options{Timeout: 50 * time.Millisecond})
	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
	assert.Equal(t, "fetch", dsErr.Op)
}

type memCache struct {
	sources map[string]store.Source
	puts    int
}

func (m *memCache) GetSource(_ context.Context, url string) (store.Source, bool, error) {
	src, ok := m.sources[url]
	return src, ok, nil
}

func (m *memCache) PutSource(_ context.Context, src store.Source) error {
	if m.sources == nil {
		m.sources = map[string]store.Source{}
	}
	m.sources[src.URL] = src
	m.puts++
	return nil
}

func TestLoadUsesFreshCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	cache := &memCache{}
	opts := Options{Timeout: time.Second, Cache: cache, MaxAge: time.Hour}

	_, stats, err := LoadWithStats(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	assert.False(t, stats.FromCache)
	assert.Equal(t, 1, cache.puts)

	_, stats, err = LoadWithStats(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	assert.True(t, stats.FromCache)
	assert.Equal(t, int32(1), hits.Load())

	opts.Refresh = true
	_, stats, err = LoadWithStats(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	assert.False(t, stats.FromCache)
	assert.Equal(t, int32(2), hits.Load())
}

func TestLoadFallsBackToStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cache := &memCache{sources: map[string]store.Source{
		srv.URL: {URL: srv.URL, Body: []byte(sampleCSV), FetchedAt: time.Unix(0, 0)},
	}}
	opts := Options{Timeout: time.Second, Cache: cache, MaxAge: time.Minute}

	ds, stats, err := LoadWithStats(context.Background(), srv.URL, opts)
	require.NoError(t, err)
	assert.True(t, stats.FromCache)
	assert.Equal(t, 4, ds.Len())
}

func TestLoadEmptySource(t *testing.T) {
	_, err := Load(context.Background(), "  ", Options{})
	var dsErr *DataSourceError
	require.True(t, errors.As(err, &dsErr))
}
