package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "movieboard.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestSourceRoundTripAndReplace(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.GetSource(ctx, "https://example.com/movies.csv"); err != nil || ok {
		t.Fatalf("expected cache miss, got ok=%v err=%v", ok, err)
	}

	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := st.PutSource(ctx, Source{URL: "https://example.com/movies.csv", Body: []byte("a"), FetchedAt: first}); err != nil {
		t.Fatalf("put source: %v", err)
	}
	second := first.Add(time.Hour)
	if err := st.PutSource(ctx, Source{URL: "https://example.com/movies.csv", Body: []byte("b"), FetchedAt: second}); err != nil {
		t.Fatalf("replace source: %v", err)
	}

	src, ok, err := st.GetSource(ctx, "https://example.com/movies.csv")
	if err != nil || !ok {
		t.Fatalf("expected cache hit, got ok=%v err=%v", ok, err)
	}
	if string(src.Body) != "b" {
		t.Fatalf("expected replaced body, got %q", src.Body)
	}
	if !src.FetchedAt.Equal(second) {
		t.Fatalf("unexpected fetched_at: %v", src.FetchedAt)
	}
}

func TestClear(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for _, url := range []string{"a", "b"} {
		if err := st.PutSource(ctx, Source{URL: url, Body: []byte(url), FetchedAt: time.Now()}); err != nil {
			t.Fatalf("put source: %v", err)
		}
	}
	n, err := st.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted rows, got %d", n)
	}
	if _, ok, _ := st.GetSource(ctx, "a"); ok {
		t.Fatalf("expected cache to be empty")
	}
}
