package datasource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"salesetl/internal/datasource/httpds"
)

// fetchFunc adapts a function to Fetcher.
type fetchFunc func(ctx context.Context, url string, w io.Writer) (int64, error)

func (f fetchFunc) Fetch(ctx context.Context, url string, w io.Writer) (int64, error) {
	return f(ctx, url, w)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestAcquire_DownloadsIntoCache(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Region,Country\nAsia,China\n")
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "nested", "sales_100.csv")
	a := &Acquirer{Fetcher: httpds.NewClient(httpds.Config{}), CachePath: cache}

	got, err := a.Acquire(context.Background(), srv.URL+"/sales_100.csv")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got.Path != cache || got.Stale != nil || got.Bytes != 26 {
		t.Fatalf("Acquired = %+v", got)
	}
	if s := readFile(t, cache); s != "Region,Country\nAsia,China\n" {
		t.Fatalf("cache content = %q", s)
	}
	entries, _ := os.ReadDir(filepath.Dir(cache))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

// TestAcquire_FallsBackToCache verifies that a failed download keeps and
// reuses the previous copy, and that a partial body never replaces it.
func TestAcquire_FallsBackToCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := filepath.Join(dir, "sales_100.csv")
	if err := os.WriteFile(cache, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	boom := errors.New("connection reset")
	a := &Acquirer{
		CachePath: cache,
		Fetcher: fetchFunc(func(_ context.Context, _ string, w io.Writer) (int64, error) {
			_, _ = io.WriteString(w, "partial")
			return 7, boom
		}),
	}

	got, err := a.Acquire(context.Background(), "https://example.invalid/sales_100.csv")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	var rerr *RetrievableError
	if !errors.As(got.Stale, &rerr) || !errors.Is(got.Stale, boom) {
		t.Fatalf("Stale = %v, want RetrievableError wrapping %v", got.Stale, boom)
	}
	if got.Path != cache || readFile(t, cache) != "old" {
		t.Fatalf("cache was modified: %+v %q", got, readFile(t, cache))
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestAcquire_NoCacheIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "sales_100.csv")
	a := &Acquirer{Fetcher: httpds.NewClient(httpds.Config{}), CachePath: cache}

	_, err := a.Acquire(context.Background(), srv.URL)
	var rerr *RetrievableError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RetrievableError", err)
	}
	var se *httpds.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want wrapped StatusError 404", err)
	}
	if _, serr := os.Stat(cache); !os.IsNotExist(serr) {
		t.Fatalf("cache file created on failure")
	}
}

func TestAcquire_CanceledNeverFallsBack(t *testing.T) {
	t.Parallel()

	cache := filepath.Join(t.TempDir(), "sales_100.csv")
	if err := os.WriteFile(cache, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Acquirer{
		CachePath: cache,
		Fetcher: fetchFunc(func(ctx context.Context, _ string, _ io.Writer) (int64, error) {
			cancel()
			return 0, ctx.Err()
		}),
	}
	if _, err := a.Acquire(ctx, "https://example.invalid/x.csv"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAcquire_EmptyCachePath(t *testing.T) {
	t.Parallel()

	a := &Acquirer{Fetcher: httpds.NewClient(httpds.Config{})}
	if _, err := a.Acquire(context.Background(), "https://example.invalid/x.csv"); err == nil {
		t.Fatalf("expected error")
	}
}
