package datasource

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
)

// Acquired describes where the input ended up.
type Acquired struct {
	Path  string
	Bytes int64
	// Stale is set when the download failed and Path is a cached copy from an
	// earlier run. It holds the *RetrievableError that was swallowed.
	Stale error
}

// Acquirer downloads a URL into CachePath. The cache file is replaced
// atomically, so a failed or partial download never clobbers the previous
// copy.
type Acquirer struct {
	Fetcher   Fetcher
	CachePath string
}

// Acquire fetches url into a.CachePath.
//
// On failure the cause is wrapped in *RetrievableError. If a regular file is
// already present at CachePath it is used instead and the error is reported
// in Acquired.Stale; otherwise the error is returned. Context cancellation is
// returned as-is and never falls back.
func (a *Acquirer) Acquire(ctx context.Context, url string) (Acquired, error) {
	if a.CachePath == "" {
		return Acquired{}, errors.New("datasource: cache path must not be empty")
	}

	n, err := a.download(ctx, url)
	if err == nil {
		return Acquired{Path: a.CachePath, Bytes: n}, nil
	}
	if ctx.Err() != nil {
		return Acquired{}, ctx.Err()
	}

	rerr := &RetrievableError{URL: url, Err: err}
	fi, serr := os.Stat(a.CachePath)
	if serr != nil || !fi.Mode().IsRegular() {
		return Acquired{}, rerr
	}
	log.Printf("acquire: download failed, using cached copy path=%s age=%s err=%v",
		a.CachePath, time.Since(fi.ModTime()).Round(time.Second), err)
	return Acquired{Path: a.CachePath, Bytes: fi.Size(), Stale: rerr}, nil
}

func (a *Acquirer) download(ctx context.Context, url string) (int64, error) {
	dir := filepath.Dir(a.CachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create cache dir: %w", err)
	}
	pf, err := renameio.NewPendingFile(a.CachePath, renameio.WithTempDir(dir), renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer pf.Cleanup()

	n, err := a.Fetcher.Fetch(ctx, url, pf)
	if err != nil {
		return 0, err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("replace %s: %w", a.CachePath, err)
	}
	return n, nil
}
